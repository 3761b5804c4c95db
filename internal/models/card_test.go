package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/models"
)

func TestParseTemplate(t *testing.T) {
	for _, name := range []string{"modern", "elegant", "bold", "minimal", "vibrant"} {
		got, err := models.ParseTemplate(name)
		require.NoError(t, err)
		assert.Equal(t, models.Template(name), got)
	}

	_, err := models.ParseTemplate("neon")
	assert.Error(t, err)

	_, err = models.ParseTemplate("")
	assert.Error(t, err)
}

func TestTemplate_Alternate(t *testing.T) {
	// The alternate cycle must be deterministic and never map a template
	// to itself
	seen := map[models.Template]bool{}
	current := models.TemplateModern
	for i := 0; i < 5; i++ {
		next := current.Alternate()
		assert.NotEqual(t, current, next)
		seen[next] = true
		current = next
	}

	// Five hops cover every template exactly once and return to the start
	assert.Len(t, seen, 5)
	assert.Equal(t, models.TemplateModern, current)
}

func TestParsedEncodings(t *testing.T) {
	// Empty defaults to PNG
	cfg := models.CardGenerationConfig{}
	encodings, err := cfg.ParsedEncodings()
	require.NoError(t, err)
	assert.Equal(t, []models.Encoding{models.EncodingPNG}, encodings)

	cfg.Encodings = models.StringSlice{"png", "jpeg"}
	encodings, err = cfg.ParsedEncodings()
	require.NoError(t, err)
	assert.Equal(t, []models.Encoding{models.EncodingPNG, models.EncodingJPEG}, encodings)

	cfg.Encodings = models.StringSlice{"png", "webp"}
	_, err = cfg.ParsedEncodings()
	assert.Error(t, err)
}

func TestCardGenerationConfig_Style(t *testing.T) {
	cfg := models.CardGenerationConfig{
		Template:          models.TemplateBold,
		DarkMode:          true,
		AccentColor:       "#ff4757",
		HighlightDiscount: true,
	}

	style := cfg.Style()
	assert.Equal(t, models.TemplateBold, style.Template)
	assert.True(t, style.DarkMode)
	assert.Equal(t, "#ff4757", style.AccentColor)
	assert.True(t, style.ShowDiscount)
	assert.Equal(t, 800, style.Width)
	assert.Equal(t, 1000, style.Height)
}

func TestStyleOptions_Validate(t *testing.T) {
	opts := models.DefaultStyleOptions()
	require.NoError(t, opts.Validate())

	opts.Width = 0
	assert.Error(t, opts.Validate())

	opts = models.DefaultStyleOptions()
	opts.Template = "unknown"
	assert.Error(t, opts.Validate())
}
