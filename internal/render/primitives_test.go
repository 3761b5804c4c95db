package render_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/render"
)

// runeWidth measures one unit per rune, making wrap widths easy to reason
// about in tests
func runeWidth(s string) float64 {
	return float64(len([]rune(s)))
}

func TestWrapLines(t *testing.T) {
	t.Run("packs words greedily", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "one two three four", 9, 0)
		assert.Equal(t, []string{"one two", "three", "four"}, lines)
	})

	t.Run("single short text stays on one line", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "hello world", 20, 0)
		assert.Equal(t, []string{"hello world"}, lines)
	})

	t.Run("empty text yields no lines", func(t *testing.T) {
		assert.Nil(t, render.WrapLines(runeWidth, "   ", 10, 0))
	})

	t.Run("never breaks words", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "supercalifragilistic is long", 10, 0)
		require.NotEmpty(t, lines)
		assert.Equal(t, "supercalifragilistic", lines[0])
	})

	t.Run("truncates with ellipsis at line budget", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "one two three four five six seven", 10, 2)
		require.Len(t, lines, 2)
		assert.True(t, strings.HasSuffix(lines[1], "…"))
		assert.LessOrEqual(t, runeWidth(lines[1]), 10.0)

		// The truncated line ends on a whole input word, never mid-word
		assert.Equal(t, "three…", lines[1])
		lastWord := strings.TrimSuffix(lines[1], "…")
		assert.Contains(t, strings.Fields("one two three four five six seven"), lastWord)
	})

	t.Run("trims runes only when a single word cannot fit", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "short incomprehensibilities word", 8, 2)
		require.Len(t, lines, 2)
		assert.True(t, strings.HasSuffix(lines[1], "…"))
		assert.LessOrEqual(t, runeWidth(lines[1]), 8.0)
		assert.True(t, strings.HasPrefix("incomprehensibilities", strings.TrimSuffix(lines[1], "…")))
	})

	t.Run("no ellipsis when text fits the budget", func(t *testing.T) {
		lines := render.WrapLines(runeWidth, "one two three", 7, 2)
		require.Len(t, lines, 2)
		assert.False(t, strings.HasSuffix(lines[1], "…"))
	})
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$19.99", render.FormatPrice(19.99))
	assert.Equal(t, "$0.00", render.FormatPrice(0))
	assert.Equal(t, "$1234.50", render.FormatPrice(1234.5))
}

func TestPaletteFor(t *testing.T) {
	light := render.PaletteFor("modern", false, "")
	dark := render.PaletteFor("modern", true, "")
	assert.NotEqual(t, light.Background, dark.Background)

	// Accent override replaces the template accent
	custom := render.PaletteFor("modern", false, "#112233")
	assert.NotEqual(t, light.Accent, custom.Accent)

	// Malformed overrides fall back to the template accent
	bad := render.PaletteFor("modern", false, "not-a-color")
	assert.Equal(t, light.Accent, bad.Accent)
}
