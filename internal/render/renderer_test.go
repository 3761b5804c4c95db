package render_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/render"
	"github.com/promocard-agent/pkg/logger"
)

type stubLoader struct {
	img image.Image
	err error
}

func (s *stubLoader) Load(ctx context.Context, ref string) (image.Image, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.img, nil
}

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 80, 40, 255})
		}
	}
	return img
}

func testProduct() *models.Product {
	return &models.Product{
		ID:           "p1",
		Name:         "Wireless Noise Cancelling Headphones",
		Price:        59.99,
		DiscountRate: 25,
		Sales:        1543,
		Rating:       4.7,
		ShopName:     "AudioHub",
		FreeShipping: true,
		ImageURL:     "https://example.com/headphones.jpg",
	}
}

func newTestRenderer(t *testing.T, loader render.ImageLoader) *render.Renderer {
	t.Helper()
	fonts, err := render.NewFontSet()
	require.NoError(t, err)
	return render.NewRenderer(fonts, loader, "promocard.app", logger.Nop())
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t, &stubLoader{img: solidImage(640, 480)})

	opts := models.DefaultStyleOptions()
	img, err := r.Render(context.Background(), testProduct(), "Great sound for less.", opts)
	require.NoError(t, err)
	assert.Equal(t, opts.Width, img.Bounds().Dx())
	assert.Equal(t, opts.Height, img.Bounds().Dy())
}

func TestRenderer_RenderEveryTemplate(t *testing.T) {
	r := newTestRenderer(t, &stubLoader{img: solidImage(300, 500)})

	templates := []models.Template{
		models.TemplateModern,
		models.TemplateElegant,
		models.TemplateBold,
		models.TemplateMinimal,
		models.TemplateVibrant,
	}
	for _, template := range templates {
		for _, dark := range []bool{false, true} {
			opts := models.DefaultStyleOptions()
			opts.Template = template
			opts.DarkMode = dark

			img, err := r.Render(context.Background(), testProduct(), "desc", opts)
			require.NoError(t, err, "template %s dark=%v", template, dark)
			assert.Equal(t, opts.Width, img.Bounds().Dx())
		}
	}
}

func TestRenderer_ImageLoadErrorPropagates(t *testing.T) {
	loadErr := errors.New("fetch failed")
	r := newTestRenderer(t, &stubLoader{err: loadErr})

	_, err := r.Render(context.Background(), testProduct(), "", models.DefaultStyleOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
}

func TestRenderer_RejectsInvalidOptions(t *testing.T) {
	r := newTestRenderer(t, &stubLoader{img: solidImage(10, 10)})

	opts := models.DefaultStyleOptions()
	opts.Template = "unknown"
	_, err := r.Render(context.Background(), testProduct(), "", opts)
	assert.Error(t, err)

	bad := testProduct()
	bad.Price = -5
	_, err = r.Render(context.Background(), bad, "", models.DefaultStyleOptions())
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	img := solidImage(4, 4)

	pngData, err := render.Encode(img, models.EncodingPNG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, pngData[:4])

	jpegData, err := render.Encode(img, models.EncodingJPEG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, jpegData[:2])
}
