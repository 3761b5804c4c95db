package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/pkg/logger"
)

// ImageLoader resolves a product image reference into a decoded image
type ImageLoader interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Renderer lays product data out onto a card canvas
type Renderer struct {
	fonts     *FontSet
	loader    ImageLoader
	watermark string
	log       *logger.Logger
}

// NewRenderer creates a card renderer
func NewRenderer(fonts *FontSet, loader ImageLoader, watermark string, log *logger.Logger) *Renderer {
	if watermark == "" {
		watermark = "promocard.app"
	}
	return &Renderer{
		fonts:     fonts,
		loader:    loader,
		watermark: watermark,
		log:       log.WithComponent("render"),
	}
}

// Render composes one card. The output is deterministic for identical
// inputs, font set and image bytes. Image load failures are returned to
// the caller unretried; retry policy belongs there.
func (r *Renderer) Render(ctx context.Context, product *models.Product, description string, opts models.StyleOptions) (image.Image, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	img, err := r.loader.Load(ctx, product.ImageURL)
	if err != nil {
		return nil, err
	}

	w := float64(opts.Width)
	h := float64(opts.Height)
	pal := PaletteFor(opts.Template, opts.DarkMode, opts.AccentColor)

	dc := gg.NewContext(opts.Width, opts.Height)

	// Background
	dc.SetColor(pal.Background)
	dc.Clear()

	// Card panel, shadowed on elevated templates
	margin := 0.04 * w
	panelX, panelY := margin, margin
	panelW, panelH := w-2*margin, h-2*margin
	radius := 0.03 * w

	if Elevated(opts.Template) {
		dc.SetColor(pal.Shadow)
		DrawRoundedRect(dc, panelX+6, panelY+8, panelW, panelH, radius, true, false)
	}
	dc.SetColor(pal.Panel)
	DrawRoundedRect(dc, panelX, panelY, panelW, panelH, radius, true, false)

	pad := 0.025 * w

	// Top half of the panel holds the product image
	imageH := 0.5 * panelH
	r.drawProductImage(dc, img, pal, panelX+pad, panelY+pad, panelW-2*pad, imageH-2*pad, radius*0.6)

	y := panelY + imageH + pad
	y = r.drawInfo(dc, product, opts, pal, panelX+pad, y, panelW-2*pad, w)

	r.drawDescription(dc, description, pal, panelX+pad, y, panelW-2*pad, panelY+panelH-pad-0.05*h, w)

	// Watermark, bottom-right corner
	dc.SetFontFace(r.fonts.Face(0.022*w, false))
	dc.SetColor(pal.Muted)
	dc.DrawStringAnchored(r.watermark, panelX+panelW-pad, panelY+panelH-pad*0.6, 1, 1)

	return dc.Image(), nil
}

// drawProductImage draws the placeholder panel and the aspect-fit product image
func (r *Renderer) drawProductImage(dc *gg.Context, img image.Image, pal Palette, x, y, w, h, radius float64) {
	dc.SetColor(pal.Background)
	DrawRoundedRect(dc, x, y, w, h, radius, true, false)

	// Fit scales by the smaller of the width/height ratios, preserving
	// aspect; center the result in the panel
	fitted := imaging.Fit(img, int(w), int(h), imaging.Lanczos)
	offsetX := x + (w-float64(fitted.Bounds().Dx()))/2
	offsetY := y + (h-float64(fitted.Bounds().Dy()))/2
	dc.DrawImage(fitted, int(offsetX), int(offsetY))
}

// drawInfo draws title, prices, rating, sales and shipping, returning the
// y-coordinate below the drawn block
func (r *Renderer) drawInfo(dc *gg.Context, product *models.Product, opts models.StyleOptions, pal Palette, x, y, maxWidth, w float64) float64 {
	// Title: max two lines
	titleSize := 0.042 * w
	dc.SetFontFace(r.fonts.Face(titleSize, true))
	dc.SetColor(pal.Text)
	y = WrapText(dc, product.Name, x, y+titleSize, maxWidth, titleSize*1.25, 2)

	// Price in accent color
	priceSize := 0.055 * w
	dc.SetFontFace(r.fonts.Face(priceSize, true))
	dc.SetColor(pal.Accent)
	price := FormatPrice(product.Price)
	dc.DrawString(price, x, y+priceSize*0.4)
	priceW, _ := dc.MeasureString(price)

	// Original price with a measured strikethrough
	if orig, ok := product.EffectiveOriginalPrice(); ok && opts.ShowDiscount {
		origSize := 0.032 * w
		dc.SetFontFace(r.fonts.Face(origSize, false))
		dc.SetColor(pal.Muted)
		origStr := FormatPrice(orig)
		origX := x + priceW + pad2(w)
		origY := y + priceSize*0.4
		dc.DrawString(origStr, origX, origY)

		origW, origH := dc.MeasureString(origStr)
		strikeY := origY - origH*0.35
		dc.SetLineWidth(1.5)
		dc.DrawLine(origX, strikeY, origX+origW, strikeY)
		dc.Stroke()
	}
	y += priceSize*0.4 + 0.018*w

	// Rating, sales and shipping row
	metaSize := 0.028 * w
	dc.SetFontFace(r.fonts.Face(metaSize, false))
	cursor := x
	baseline := y + metaSize

	if opts.ShowRating && product.Rating > 0 {
		dc.SetColor(pal.Accent)
		rating := fmt.Sprintf("★ %.1f", product.Rating)
		dc.DrawString(rating, cursor, baseline)
		rw, _ := dc.MeasureString(rating)
		cursor += rw + pad2(w)
	}
	if opts.ShowSales && product.Sales > 0 {
		dc.SetColor(pal.Muted)
		sales := fmt.Sprintf("%d sold", product.Sales)
		dc.DrawString(sales, cursor, baseline)
		sw, _ := dc.MeasureString(sales)
		cursor += sw + pad2(w)
	}
	if opts.ShowShipping {
		label := "Shipping info at checkout"
		if product.FreeShipping {
			label = "FREE shipping"
		}
		lw, lh := dc.MeasureString(label)
		badgePad := 0.01 * w
		dc.SetColor(pal.Badge)
		DrawRoundedRect(dc, cursor-badgePad, baseline-lh-badgePad, lw+2*badgePad, lh+2*badgePad, lh/2, true, false)
		dc.SetColor(pal.BadgeText)
		dc.DrawString(label, cursor, baseline)
	}

	return baseline + 0.022*w
}

// drawDescription draws the translucent panel and the wrapped description
func (r *Renderer) drawDescription(dc *gg.Context, description string, pal Palette, x, y, maxWidth, bottom, w float64) {
	if bottom-y < 0.05*w || description == "" {
		return
	}

	dc.SetColor(pal.DescPanel)
	DrawRoundedRect(dc, x, y, maxWidth, bottom-y, 0.015*w, true, false)

	descSize := 0.026 * w
	inset := 0.018 * w
	dc.SetFontFace(r.fonts.Face(descSize, false))
	dc.SetColor(pal.Text)

	maxLines := int((bottom - y - 2*inset) / (descSize * 1.4))
	if maxLines > 8 {
		maxLines = 8
	}
	if maxLines < 1 {
		maxLines = 1
	}
	WrapText(dc, description, x+inset, y+inset+descSize, maxWidth-2*inset, descSize*1.4, maxLines)
}

// EncodePNG serializes a rendered card as PNG
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serializes a rendered card as JPEG
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode serializes a rendered card in the requested encoding
func Encode(img image.Image, enc models.Encoding) ([]byte, error) {
	switch enc {
	case models.EncodingJPEG:
		return EncodeJPEG(img)
	default:
		return EncodePNG(img)
	}
}

// FormatPrice renders a currency value with the fixed prefix and two
// decimal places
func FormatPrice(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func pad2(w float64) float64 {
	return 0.02 * w
}
