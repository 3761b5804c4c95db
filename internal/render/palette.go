package render

import (
	"fmt"
	"image/color"

	"github.com/promocard-agent/internal/models"
)

// Palette defines the colors one card render works with
type Palette struct {
	Background color.Color
	Panel      color.Color
	Shadow     color.Color
	Text       color.Color
	Muted      color.Color
	Accent     color.Color
	Badge      color.Color
	BadgeText  color.Color
	DescPanel  color.Color // translucent description background
}

// Elevated reports whether the template draws its card panel with a shadow
func Elevated(t models.Template) bool {
	return t == models.TemplateModern || t == models.TemplateBold
}

// PaletteFor resolves the color palette for a template and scheme.
// accentOverride, when non-empty, replaces the template accent ("#rrggbb").
func PaletteFor(t models.Template, dark bool, accentOverride string) Palette {
	p := basePalette(dark)

	switch t {
	case models.TemplateModern:
		p.Accent = rgb(0x25, 0x63, 0xeb)
	case models.TemplateElegant:
		p.Accent = rgb(0xb0, 0x8d, 0x57)
		if !dark {
			p.Background = rgb(0xfa, 0xf7, 0xf2)
			p.Panel = rgb(0xff, 0xfd, 0xf9)
		}
	case models.TemplateBold:
		p.Accent = rgb(0xef, 0x44, 0x44)
	case models.TemplateMinimal:
		p.Accent = rgb(0x11, 0x18, 0x27)
		if dark {
			p.Accent = rgb(0xf1, 0xf5, 0xf9)
		}
	case models.TemplateVibrant:
		p.Accent = rgb(0xec, 0x48, 0x99)
		if !dark {
			p.Background = rgb(0xfd, 0xf2, 0xf8)
		}
	}

	if accentOverride != "" {
		if c, err := parseHexColor(accentOverride); err == nil {
			p.Accent = c
		}
	}

	p.Badge = p.Accent
	return p
}

func basePalette(dark bool) Palette {
	if dark {
		return Palette{
			Background: rgb(0x0f, 0x17, 0x2a),
			Panel:      rgb(0x1e, 0x29, 0x3b),
			Shadow:     color.RGBA{0, 0, 0, 90},
			Text:       rgb(0xf1, 0xf5, 0xf9),
			Muted:      rgb(0x94, 0xa3, 0xb8),
			BadgeText:  rgb(0xff, 0xff, 0xff),
			DescPanel:  color.RGBA{255, 255, 255, 18},
		}
	}
	return Palette{
		Background: rgb(0xf5, 0xf7, 0xfa),
		Panel:      rgb(0xff, 0xff, 0xff),
		Shadow:     color.RGBA{0, 0, 0, 30},
		Text:       rgb(0x11, 0x18, 0x27),
		Muted:      rgb(0x4b, 0x55, 0x63),
		BadgeText:  rgb(0xff, 0xff, 0xff),
		DescPanel:  color.RGBA{17, 24, 39, 14},
	}
}

func rgb(r, g, b uint8) color.Color {
	return color.RGBA{r, g, b, 255}
}

func parseHexColor(s string) (color.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{r, g, b, 255}, nil
}
