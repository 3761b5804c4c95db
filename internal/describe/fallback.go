package describe

import (
	"fmt"
	"strings"

	"github.com/promocard-agent/internal/models"
)

// Sales thresholds for the urgency phrase
const (
	hotSalesThreshold     = 1000
	popularSalesThreshold = 100
)

const fallbackHashtags = "#deal #sale #shopping"

const maxFallbackNameLen = 40

// Fallback builds a deterministic description from product fields. It
// never fails and never calls external services.
func Fallback(product *models.Product, opts Options) string {
	var b strings.Builder

	urgency := "Fresh find!"
	switch {
	case product.Sales >= hotSalesThreshold:
		urgency = "Selling fast!"
	case product.Sales >= popularSalesThreshold:
		urgency = "Popular pick!"
	}
	if opts.IncludeEmojis {
		urgency = "🔥 " + urgency
	}
	b.WriteString(urgency)
	b.WriteString(" ")

	b.WriteString(truncateName(product.Name))
	b.WriteString(" for only ")
	b.WriteString(fmt.Sprintf("$%.2f", product.Price))
	b.WriteString(".")

	if product.Rating > 0 {
		stars := int(product.Rating + 0.5)
		if stars > 5 {
			stars = 5
		}
		b.WriteString(" Rated ")
		b.WriteString(strings.Repeat("★", stars))
		b.WriteString(".")
	}

	if product.Sales > 0 {
		b.WriteString(fmt.Sprintf(" Already %d sold.", product.Sales))
	}

	if opts.HighlightUrgency {
		b.WriteString(" Grab it before the price goes back up.")
	}

	if opts.IncludeHashtags {
		b.WriteString(" ")
		b.WriteString(fallbackHashtags)
	}

	return b.String()
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxFallbackNameLen {
		return name
	}
	return strings.TrimRight(string(runes[:maxFallbackNameLen]), " ") + "…"
}
