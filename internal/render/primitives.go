package render

import (
	"strings"

	"github.com/fogleman/gg"
)

const ellipsis = "…"

// DrawRoundedRect draws a rectangle whose corners are replaced by
// quarter-circle arcs of the given radius, then fills and/or strokes it.
// A radius of 0 degenerates to a plain rectangle; radii larger than half
// the smaller dimension are clamped.
func DrawRoundedRect(dc *gg.Context, x, y, w, h, radius float64, fill, stroke bool) {
	if radius < 0 {
		radius = 0
	}
	if max := minf(w, h) / 2; radius > max {
		radius = max
	}

	if radius == 0 {
		dc.DrawRectangle(x, y, w, h)
	} else {
		dc.DrawRoundedRectangle(x, y, w, h, radius)
	}

	switch {
	case fill && stroke:
		dc.FillPreserve()
		dc.Stroke()
	case fill:
		dc.Fill()
	case stroke:
		dc.Stroke()
	default:
		dc.ClearPath()
	}
}

// WrapText greedily packs whitespace-delimited words onto lines not
// exceeding maxWidth, measured in the context's active font, drawing each
// line at x with baselines lineHeight apart starting at y. When maxLines
// is positive and reached while words remain, the last line is truncated
// and suffixed with an ellipsis. Words wider than maxWidth are placed
// alone on their line, never broken mid-word. Returns the y-coordinate
// immediately below the last drawn line so layouts can chain.
func WrapText(dc *gg.Context, text string, x, y, maxWidth, lineHeight float64, maxLines int) float64 {
	measure := func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	}

	lines := WrapLines(measure, text, maxWidth, maxLines)
	for _, line := range lines {
		dc.DrawString(line, x, y)
		y += lineHeight
	}
	return y
}

// WrapLines computes the wrapped lines without drawing them
func WrapLines(measure func(string) float64, text string, maxWidth float64, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	truncated := false

	for _, word := range words[1:] {
		candidate := current + " " + word
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		if maxLines > 0 && len(lines)+1 == maxLines {
			// Line budget exhausted with words remaining
			current = candidate
			truncated = true
			break
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)

	if truncated {
		last := lines[len(lines)-1]
		lines[len(lines)-1] = truncateWithEllipsis(measure, last, maxWidth)
	}
	return lines
}

// truncateWithEllipsis drops whole trailing words until the line plus the
// ellipsis marker fits maxWidth, so the truncated line never ends in a
// partial word. Only when a single word remains and still does not fit are
// runes trimmed as a last resort.
func truncateWithEllipsis(measure func(string) float64, line string, maxWidth float64) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return ellipsis
	}

	for len(words) > 1 {
		candidate := strings.Join(words, " ") + ellipsis
		if measure(candidate) <= maxWidth {
			return candidate
		}
		words = words[:len(words)-1]
	}

	runes := []rune(words[0])
	for len(runes) > 0 {
		candidate := string(runes) + ellipsis
		if measure(candidate) <= maxWidth {
			return candidate
		}
		runes = runes[:len(runes)-1]
	}
	return ellipsis
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
