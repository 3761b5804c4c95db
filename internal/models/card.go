package models

import (
	"fmt"
	"time"
)

// Template identifies a visual card layout variant
type Template string

const (
	TemplateModern  Template = "modern"
	TemplateElegant Template = "elegant"
	TemplateBold    Template = "bold"
	TemplateMinimal Template = "minimal"
	TemplateVibrant Template = "vibrant"
)

// ParseTemplate validates a template name, rejecting unknown values
func ParseTemplate(s string) (Template, error) {
	switch t := Template(s); t {
	case TemplateModern, TemplateElegant, TemplateBold, TemplateMinimal, TemplateVibrant:
		return t, nil
	default:
		return "", fmt.Errorf("unknown template %q", s)
	}
}

// Alternate returns the second-variation template for a primary template.
// The mapping is a fixed cycle so the pair produced for a product is
// deterministic.
func (t Template) Alternate() Template {
	switch t {
	case TemplateModern:
		return TemplateElegant
	case TemplateElegant:
		return TemplateBold
	case TemplateBold:
		return TemplateMinimal
	case TemplateMinimal:
		return TemplateVibrant
	default:
		return TemplateModern
	}
}

// Encoding identifies an output raster format
type Encoding string

const (
	EncodingPNG  Encoding = "png"
	EncodingJPEG Encoding = "jpeg"
)

// ParseEncoding validates an encoding name, rejecting unknown values
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case EncodingPNG, EncodingJPEG:
		return e, nil
	default:
		return "", fmt.Errorf("unknown encoding %q", s)
	}
}

// GenerationMode describes how a generation was initiated
type GenerationMode string

const (
	ModeManual    GenerationMode = "manual"
	ModeQuick     GenerationMode = "quick"
	ModeAutomated GenerationMode = "automated"
)

// StyleOptions controls how a single card is laid out
type StyleOptions struct {
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Template     Template `json:"template"`
	DarkMode     bool     `json:"dark_mode"`
	AccentColor  string   `json:"accent_color,omitempty"`
	ShowRating   bool     `json:"show_rating"`
	ShowSales    bool     `json:"show_sales"`
	ShowShipping bool     `json:"show_shipping"`
	ShowDiscount bool     `json:"show_discount"`
}

// Validate checks the style invariants
func (s StyleOptions) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("canvas dimensions must be positive, got %dx%d", s.Width, s.Height)
	}
	if _, err := ParseTemplate(string(s.Template)); err != nil {
		return err
	}
	return nil
}

// DefaultStyleOptions returns the standard card canvas
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		Width:        800,
		Height:       1000,
		Template:     TemplateModern,
		ShowRating:   true,
		ShowSales:    true,
		ShowShipping: true,
		ShowDiscount: true,
	}
}

// CardGenerationConfig holds everything one generation call needs
type CardGenerationConfig struct {
	Template               Template       `json:"template"`
	DarkMode               bool           `json:"dark_mode"`
	AccentColor            string         `json:"accent_color,omitempty"` // hex, e.g. "#ff4757"
	UseAI                  bool           `json:"use_ai"`
	CustomDescription      string         `json:"custom_description,omitempty"`
	Tone                   string         `json:"tone,omitempty"`
	MaxLength              int            `json:"max_length,omitempty"` // description characters
	IncludeEmojis          bool           `json:"include_emojis"`
	IncludeHashtags        bool           `json:"include_hashtags"`
	HighlightDiscount      bool           `json:"highlight_discount"`
	HighlightUrgency       bool           `json:"highlight_urgency"`
	IncludeSecondVariation bool           `json:"include_second_variation"`
	Encodings              StringSlice    `json:"encodings"`
	Mode                   GenerationMode `json:"mode"`
	ScheduleID             string         `json:"schedule_id,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
}

// ParsedEncodings returns the validated encoding list, defaulting to PNG
func (c CardGenerationConfig) ParsedEncodings() ([]Encoding, error) {
	if len(c.Encodings) == 0 {
		return []Encoding{EncodingPNG}, nil
	}
	out := make([]Encoding, 0, len(c.Encodings))
	for _, raw := range c.Encodings {
		enc, err := ParseEncoding(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}

// Style derives the renderer options from the config
func (c CardGenerationConfig) Style() StyleOptions {
	s := DefaultStyleOptions()
	s.Template = c.Template
	s.DarkMode = c.DarkMode
	s.AccentColor = c.AccentColor
	s.ShowDiscount = c.HighlightDiscount
	return s
}

// CardGenerationResult is the immutable outcome of one generation call
type CardGenerationResult struct {
	Success     bool                `json:"success"`
	Cards       map[Encoding]string `json:"cards"`      // encoding -> artifact URL
	Alternates  map[Encoding]string `json:"alternates"` // second variation, if requested
	Description string              `json:"description"`
	Product     Product             `json:"product"`
	Elapsed     time.Duration       `json:"elapsed"`
	Mode        GenerationMode      `json:"mode"`
	Template    Template            `json:"template"`
	Error       string              `json:"error,omitempty"`
}
