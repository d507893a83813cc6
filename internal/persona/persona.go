// Package persona holds the creator's public identity and the prompts
// built from it.
package persona

import (
	"fmt"
	"strings"
)

// Persona defines how the assistant presents itself to fans.
type Persona struct {
	Name              string   `yaml:"name"`
	Personality       []string `yaml:"personality"` // adjectives, e.g. flirty, playful
	Interests         []string `yaml:"interests"`
	PremiumPrice      float64  `yaml:"premium_price"`
	CustomPrice       float64  `yaml:"custom_price"`
	TipMinimum        float64  `yaml:"tip_minimum"`
	MaxResponseLength int      `yaml:"max_response_length"` // in characters
	Temperature       float64  `yaml:"temperature"`         // chat replies only
}

// Default returns the persona used when nothing is configured.
func Default() Persona {
	return Persona{
		Name:              "Your Name",
		Personality:       []string{"flirty", "playful", "engaging"},
		Interests:         []string{"fitness", "travel", "photography"},
		PremiumPrice:      9.99,
		CustomPrice:       29.99,
		TipMinimum:        5.00,
		MaxResponseLength: 500,
		Temperature:       0.8,
	}
}

// Validate checks that prices and limits are usable.
func (p Persona) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("persona name is required")
	}
	if p.PremiumPrice < 0 || p.CustomPrice < 0 || p.TipMinimum < 0 {
		return fmt.Errorf("persona prices must be non-negative")
	}
	if p.MaxResponseLength <= 0 {
		return fmt.Errorf("persona max_response_length must be positive, got %d", p.MaxResponseLength)
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("persona temperature must be in [0, 2], got %v", p.Temperature)
	}
	return nil
}

func (p Persona) traits() string { return strings.Join(p.Personality, ", ") }

// ContentType is a kind of paid content.
type ContentType string

const (
	PremiumPhoto     ContentType = "premium_photo"
	PremiumVideo     ContentType = "premium_video"
	CustomPhoto      ContentType = "custom_photo"
	CustomVideo      ContentType = "custom_video"
	ExclusiveMessage ContentType = "exclusive_message"
	NoContent        ContentType = "none"
)

// ContentTypes lists the sellable types in display order.
var ContentTypes = []ContentType{PremiumPhoto, PremiumVideo, CustomPhoto, CustomVideo, ExclusiveMessage}

// ParseContentType accepts a sellable content type name.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ContentTypes {
		if ct == known {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// IsCustom reports whether the content is made to order.
func (c ContentType) IsCustom() bool {
	return c == CustomPhoto || c == CustomVideo
}

// PriceFor returns the list price of a content type. NoContent and unknown
// types are free.
func (p Persona) PriceFor(c ContentType) float64 {
	switch {
	case c.IsCustom():
		return p.CustomPrice
	case c == NoContent || c == "":
		return 0
	default:
		return p.PremiumPrice
	}
}
