// Package customization defines the widget's presentation settings.
package customization

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Widget positions on the host page.
const (
	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
)

// MaxBorderRadius bounds BorderRadius in pixels.
const MaxBorderRadius = 64

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Customization is the per-agent widget look, persisted by the backend.
type Customization struct {
	PrimaryColor   string `json:"primary_color" yaml:"primary_color"`
	HeaderTitle    string `json:"header_title" yaml:"header_title"`
	WelcomeMessage string `json:"welcome_message" yaml:"welcome_message"`
	Position       string `json:"position" yaml:"position"`
	BorderRadius   int    `json:"border_radius" yaml:"border_radius"`
	FontFamily     string `json:"font_family" yaml:"font_family"`
}

// Default returns the settings used before anything is saved.
func Default() Customization {
	return Customization{
		PrimaryColor:   "#4F46E5",
		HeaderTitle:    "Chat with us",
		WelcomeMessage: "Hi there! How can I help you today?",
		Position:       PositionBottomRight,
		BorderRadius:   12,
		FontFamily:     "Inter, sans-serif",
	}
}

// Validate checks every field for a renderable value.
func (c Customization) Validate() error {
	if !hexColor.MatchString(c.PrimaryColor) {
		return fmt.Errorf("invalid primary color %q", c.PrimaryColor)
	}
	if c.HeaderTitle == "" {
		return fmt.Errorf("header title is required")
	}
	switch c.Position {
	case PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
	default:
		return fmt.Errorf("invalid position %q", c.Position)
	}
	if c.BorderRadius < 0 || c.BorderRadius > MaxBorderRadius {
		return fmt.Errorf("border radius must be between 0 and %d", MaxBorderRadius)
	}
	return nil
}

// Merge returns base with every non-zero field of override applied.
// A zero BorderRadius in override is ignored.
func Merge(base, override Customization) Customization {
	out := base
	if override.PrimaryColor != "" {
		out.PrimaryColor = override.PrimaryColor
	}
	if override.HeaderTitle != "" {
		out.HeaderTitle = override.HeaderTitle
	}
	if override.WelcomeMessage != "" {
		out.WelcomeMessage = override.WelcomeMessage
	}
	if override.Position != "" {
		out.Position = override.Position
	}
	if override.BorderRadius != 0 {
		out.BorderRadius = override.BorderRadius
	}
	if override.FontFamily != "" {
		out.FontFamily = override.FontFamily
	}
	return out
}

// LoadFile reads a YAML customization file over the defaults. Keys present
// in the file win, including an explicit border_radius of 0.
func LoadFile(path string) (Customization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Customization{}, fmt.Errorf("failed to read customization file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Customization{}, fmt.Errorf("failed to parse customization file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Customization{}, err
	}
	return c, nil
}
