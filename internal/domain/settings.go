package domain

import (
	"fmt"
	"regexp"
)

// Settings are the user preferences shared by every UI surface.
type Settings struct {
	HighlightColor string `json:"highlightColor" yaml:"highlightColor"`
	ScrollBehavior string `json:"scrollBehavior" yaml:"scrollBehavior"` // "instant" | "smooth"
	ColorScheme    string `json:"colorScheme" yaml:"colorScheme"`       // "dark" | "light"
	Language       string `json:"language,omitempty" yaml:"language"`   // "en" | "ko"
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	HighlightColor *string `json:"highlightColor,omitempty"`
	ScrollBehavior *string `json:"scrollBehavior,omitempty"`
	ColorScheme    *string `json:"colorScheme,omitempty"`
	Language       *string `json:"language,omitempty"`
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DefaultSettings returns the settings used before the user changes anything.
func DefaultSettings() Settings {
	return Settings{
		HighlightColor: "#ffd93d",
		ScrollBehavior: "instant",
		ColorScheme:    "dark",
		Language:       "en",
	}
}

// Merge applies the patch over s.
func (s Settings) Merge(p SettingsPatch) Settings {
	if p.HighlightColor != nil {
		s.HighlightColor = *p.HighlightColor
	}
	if p.ScrollBehavior != nil {
		s.ScrollBehavior = *p.ScrollBehavior
	}
	if p.ColorScheme != nil {
		s.ColorScheme = *p.ColorScheme
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	return s
}

func (s Settings) Validate() error {
	if !hexColor.MatchString(s.HighlightColor) {
		return fmt.Errorf("%w: highlight color %q", ErrInvalidSettings, s.HighlightColor)
	}
	switch s.ScrollBehavior {
	case "instant", "smooth":
	default:
		return fmt.Errorf("%w: scroll behavior %q", ErrInvalidSettings, s.ScrollBehavior)
	}
	switch s.ColorScheme {
	case "dark", "light":
	default:
		return fmt.Errorf("%w: color scheme %q", ErrInvalidSettings, s.ColorScheme)
	}
	switch s.Language {
	case "", "en", "ko":
	default:
		return fmt.Errorf("%w: language %q", ErrInvalidSettings, s.Language)
	}
	return nil
}
