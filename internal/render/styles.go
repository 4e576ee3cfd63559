package render

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

// Style names understood by the renderer
const (
	StyleDark      = "dark"
	StyleLight     = "light"
	StyleStorybook = "storybook"
	StylePlain     = "notty"
)

// StyleInfo describes a style for the config output
type StyleInfo struct {
	Name        string
	Description string
}

// AvailableStyles lists the markdown styles that need no file on disk
func AvailableStyles() []StyleInfo {
	return []StyleInfo{
		{Name: StyleDark, Description: "Dark terminals (default)"},
		{Name: StyleLight, Description: "Light terminals"},
		{Name: StyleStorybook, Description: "Dark, with highlighted question numbers"},
		{Name: "dracula", Description: "Dracula color scheme"},
		{Name: "tokyo-night", Description: "Tokyo Night color scheme"},
		{Name: StylePlain, Description: "Plain text, no colors"},
		{Name: "ascii", Description: "ASCII-only output"},
	}
}

// IsBuiltinStyle reports whether name is one of AvailableStyles
func IsBuiltinStyle(name string) bool {
	if name == StyleStorybook {
		return true
	}
	_, ok := styles.DefaultStyles[name]
	return ok
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// storybookStyle is the dark style with the numbered questions and bold
// labels of a reply standing out.
func storybookStyle() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	cfg.Enumeration.Color = strPtr("#e0af68")
	cfg.Enumeration.Bold = boolPtr(true)
	cfg.Strong.Color = strPtr("#7aa2f7")
	cfg.H1.Color = strPtr("#bb9af7")
	cfg.H1.BackgroundColor = nil
	return cfg
}

// styleOption picks the glamour option for a style name or a JSON style path
func styleOption(name string) glamour.TermRendererOption {
	switch {
	case name == StyleStorybook:
		return glamour.WithStyles(storybookStyle())
	case name == "":
		return glamour.WithStandardStyle(StyleDark)
	case IsBuiltinStyle(name):
		return glamour.WithStandardStyle(name)
	default:
		return glamour.WithStylePath(name)
	}
}
