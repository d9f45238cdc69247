package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/playv/pkg/labs"
)

// Palette holds lipgloss color strings, usually from the config file.
type Palette struct {
	Pass   string
	Fail   string
	Unset  string
	Accent string
	Muted  string
}

// DefaultPalette is the pastel score board palette.
func DefaultPalette() Palette {
	return Palette{
		Pass:   "#a8f0a8",
		Fail:   "#f0a8a8",
		Unset:  "#cccccc",
		Accent: "#7aa2f7",
		Muted:  "#808080",
	}
}

// Theme defines colors and icons for terminal rendering.
type Theme struct {
	Name    string
	Primary lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Unset   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Icons   ThemeIcons
}

// ThemeIcons defines the icon set for a theme.
type ThemeIcons struct {
	Pass   string
	Fail   string
	Unset  string
	Select string
	Bullet string
}

// NewTheme builds a color theme from p. Empty colors fall back to the
// default palette.
func NewTheme(p Palette) Theme {
	def := DefaultPalette()
	pick := func(v, d string) lipgloss.Color {
		if v == "" {
			return lipgloss.Color(d)
		}
		return lipgloss.Color(v)
	}
	return Theme{
		Name:    "default",
		Primary: lipgloss.NewStyle().Foreground(pick(p.Accent, def.Accent)).Bold(true),
		Success: lipgloss.NewStyle().Foreground(pick(p.Pass, def.Pass)),
		Error:   lipgloss.NewStyle().Foreground(pick(p.Fail, def.Fail)),
		Unset:   lipgloss.NewStyle().Foreground(pick(p.Unset, def.Unset)),
		Muted:   lipgloss.NewStyle().Foreground(pick(p.Muted, def.Muted)),
		Bold:    lipgloss.NewStyle().Bold(true),
		Icons: ThemeIcons{
			Pass:   "✓",
			Fail:   "✗",
			Unset:  "○",
			Select: "▶",
			Bullet: "·",
		},
	}
}

// DefaultTheme returns the theme for the default palette.
func DefaultTheme() Theme {
	return NewTheme(DefaultPalette())
}

// MonoTheme returns a monochrome theme (no colors).
func MonoTheme() Theme {
	return Theme{
		Name:    "mono",
		Primary: lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Unset:   lipgloss.NewStyle(),
		Muted:   lipgloss.NewStyle(),
		Bold:    lipgloss.NewStyle(),
		Icons: ThemeIcons{
			Pass:   "+",
			Fail:   "x",
			Unset:  "-",
			Select: ">",
			Bullet: "-",
		},
	}
}

// ThemeFor returns MonoTheme when noColor is set and the palette theme otherwise.
func ThemeFor(p Palette, noColor bool) Theme {
	if noColor {
		return MonoTheme()
	}
	return NewTheme(p)
}

// Verdict returns the icon and style for v.
func (t Theme) Verdict(v labs.Verdict) (string, lipgloss.Style) {
	switch v {
	case labs.Pass:
		return t.Icons.Pass, t.Success
	case labs.Fail:
		return t.Icons.Fail, t.Error
	default:
		return t.Icons.Unset, t.Unset
	}
}
