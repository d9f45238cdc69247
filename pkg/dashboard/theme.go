package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/dkoosis/playv/pkg/render"
)

// DashboardTheme holds all visual styling for the dashboard TUI.
type DashboardTheme struct {
	// Palette colors the score board and the terminal pane.
	Palette render.Palette
	NoColor bool

	// Title bar
	Title DashboardTitleStyle

	// Spinner configuration
	Spinner DashboardSpinnerConfig
}

// DashboardTitleStyle defines the title bar appearance.
type DashboardTitleStyle struct {
	Text string
	Icon string
}

// DashboardSpinnerConfig defines spinner animation settings.
type DashboardSpinnerConfig struct {
	Frames   string // Space-separated spinner frames
	Interval int    // Milliseconds between frames
}

// CompiledTheme holds pre-built lipgloss styles from a DashboardTheme.
type CompiledTheme struct {
	Board render.Theme

	TitleStyle     lipgloss.Style
	BoardBoxStyle  lipgloss.Style
	TermBoxStyle   lipgloss.Style
	TermTitleStyle lipgloss.Style
	StatusBarStyle lipgloss.Style
	FlashStyle     lipgloss.Style
	ReportStyle    lipgloss.Style

	TitleText string
	TitleIcon string
	Spinner   spinner.Spinner
}

// DefaultDashboardTheme returns the default dashboard theme configuration.
func DefaultDashboardTheme() *DashboardTheme {
	return &DashboardTheme{
		Palette: render.DefaultPalette(),
		Title: DashboardTitleStyle{
			Text: "playV",
			Icon: "⚡",
		},
		Spinner: DashboardSpinnerConfig{
			Frames:   "⠋ ⠙ ⠸ ⠴ ⠦ ⠇",
			Interval: 120,
		},
	}
}

// Compile builds lipgloss styles from the theme configuration.
func (t *DashboardTheme) Compile() *CompiledTheme {
	board := render.ThemeFor(t.Palette, t.NoColor)
	ct := &CompiledTheme{Board: board}

	accent := lipgloss.Color(t.Palette.Accent)
	muted := lipgloss.Color(t.Palette.Muted)
	fail := lipgloss.Color(t.Palette.Fail)
	if t.NoColor {
		accent, muted, fail = "", "", ""
	}

	ct.TitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if accent != "" {
		ct.TitleStyle = ct.TitleStyle.Foreground(lipgloss.Color("#FAFAFA")).Background(accent)
	}
	ct.BoardBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(muted).
		Padding(0, 1)
	ct.TermBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	ct.TermTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	ct.StatusBarStyle = lipgloss.NewStyle().Foreground(muted)
	ct.FlashStyle = lipgloss.NewStyle().Foreground(fail).Bold(true)
	ct.ReportStyle = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(fail).
		Padding(1, 2)

	ct.TitleText = t.Title.Text
	ct.TitleIcon = t.Title.Icon

	interval := t.Spinner.Interval
	if interval <= 0 {
		interval = 120
	}
	ct.Spinner = spinner.Spinner{
		Frames: parseSpinnerFrames(t.Spinner.Frames),
		FPS:    time.Duration(interval) * time.Millisecond,
	}
	return ct
}

// parseSpinnerFrames splits space-separated spinner characters.
func parseSpinnerFrames(s string) []string {
	var frames []string
	for _, r := range s {
		if r != ' ' {
			frames = append(frames, string(r))
		}
	}
	if len(frames) == 0 {
		return []string{"⠋", "⠙", "⠸", "⠴", "⠦", "⠇"}
	}
	return frames
}
