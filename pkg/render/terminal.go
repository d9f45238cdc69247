package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxCellWidth = 40

// Terminal renders boards as styled terminal output via lipgloss.
type Terminal struct {
	theme Theme
	width int
	title cases.Caser
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{theme: theme, width: width, title: cases.Title(language.English)}
}

// Theme returns the renderer's theme.
func (t *Terminal) Theme() Theme { return t.theme }

// Render formats the score board: one row per problem with its verdict,
// followed by a summary line.
func (t *Terminal) Render(b Board) string {
	rows := make([][]string, 0, len(b.Records))
	for _, r := range b.Records {
		icon, _ := t.theme.Verdict(r.Verdict)
		rows = append(rows, []string{r.Lab, r.Label(), icon + " " + r.Verdict.String()})
	}
	widths := columnWidths([]string{"lab", "problem", "status"}, rows)

	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(t.header([]string{"lab", "problem", "status"}, widths))
	sb.WriteString("\n")
	for i, r := range b.Records {
		marker := "  "
		if i == b.Cursor {
			marker = t.theme.Primary.Render(t.theme.Icons.Select) + " "
		}
		_, style := t.theme.Verdict(r.Verdict)
		sb.WriteString(marker)
		sb.WriteString(cell(rows[i][0], widths[0]))
		sb.WriteString("  ")
		sb.WriteString(cell(rows[i][1], widths[1]))
		sb.WriteString("  ")
		sb.WriteString(style.Render(cell(rows[i][2], widths[2])))
		sb.WriteString("\n")
	}
	sb.WriteString(t.Summary(b.Count()))
	sb.WriteString("\n")
	return sb.String()
}

// Summary formats verdict counts on one line.
func (t *Terminal) Summary(c Counts) string {
	sep := t.theme.Muted.Render(" " + t.theme.Icons.Bullet + " ")
	return t.theme.Success.Render(fmt.Sprintf("%d pass", c.Pass)) + sep +
		t.theme.Error.Render(fmt.Sprintf("%d fail", c.Fail)) + sep +
		t.theme.Unset.Render(fmt.Sprintf("%d not run", c.Unset))
}

// Table formats rows under title-cased headers with columns aligned by
// display width.
func (t *Terminal) Table(headers []string, rows [][]string) string {
	widths := columnWidths(headers, rows)
	var sb strings.Builder
	sb.WriteString(t.header(headers, widths))
	sb.WriteString("\n")
	for _, row := range rows {
		cells := make([]string, len(widths))
		for i := range widths {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			cells[i] = cell(v, widths[i])
		}
		sb.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Report frames an error report under a heading.
func (t *Terminal) Report(heading, body string) string {
	rule := t.theme.Muted.Render(strings.Repeat("─", min(t.width, runewidth.StringWidth(heading)+4)))
	return t.theme.Error.Render(heading) + "\n" + rule + "\n" + body + "\n"
}

// Diagnostic styles a line produced by playv itself.
func (t *Terminal) Diagnostic(line string) string {
	return t.theme.Error.Render(line)
}

// Header styles a section header line.
func (t *Terminal) Header(line string) string {
	return t.theme.Primary.Render(line)
}

func (t *Terminal) header(names []string, widths []int) string {
	cells := make([]string, len(names))
	for i, n := range names {
		cells[i] = cell(t.title.String(n), widths[i])
	}
	return t.theme.Bold.Render(strings.TrimRight(strings.Join(cells, "  "), " "))
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}
	return widths
}

// cell truncates or pads s to exactly width display columns.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}
