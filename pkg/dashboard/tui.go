// Package dashboard is the interactive playv front end: a score board of
// every problem, a terminal pane with the visible output of the running job,
// and key bindings for the job and helper commands.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/internal/session"
	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/render"
	"github.com/dkoosis/playv/pkg/stream"
)

// maxTerminalLines bounds the terminal pane's scrollback.
const maxTerminalLines = 5000

// Runner is the part of job.Runner the dashboard drives.
type Runner interface {
	SubmitBatch(ctx context.Context, b job.Batch) error
	Launch(argv []string, dir string) error
}

// Options wires the dashboard to a runner and its event stream.
type Options struct {
	Runner     Runner
	Events     <-chan job.Event
	Session    *session.Session
	Commands   job.Commands
	Root       string
	DevRoot    string
	PublicRoot string
	Theme      *DashboardTheme
	Log        *zap.Logger
}

// Run launches the dashboard and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	program := tea.NewProgram(newModel(ctx, opts), tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type model struct {
	ctx      context.Context
	opts     Options
	theme    *CompiledTheme
	board    *render.Terminal
	sess     *session.Session
	log      *zap.Logger
	lines    []string
	viewport viewport.Model
	spinner  spinner.Model
	// report is the no-visible-output dialog; empty when hidden.
	report        string
	reportHeading string
	flash         string
	confirmResync bool
	ready         bool
	// dirty is set when lines changed since the viewport was last filled.
	dirty         bool
	width         int
	height        int
	boardWidth    int
}

// eventBatchMsg carries every event that was already queued behind the first.
type eventBatchMsg []job.Event

// maxEventBatch bounds how many queued events one update folds in.
const maxEventBatch = 256
type doneMsg struct{}

func newModel(ctx context.Context, opts Options) model {
	theme := opts.Theme
	if theme == nil {
		theme = DefaultDashboardTheme()
	}
	ct := theme.Compile()
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	sp := spinner.New(spinner.WithSpinner(ct.Spinner))
	vp := viewport.New(0, 0)
	return model{
		ctx:      ctx,
		opts:     opts,
		theme:    ct,
		board:    render.NewTerminal(ct.Board, 0),
		sess:     opts.Session,
		log:      log,
		viewport: vp,
		spinner:  sp,
	}
}

func (m model) Init() tea.Cmd {
	return m.listenEvents()
}

func (m model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.opts.Events
		if !ok {
			return doneMsg{}
		}
		batch := eventBatchMsg{e}
		for len(batch) < maxEventBatch {
			select {
			case e, ok := <-m.opts.Events:
				if !ok {
					return batch
				}
				batch = append(batch, e)
			default:
				return batch
			}
		}
		return batch
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.step(msg)
	nm := next.(model)
	nm.flushTerminal()
	return nm, cmd
}

func (m model) step(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		return m, nil
	case eventBatchMsg:
		cmds := make([]tea.Cmd, 0, len(msg)+1)
		for _, e := range msg {
			cmds = append(cmds, m.applyEvent(e))
		}
		return m, tea.Batch(append(cmds, m.listenEvents())...)
	case spinner.TickMsg:
		if !m.sess.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case doneMsg:
		return m, nil
	}
	return m, nil
}

// applyEvent folds a runner event into the session and the terminal pane.
func (m *model) applyEvent(e job.Event) tea.Cmd {
	wasBusy := m.sess.Busy()
	m.sess.Apply(e)
	switch e.Type {
	case job.EventOutput:
		if e.Header {
			m.appendLine(m.board.Header(e.Line))
		} else {
			m.appendLine(e.Line)
		}
	case job.EventDiagnostic:
		m.appendLine(m.board.Diagnostic(e.Line))
	case job.EventCompleted:
		m.completed(e)
	case job.EventTable:
		if m.ready {
			m.layout()
		}
	case job.EventBusy:
		if e.Busy && !wasBusy {
			return m.spinner.Tick
		}
	}
	return nil
}

// flushTerminal pushes pending lines into the viewport once per update.
func (m *model) flushTerminal() {
	if !m.dirty {
		return
	}
	m.dirty = false
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *model) completed(e job.Event) {
	res := e.Result
	if res == nil || !res.NoVisibleOutput() {
		return
	}
	if e.Batch {
		m.appendLine(m.board.Diagnostic(fmt.Sprintf("%s %s: no visible output", job.DiagnosticPrefix, res.Problem.Key())))
		return
	}
	m.reportHeading = fmt.Sprintf("No visible output from %s", res.Problem.Key())
	m.report = stream.PresentReport(res.RawOutput)
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if over := len(m.lines) - maxTerminalLines; over > 0 {
		m.lines = m.lines[over:]
	}
	m.dirty = true
}

func (m *model) clearTerminal() {
	m.lines = nil
	m.dirty = false
	m.viewport.SetContent("")
	m.viewport.GotoTop()
}

func (m *model) layout() {
	m.boardWidth = lipgloss.Width(m.board.Render(m.snapshot())) + 4
	if m.boardWidth > m.width/2 {
		m.boardWidth = m.width / 2
	}
	termWidth := m.width - m.boardWidth - 1
	m.viewport.Width = max(termWidth-4, 10)
	m.viewport.Height = max(m.height-7, 3)
	m.viewport.GotoBottom()
}

func (m model) snapshot() render.Board {
	return render.Board{
		Root:    m.opts.Root,
		Records: m.sess.Records(),
		Cursor:  m.sess.Cursor(),
		Cwd:     m.cwdLabel(),
		Busy:    m.sess.Busy(),
	}
}

func (m model) cwdLabel() string {
	dir := m.sess.Cwd().Dir
	if dir == "" {
		return m.opts.Root
	}
	if rel, err := filepath.Rel(m.opts.Root, dir); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return dir
}

func (m model) View() string {
	if !m.ready {
		return "Loading playV..."
	}
	if m.report != "" {
		return m.reportView()
	}

	titleText := strings.TrimSpace(m.theme.TitleIcon + " " + m.theme.TitleText)
	title := m.theme.TitleStyle.Width(m.width).Render(titleText)

	contentHeight := max(m.height-5, 3)
	boardPanel := m.theme.BoardBoxStyle.
		Width(m.boardWidth).
		Height(contentHeight).
		Render(m.board.Render(m.snapshot()))

	termHeader := m.theme.TermTitleStyle.Render("Terminal")
	termPanel := m.theme.TermBoxStyle.
		Width(max(m.width-m.boardWidth-3, 10)).
		Height(contentHeight).
		Render(termHeader + "\n" + m.viewport.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, boardPanel, termPanel)
	return lipgloss.JoinVertical(lipgloss.Left, title, panels, m.statusBar())
}

func (m model) statusBar() string {
	var parts []string
	if m.sess.Busy() {
		parts = append(parts, m.spinner.View()+" running")
	}
	parts = append(parts, "cwd: "+m.cwdLabel())
	if m.flash != "" {
		parts = append(parts, m.theme.FlashStyle.Render(m.flash))
	}
	help := "t test • x clean • T test all • R reset all • r refresh • e edit • w/W wave • g golden • C clear • q quit"
	return m.theme.StatusBarStyle.Render(strings.Join(parts, "  ") + "\n" + help)
}

func (m model) reportView() string {
	body := m.board.Report(m.reportHeading, m.report)
	box := m.theme.ReportStyle.Render(body + "\n" + m.theme.StatusBarStyle.Render("enter/esc to dismiss"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// goldenLog prints the reference log of p into the terminal pane.
func (m *model) goldenLog(p labs.Problem) {
	path := m.opts.Commands.Layout.GoldenLogPath(p.Dir)
	// #nosec G304 -- path is built from the discovered lab tree
	data, err := os.ReadFile(path)
	if err != nil {
		m.appendLine(m.board.Diagnostic(fmt.Sprintf("%s cannot read golden log: %v", job.DiagnosticPrefix, err)))
		return
	}
	m.appendLine(m.board.Header(m.opts.Commands.GoldenHeader(p)))
	for _, line := range stream.GoldenLines(string(data)) {
		m.appendLine(line)
	}
}
