package dashboard

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/labs"
)

const busyFlash = "busy: wait for the running job to finish"

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.report != "" {
		switch key {
		case "enter", "esc", "q":
			m.report = ""
			m.reportHeading = ""
		}
		return m, nil
	}

	confirm := m.confirmResync
	m.confirmResync = false
	m.flash = ""

	var cmd tea.Cmd
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "pgup":
		m.viewport.SetYOffset(m.viewport.YOffset - m.viewport.Height)
	case "pgdown":
		m.viewport.SetYOffset(m.viewport.YOffset + m.viewport.Height)
	case "t":
		cmd = m.submitSelected(m.opts.Commands.Test)
	case "x":
		cmd = m.submitSelected(m.opts.Commands.Clean)
	case "T":
		cmd = m.submitAll(m.opts.Commands.TestAll)
	case "R":
		cmd = m.submitAll(m.opts.Commands.ResetAll)
	case "r":
		cmd = m.submit(job.Batch{Rescan: m.opts.Root})
	case "e":
		if p, ok := m.sess.Selected(); ok {
			m.launch(m.opts.Commands.EditorCommand(p), p.Dir)
		}
	case "w", "W":
		if p, ok := m.sess.Selected(); ok {
			argv, err := m.opts.Commands.WaveCommand(p, key == "W")
			if err != nil {
				m.appendLine(m.board.Diagnostic(fmt.Sprintf("%s %v", job.DiagnosticPrefix, err)))
				break
			}
			m.launch(argv, p.Dir)
		}
	case "g":
		if m.sess.Busy() {
			m.flash = busyFlash
			break
		}
		if p, ok := m.sess.Selected(); ok {
			m.goldenLog(p)
		}
	case "C":
		m.clearTerminal()
	case "D":
		cmd = m.resync(confirm)
	}
	return m, cmd
}

func (m *model) move(delta int) {
	if err := m.sess.Move(delta); errors.Is(err, job.ErrBusy) {
		m.flash = busyFlash
	}
}

func (m *model) submitSelected(build func(p labs.Problem) job.Spec) tea.Cmd {
	p, ok := m.sess.Selected()
	if !ok {
		return nil
	}
	return m.submit(job.Batch{Jobs: []job.Spec{build(p)}})
}

func (m *model) submitAll(build func(ps []labs.Problem) []job.Spec) tea.Cmd {
	problems := m.sess.Problems()
	if len(problems) == 0 {
		return nil
	}
	b := job.Batch{Jobs: build(problems)}
	if p, ok := m.sess.Selected(); ok {
		b.Restore = &p
	}
	return m.submit(b)
}

func (m *model) resync(confirmed bool) tea.Cmd {
	if !confirmed {
		m.confirmResync = true
		m.flash = "press D again to replace every lab with a fresh copy"
		return nil
	}
	spec, err := m.opts.Commands.Resync(m.opts.DevRoot, m.opts.PublicRoot)
	if err != nil {
		m.appendLine(m.board.Diagnostic(fmt.Sprintf("%s %v", job.DiagnosticPrefix, err)))
		return nil
	}
	return m.submit(job.Batch{Jobs: []job.Spec{spec}, Rescan: m.opts.Root})
}

// submit hands b to the runner. An accepted submission marks the session busy
// at once; only the runner's idle event clears it.
func (m *model) submit(b job.Batch) tea.Cmd {
	err := m.opts.Runner.SubmitBatch(m.ctx, b)
	switch {
	case errors.Is(err, job.ErrBusy):
		m.flash = busyFlash
		return nil
	case err != nil:
		m.log.Warn("submit failed", zap.Error(err))
		m.flash = err.Error()
		return nil
	}
	m.sess.SetBusy(true)
	return m.spinner.Tick
}

func (m *model) launch(argv []string, dir string) {
	if err := m.opts.Runner.Launch(argv, dir); err != nil {
		m.log.Warn("launch failed", zap.Error(err))
		m.appendLine(m.board.Diagnostic(fmt.Sprintf("%s %v", job.DiagnosticPrefix, err)))
		m.flash = err.Error()
	}
}
