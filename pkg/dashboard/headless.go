package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/internal/session"
	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/render"
	"github.com/dkoosis/playv/pkg/stream"
)

// HeadlessOptions configures Drain.
type HeadlessOptions struct {
	Out      io.Writer
	Err      io.Writer
	Terminal *render.Terminal
	// Footer shows a live progress line on Out. Only use it on a terminal.
	Footer bool
	Width  int
	Height int
}

// HeadlessSummary describes one drained submission.
type HeadlessSummary struct {
	Jobs      int
	Failed    []labs.Problem
	NoVisible int
	Results   []job.Result
}

// ExitCode is 1 when any test job failed.
func (s HeadlessSummary) ExitCode() int {
	if len(s.Failed) > 0 {
		return 1
	}
	return 0
}

// Drain streams the events of one submission to plain writers until the
// runner goes idle. Visible lines go to Out; diagnostics and no-visible-output
// reports go to Err. Events are also applied to sess when it is not nil.
func Drain(ctx context.Context, events <-chan job.Event, sess *session.Session, opts HeadlessOptions) (HeadlessSummary, error) {
	term := opts.Terminal
	if term == nil {
		term = render.NewTerminal(render.MonoTheme(), opts.Width)
	}
	var tw *termWriter
	if opts.Footer {
		tw = newTermWriter(opts.Out, opts.Width, opts.Height)
	}
	printOut := func(s string) {
		if tw != nil {
			tw.PrintLine(s)
			return
		}
		fmt.Fprintln(opts.Out, s)
	}
	printErr := func(s string) {
		if tw != nil {
			tw.EraseFooter()
		}
		fmt.Fprintln(opts.Err, s)
	}

	var sum HeadlessSummary
	var current string
	for {
		var e job.Event
		var ok bool
		select {
		case <-ctx.Done():
			if tw != nil {
				tw.EraseFooter()
			}
			return sum, ctx.Err()
		case e, ok = <-events:
		}
		if !ok {
			return sum, nil
		}
		if sess != nil {
			sess.Apply(e)
		}

		switch e.Type {
		case job.EventStarted:
			sum.Jobs++
			current = e.Problem.Key()
		case job.EventOutput:
			if e.Header {
				printOut(term.Header(e.Line))
			} else {
				printOut(e.Line)
			}
		case job.EventDiagnostic:
			printErr(term.Diagnostic(e.Line))
		case job.EventStatus:
			if e.Verdict == labs.Fail {
				sum.Failed = append(sum.Failed, e.Problem)
			}
		case job.EventCompleted:
			if res := e.Result; res != nil {
				sum.Results = append(sum.Results, *res)
				if res.NoVisibleOutput() {
					sum.NoVisible++
					heading := fmt.Sprintf("No visible output from %s", res.Problem.Key())
					printErr(term.Report(heading, stream.PresentReport(res.RawOutput)))
				}
			}
			current = ""
		case job.EventBusy:
			if !e.Busy {
				if tw != nil {
					tw.EraseFooter()
				}
				return sum, nil
			}
		}

		if tw != nil && current != "" {
			tw.EraseFooter()
			tw.DrawFooter([]string{fmt.Sprintf("running %s (job %d)", current, sum.Jobs)})
		}
	}
}
