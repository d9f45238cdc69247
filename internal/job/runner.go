package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/stream"
)

const defaultChunkSize = 4096

// DiagnosticPrefix starts every line playv writes into a job's output.
const DiagnosticPrefix = "[playv]"

// Recorder stores finished jobs. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(Result) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithResolver sets the status resolver used after test jobs and rescans.
func WithResolver(res labs.Resolver) Option {
	return func(r *Runner) { r.resolver = res }
}

// WithRecorder stores every finished job.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithMatchMode selects how sentinel markers are matched.
func WithMatchMode(m stream.MatchMode) Option {
	return func(r *Runner) { r.match = m }
}

// WithChunkSize sets the read size for job output.
func WithChunkSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.chunkSize = n
		}
	}
}

// Runner executes at most one submission at a time.
type Runner struct {
	gate      Gate
	post      Poster
	resolver  labs.Resolver
	recorder  Recorder
	log       *zap.Logger
	match     stream.MatchMode
	chunkSize int
	// wrapOutput, when set, wraps the read end of the output pipe.
	wrapOutput func(io.Reader) io.Reader

	// busyMu keeps the busy/idle events of consecutive submissions in order.
	busyMu sync.Mutex
}

// NewRunner returns a runner that reports through post.
func NewRunner(post Poster, opts ...Option) *Runner {
	r := &Runner{
		post:      post,
		resolver:  labs.NewResolver(labs.DefaultLayout()),
		log:       zap.NewNop(),
		match:     stream.MatchContains,
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Busy reports whether a submission is in progress.
func (r *Runner) Busy() bool {
	return r.gate.Busy()
}

// Submit runs one job asynchronously.
func (r *Runner) Submit(ctx context.Context, spec Spec) error {
	return r.SubmitBatch(ctx, Batch{Jobs: []Spec{spec}})
}

// SubmitRescan rediscovers the lab tree under root and posts a fresh status
// table, holding the gate while it runs.
func (r *Runner) SubmitRescan(ctx context.Context, root string) error {
	return r.SubmitBatch(ctx, Batch{Rescan: root})
}

// SubmitBatch runs b asynchronously under one gate acquisition. It returns
// ErrBusy without side effects when the gate is held.
func (r *Runner) SubmitBatch(ctx context.Context, b Batch) error {
	if len(b.Jobs) == 0 && b.Rescan == "" {
		return ErrEmptyBatch
	}
	if !r.gate.TryAcquire() {
		return ErrBusy
	}
	go r.runBatch(ctx, b)
	return nil
}

func (r *Runner) runBatch(ctx context.Context, b Batch) {
	r.busyMu.Lock()
	r.emit(Event{Type: EventBusy, Busy: true})
	r.busyMu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("job worker panicked", zap.Any("panic", p))
			r.emit(Event{Type: EventDiagnostic, Line: fmt.Sprintf("%s internal error: %v", DiagnosticPrefix, p)})
		}
		r.busyMu.Lock()
		r.gate.Release()
		r.emit(Event{Type: EventBusy, Busy: false})
		r.busyMu.Unlock()
	}()

	multi := len(b.Jobs) > 1
	for i, spec := range b.Jobs {
		if err := ctx.Err(); err != nil {
			r.log.Warn("batch stopped", zap.Int("remaining", len(b.Jobs)-i), zap.Error(err))
			break
		}
		if multi {
			r.emit(Event{Type: EventDirectory, Problem: spec.Problem, Batch: true})
		}
		res := r.execute(spec, multi)
		r.finish(spec, res, multi)
	}

	if b.Rescan != "" {
		r.rescan(b.Rescan)
	}
	if b.Restore != nil {
		r.emit(Event{Type: EventDirectory, Problem: *b.Restore, Restore: true, Batch: multi})
	}
}

// execute runs one job to completion on the calling goroutine.
func (r *Runner) execute(spec Spec, batch bool) Result {
	res := Result{
		JobID:     spec.ID,
		Problem:   spec.Problem,
		Command:   spec.Command,
		TestJob:   spec.TestJob,
		ExitCode:  -1,
		StartedAt: time.Now(),
	}
	log := r.log.With(zap.String("job", spec.ID), zap.Strings("cmd", spec.Command), zap.String("dir", spec.Dir))
	log.Debug("job started")

	header := spec.Header
	if header == "" {
		header = fmt.Sprintf(DefaultHeaderFormat, spec.Problem.Label())
	}
	cls := stream.NewClassifier(r.match, header)
	var report stream.Aggregator

	r.emit(Event{Type: EventStarted, JobID: spec.ID, Problem: spec.Problem, Batch: batch})

	onLine := func(line string) {
		report.Add(line)
		c := cls.Classify(line)
		if !c.Emits() {
			return
		}
		res.SawVisibleOutput = true
		r.emit(Event{
			Type:    EventOutput,
			JobID:   spec.ID,
			Line:    c.Text,
			Header:  c.Kind == stream.KindHeader,
			Problem: spec.Problem,
			Batch:   batch,
		})
	}

	code, err := r.spawn(spec, onLine, log)
	res.ExitCode = code
	if err != nil {
		res.Err = err
		diag := fmt.Sprintf("%s command failed: %s: %v", DiagnosticPrefix, strings.Join(spec.Command, " "), err)
		report.Add(diag)
		log.Warn("job failed", zap.Error(err))
		r.emit(Event{Type: EventDiagnostic, JobID: spec.ID, Line: diag, Problem: spec.Problem, Batch: batch})
	}

	if spec.TestJob {
		if err != nil {
			res.Verdict = labs.Fail
		} else {
			res.Verdict = r.resolver.AfterTest(spec.Dir)
		}
		if !res.SawVisibleOutput {
			res.RawOutput = report.Report()
		}
	}
	res.Duration = time.Since(res.StartedAt)
	log.Debug("job finished",
		zap.Int("exit", res.ExitCode),
		zap.Stringer("verdict", res.Verdict),
		zap.Bool("visible", res.SawVisibleOutput),
		zap.Duration("duration", res.Duration))
	return res
}

// spawn runs the command with stdout and stderr on one pipe and feeds every
// complete line to onLine in the order written. A non-zero exit status is
// not an error.
func (r *Runner) spawn(spec Spec, onLine func(string), log *zap.Logger) (int, error) {
	if len(spec.Command) == 0 || spec.Command[0] == "" {
		return -1, ErrNoCommand
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, &SpawnError{Command: spec.Command, Err: err}
	}

	// #nosec G204 -- commands come from the user's own configuration
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		_ = pr.Close()
		return -1, &SpawnError{Command: spec.Command, Err: err}
	}
	// The child holds its own copy; closing ours lets Read see EOF.
	_ = pw.Close()

	var rd io.Reader = pr
	if r.wrapOutput != nil {
		rd = r.wrapOutput(pr)
	}
	readErr := r.drainLines(rd, onLine, log)
	_ = pr.Close()

	code := exitStatus(cmd.Wait())
	return code, readErr
}

// drainLines reads rd in chunks until EOF and feeds every complete line to
// onLine. An unterminated tail is dropped. A read failure other than EOF is
// returned as a StreamError.
func (r *Runner) drainLines(rd io.Reader, onLine func(string), log *zap.Logger) error {
	var split stream.Splitter
	var readErr error
	buf := make([]byte, r.chunkSize)
	for {
		n, err := rd.Read(buf)
		if n > 0 {
			for line := range split.Feed(string(buf[:n])) {
				onLine(line)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = &StreamError{Err: err}
			}
			break
		}
	}
	if dropped := split.Close(); dropped > 0 {
		log.Debug("dropped unterminated output", zap.Int("bytes", dropped))
	}
	return readErr
}

func (r *Runner) finish(spec Spec, res Result, batch bool) {
	switch {
	case spec.TestJob:
		r.emit(Event{Type: EventStatus, JobID: spec.ID, Problem: spec.Problem, Verdict: res.Verdict, Batch: batch})
	case spec.Reset:
		r.emit(Event{Type: EventStatus, JobID: spec.ID, Problem: spec.Problem, Verdict: labs.Unset, Batch: batch})
	}
	if r.recorder != nil {
		if err := r.recorder.Record(res); err != nil {
			r.log.Warn("record job", zap.String("job", spec.ID), zap.Error(err))
		}
	}
	r.emit(Event{Type: EventCompleted, JobID: spec.ID, Problem: spec.Problem, Result: &res, Batch: batch})
}

func (r *Runner) rescan(root string) {
	tree, err := labs.Discover(root)
	if err != nil {
		r.log.Warn("rescan failed", zap.String("root", root), zap.Error(err))
		r.emit(Event{Type: EventDiagnostic, Line: fmt.Sprintf("%s rescan failed: %v", DiagnosticPrefix, err)})
		return
	}
	for _, dir := range tree.Unreadable {
		r.log.Warn("cannot list problems", zap.String("lab", dir))
	}
	r.emit(Event{Type: EventTable, Records: tree.Records(r.resolver)})
}

func (r *Runner) emit(e Event) {
	if e.When.IsZero() {
		e.When = time.Now()
	}
	r.post(e)
}
