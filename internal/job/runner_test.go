//go:build unix

package job

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/stream"
)

type memRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (m *memRecorder) Record(r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
	return nil
}

func (m *memRecorder) all() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Result(nil), m.results...)
}

func newTestRunner(opts ...Option) (*Runner, chan Event) {
	ch := make(chan Event, 512)
	return NewRunner(ChannelPoster(ch), opts...), ch
}

// drain collects events until the idle event of one submission.
func drain(t *testing.T, ch <-chan Event) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case e := <-ch:
			events = append(events, e)
			if e.Type == EventBusy && !e.Busy {
				return events
			}
		case <-timeout:
			t.Fatalf("timed out waiting for idle after %d events", len(events))
			return nil
		}
	}
}

func ofType(events []Event, typ EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func lines(events []Event) []string {
	var out []string
	for _, e := range ofType(events, EventOutput) {
		out = append(out, e.Line)
	}
	return out
}

func shSpec(dir, script string) Spec {
	p := labs.Problem{Lab: "lab1", Name: "adder", Dir: dir}
	return Spec{
		ID:      "job-1",
		Command: []string{"sh", "-c", script},
		Dir:     dir,
		TestJob: true,
		Problem: p,
		Header:  "【adder】",
	}
}

const passScript = `mkdir -p sim_result
echo "compiling"
echo "##SEC_STUDENT_CAN_SEE"
echo "score: 3/3"
echo "  all cases ok"
echo "##END_STUDENT_CAN_SEE"
echo "internal trace" >&2
printf 'PASS\n' > sim_result/result.txt
`

func TestRunner_PostsVisibleLinesAndPass_When_JobWritesSentinelsAndPassArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &memRecorder{}
	r, ch := newTestRunner(WithRecorder(rec))

	require.NoError(t, r.Submit(context.Background(), shSpec(dir, passScript)))
	events := drain(t, ch)

	assert.Equal(t, []string{"【adder】", "score: 3/3", "  all cases ok"}, lines(events))
	outputs := ofType(events, EventOutput)
	assert.True(t, outputs[0].Header)
	assert.False(t, outputs[1].Header)

	status := ofType(events, EventStatus)
	require.Len(t, status, 1)
	assert.Equal(t, labs.Pass, status[0].Verdict)
	assert.Equal(t, "lab1/adder", status[0].Problem.Key())

	done := ofType(events, EventCompleted)
	require.Len(t, done, 1)
	res := done[0].Result
	require.NotNil(t, res)
	assert.True(t, res.SawVisibleOutput)
	assert.False(t, res.NoVisibleOutput())
	assert.Empty(t, res.RawOutput)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)

	require.Len(t, rec.all(), 1)
	assert.Equal(t, labs.Pass, rec.all()[0].Verdict)
	assert.False(t, r.Busy())
}

func TestRunner_ReportsCompactOutput_When_NoSentinelAndArtifactMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, ch := newTestRunner()
	script := "echo 'error: x'\necho\necho 'line 2   '\nexit 2\n"

	require.NoError(t, r.Submit(context.Background(), shSpec(dir, script)))
	events := drain(t, ch)

	assert.Empty(t, lines(events))
	res := ofType(events, EventCompleted)[0].Result
	assert.Equal(t, labs.Fail, res.Verdict)
	assert.True(t, res.NoVisibleOutput())
	assert.Equal(t, "error: x\nline 2", res.RawOutput)
	assert.Equal(t, 2, res.ExitCode)
	assert.NoError(t, res.Err, "non-zero exit is not a job error")
}

func TestRunner_DiscardsUnterminatedTail_When_OutputLacksFinalNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, ch := newTestRunner(WithChunkSize(3))
	script := `echo "##SEC_STUDENT_CAN_SEE"; echo "kept"; printf "partial"`

	require.NoError(t, r.Submit(context.Background(), shSpec(dir, script)))
	events := drain(t, ch)

	assert.Equal(t, []string{"【adder】", "kept"}, lines(events))
}

func TestRunner_EmitsExactlyOneBusyPair_When_BatchHasSeveralJobs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	write := `mkdir -p sim_result; printf pass > sim_result/result.txt`
	var specs []Spec
	for i, name := range []string{"p1", "p2", "p3"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		s := shSpec(dir, write)
		s.ID = name
		s.Problem = labs.Problem{Lab: "lab1", Name: name, Dir: dir}
		specs = append(specs, s)
		if i == 1 {
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "sim_result", "result.txt"), 0o755))
		}
	}
	home := labs.Problem{Lab: "lab1", Name: "p1", Dir: specs[0].Dir}
	r, ch := newTestRunner()

	require.NoError(t, r.SubmitBatch(context.Background(), Batch{Jobs: specs, Restore: &home}))
	events := drain(t, ch)

	busy := ofType(events, EventBusy)
	require.Len(t, busy, 2)
	assert.True(t, busy[0].Busy)
	assert.False(t, busy[1].Busy)
	assert.Equal(t, EventBusy, events[0].Type)
	assert.Equal(t, EventBusy, events[len(events)-1].Type)

	var verdicts []labs.Verdict
	for _, e := range ofType(events, EventStatus) {
		verdicts = append(verdicts, e.Verdict)
		assert.True(t, e.Batch)
	}
	assert.Equal(t, []labs.Verdict{labs.Pass, labs.Fail, labs.Pass}, verdicts)

	dirs := ofType(events, EventDirectory)
	require.Len(t, dirs, 4)
	assert.Equal(t, "p1", dirs[0].Problem.Name)
	assert.Equal(t, "p3", dirs[2].Problem.Name)
	assert.True(t, dirs[3].Restore)
	assert.Equal(t, home, dirs[3].Problem)
}

func TestRunner_PostsEventsInOrder_When_JobCompletes(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	require.NoError(t, r.Submit(context.Background(), shSpec(t.TempDir(), passScript)))
	events := drain(t, ch)

	var types []EventType
	for _, e := range events {
		if e.Type == EventOutput {
			if len(types) > 0 && types[len(types)-1] == EventOutput {
				continue
			}
		}
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventBusy, EventStarted, EventOutput, EventStatus, EventCompleted, EventBusy}, types)
}

func TestRunner_RejectsSubmission_When_GateHeld(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, ch := newTestRunner()
	slow := shSpec(dir, "sleep 0.5")

	require.NoError(t, r.Submit(context.Background(), slow))
	assert.True(t, r.Busy())
	assert.ErrorIs(t, r.Submit(context.Background(), shSpec(dir, "true")), ErrBusy)
	assert.ErrorIs(t, r.SubmitRescan(context.Background(), dir), ErrBusy)

	events := drain(t, ch)
	assert.Len(t, ofType(events, EventStarted), 1, "rejected submission must not run")
	assert.False(t, r.Busy())

	require.NoError(t, r.Submit(context.Background(), shSpec(dir, "true")))
	drain(t, ch)
}

func TestRunner_PostsDiagnosticAndFail_When_CommandCannotStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r, ch := newTestRunner()
	spec := shSpec(dir, "")
	spec.Command = []string{filepath.Join(dir, "no-such-tool"), "test"}

	require.NoError(t, r.Submit(context.Background(), spec))
	events := drain(t, ch)

	diags := ofType(events, EventDiagnostic)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Line, DiagnosticPrefix+" command failed:")
	assert.Contains(t, diags[0].Line, "no-such-tool")

	res := ofType(events, EventCompleted)[0].Result
	assert.Equal(t, labs.Fail, res.Verdict)
	var spawnErr *SpawnError
	assert.ErrorAs(t, res.Err, &spawnErr)
	assert.Contains(t, res.RawOutput, "command failed")
	assert.False(t, r.Busy())
}

func TestRunner_RejectsEmptyCommand_When_SpecHasNoProgram(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	spec := shSpec(t.TempDir(), "")
	spec.Command = nil

	require.NoError(t, r.Submit(context.Background(), spec))
	res := ofType(drain(t, ch), EventCompleted)[0].Result
	assert.ErrorIs(t, res.Err, ErrNoCommand)
}

func TestRunner_PostsUnsetStatus_When_ResetJobFinishes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sim_result"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sim_result", "result.txt"), []byte("pass"), 0o600))
	r, ch := newTestRunner()
	spec := shSpec(dir, "rm -rf sim_result")
	spec.TestJob = false
	spec.Reset = true

	require.NoError(t, r.Submit(context.Background(), spec))
	events := drain(t, ch)

	status := ofType(events, EventStatus)
	require.Len(t, status, 1)
	assert.Equal(t, labs.Unset, status[0].Verdict)
	res := ofType(events, EventCompleted)[0].Result
	assert.Equal(t, labs.Unset, res.Verdict)
	assert.Empty(t, res.RawOutput)
}

func TestRunner_SkipsRemainingJobs_When_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, ch := newTestRunner()
	dir := t.TempDir()

	require.NoError(t, r.SubmitBatch(ctx, Batch{Jobs: []Spec{shSpec(dir, "true"), shSpec(dir, "true")}}))
	events := drain(t, ch)

	assert.Empty(t, ofType(events, EventStarted))
	assert.Len(t, ofType(events, EventBusy), 2)
}

func TestRunner_RejectsEmptyBatch_When_NothingToDo(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner()
	assert.ErrorIs(t, r.SubmitBatch(context.Background(), Batch{}), ErrEmptyBatch)
	assert.False(t, r.Busy())
}

func TestRunner_PostsTable_When_RescanSubmitted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, p := range []string{"lab1/p1", "lab1/p2", "lab2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, p), 0o755))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lab1/p2/sim_result"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lab1/p2/sim_result/result.txt"), []byte("pass"), 0o600))
	r, ch := newTestRunner()

	require.NoError(t, r.SubmitRescan(context.Background(), root))
	events := drain(t, ch)

	tables := ofType(events, EventTable)
	require.Len(t, tables, 1)
	recs := tables[0].Records
	require.Len(t, recs, 3)
	assert.Equal(t, "lab1/p1", recs[0].Key())
	assert.Equal(t, labs.Unset, recs[0].Verdict)
	assert.Equal(t, labs.Pass, recs[1].Verdict)
	assert.Equal(t, "lab2", recs[2].Key())
}

func TestRunner_PostsDiagnostic_When_RescanRootMissing(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	require.NoError(t, r.SubmitRescan(context.Background(), filepath.Join(t.TempDir(), "missing")))
	events := drain(t, ch)

	assert.Empty(t, ofType(events, EventTable))
	require.Len(t, ofType(events, EventDiagnostic), 1)
}

func TestRunner_MatchesExactSentinels_When_ExactModeSelected(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner(WithMatchMode(stream.MatchExact))
	script := `echo "x ##SEC_STUDENT_CAN_SEE"; echo "a"; echo "##SEC_STUDENT_CAN_SEE"; echo "b"`

	require.NoError(t, r.Submit(context.Background(), shSpec(t.TempDir(), script)))
	assert.Equal(t, []string{"【adder】", "b"}, lines(drain(t, ch)))
}

func TestRunner_UsesDefaultHeader_When_SpecHeaderEmpty(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	spec := shSpec(t.TempDir(), `echo "##SEC_STUDENT_CAN_SEE"`)
	spec.Header = ""
	spec.Problem.Name = ""

	require.NoError(t, r.Submit(context.Background(), spec))
	assert.Equal(t, []string{"【(unnamed)】"}, lines(drain(t, ch)))
}

func TestRunner_PostsDiagnosticAndFail_When_StreamReadFails(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	r.wrapOutput = func(io.Reader) io.Reader {
		return io.MultiReader(
			strings.NewReader("##SEC_STUDENT_CAN_SEE\nscore: 3/3\n"),
			iotest.ErrReader(errors.New("pipe broke")),
		)
	}
	dir := t.TempDir()

	require.NoError(t, r.Submit(context.Background(), shSpec(dir, passScript)))
	events := drain(t, ch)

	assert.Equal(t, []string{"【adder】", "score: 3/3"}, lines(events))
	diags := ofType(events, EventDiagnostic)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Line, "[playv] command failed")
	assert.Contains(t, diags[0].Line, "pipe broke")

	status := ofType(events, EventStatus)
	require.Len(t, status, 1)
	assert.Equal(t, labs.Fail, status[0].Verdict)

	done := ofType(events, EventCompleted)
	require.Len(t, done, 1)
	var streamErr *StreamError
	assert.ErrorAs(t, done[0].Result.Err, &streamErr)
	assert.False(t, r.Busy())
}

func TestDrainLines_FeedsCompleteLinesAndReturnsStreamError_When_ReaderFails(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(WithChunkSize(3))
	var got []string
	rd := io.MultiReader(strings.NewReader("one\ntwo\nthr"), iotest.ErrReader(errors.New("boom")))

	err := r.drainLines(rd, func(l string) { got = append(got, l) }, r.log)

	assert.Equal(t, []string{"one", "two"}, got)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.EqualError(t, streamErr.Err, "boom")

	got = nil
	require.NoError(t, r.drainLines(strings.NewReader("a\nb\n"), func(l string) { got = append(got, l) }, r.log))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestLaunch_ReturnsSpawnError_When_HelperMissing(t *testing.T) {
	t.Parallel()

	r, ch := newTestRunner()
	err := r.Launch([]string{"/nonexistent/editor", "file.v"}, t.TempDir())

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Empty(t, ch, "launch failures are returned, not posted")
	assert.False(t, r.Busy(), "launch never takes the gate")
}

func TestLaunch_ReturnsPromptly_When_EventChannelIsFull(t *testing.T) {
	t.Parallel()

	ch := make(chan Event, 1)
	ch <- Event{Type: EventOutput, Line: "backlog"}
	r := NewRunner(ChannelPoster(ch))

	done := make(chan error, 1)
	go func() { done <- r.Launch([]string{"/nonexistent/viewer"}, t.TempDir()) }()

	select {
	case err := <-done:
		var spawnErr *SpawnError
		assert.ErrorAs(t, err, &spawnErr)
	case <-time.After(2 * time.Second):
		t.Fatal("Launch blocked on a full event channel")
	}
	assert.Len(t, ch, 1)
}

func TestLaunch_StartsHelper_When_ProgramExists(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner()
	require.NoError(t, r.Launch([]string{"sh", "-c", "echo opened"}, t.TempDir()))
	assert.ErrorIs(t, r.Launch(nil, ""), ErrNoCommand)
}
