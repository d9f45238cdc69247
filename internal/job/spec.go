package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/playv/pkg/labs"
)

// DefaultHeaderFormat renders the section header for a problem label.
const DefaultHeaderFormat = "【%s】"

// Spec describes one command to run. It is not modified after submission.
type Spec struct {
	ID      string
	Command []string
	Dir     string
	// TestJob jobs resolve the result artifact when they finish.
	TestJob bool
	// Reset jobs clear the problem's verdict when they finish.
	Reset   bool
	Problem labs.Problem
	// Header replaces the start sentinel in the visible log.
	Header string
}

// Result is the outcome of one job.
type Result struct {
	JobID   string
	Problem labs.Problem
	Command []string
	TestJob bool
	// Verdict is Pass or Fail for test jobs and Unset otherwise.
	Verdict labs.Verdict
	// RawOutput is the compacted output of a test job that never produced
	// visible output. It is empty in every other case.
	RawOutput        string
	SawVisibleOutput bool
	ExitCode         int
	Err              error
	StartedAt        time.Time
	Duration         time.Duration
}

// NoVisibleOutput reports a test job whose instrumentation never opened a
// visible span.
func (r Result) NoVisibleOutput() bool {
	return r.TestJob && !r.SawVisibleOutput
}

// Batch is a sequence of jobs run under one gate acquisition.
type Batch struct {
	Jobs []Spec
	// Rescan rediscovers the lab tree under this root after the jobs and
	// posts the rebuilt status table. Empty skips the rescan.
	Rescan string
	// Restore is posted as the final directory context when set.
	Restore *labs.Problem
}

// Commands builds job specs and helper command lines from configuration.
type Commands struct {
	BuildTool    string
	TestTarget   string
	CleanTarget  string
	HeaderFormat string
	Editor       []string
	WaveViewer   []string
	Layout       labs.Layout
}

// DefaultCommands returns the make/code/gtkwave setup.
func DefaultCommands() Commands {
	return Commands{
		BuildTool:    "make",
		TestTarget:   "test",
		CleanTarget:  "clean",
		HeaderFormat: DefaultHeaderFormat,
		Editor:       []string{"code", "-n"},
		WaveViewer:   []string{"gtkwave"},
		Layout:       labs.DefaultLayout(),
	}
}

// Header renders the section header for p.
func (c Commands) Header(p labs.Problem) string {
	format := c.HeaderFormat
	if format == "" {
		format = DefaultHeaderFormat
	}
	return fmt.Sprintf(format, p.Label())
}

// GoldenHeader renders the header printed above a golden log.
func (c Commands) GoldenHeader(p labs.Problem) string {
	return c.Header(p) + " golden"
}

// Make builds a spec running the build tool with targets in p's directory.
// Any target list containing the test target is a test job; otherwise a list
// containing the clean target is a reset.
func (c Commands) Make(p labs.Problem, targets ...string) Spec {
	argv := append([]string{c.BuildTool}, targets...)
	test := hasTarget(targets, c.TestTarget)
	return Spec{
		ID:      uuid.NewString(),
		Command: argv,
		Dir:     p.Dir,
		TestJob: test,
		Reset:   !test && hasTarget(targets, c.CleanTarget),
		Problem: p,
		Header:  c.Header(p),
	}
}

// Test runs the test target.
func (c Commands) Test(p labs.Problem) Spec { return c.Make(p, c.TestTarget) }

// Clean runs the clean target.
func (c Commands) Clean(p labs.Problem) Spec { return c.Make(p, c.CleanTarget) }

// Retest runs clean then test in one invocation.
func (c Commands) Retest(p labs.Problem) Spec { return c.Make(p, c.CleanTarget, c.TestTarget) }

// TestAll returns one test spec per problem.
func (c Commands) TestAll(probs []labs.Problem) []Spec {
	specs := make([]Spec, 0, len(probs))
	for _, p := range probs {
		specs = append(specs, c.Test(p))
	}
	return specs
}

// ResetAll returns one clean spec per problem.
func (c Commands) ResetAll(probs []labs.Problem) []Spec {
	specs := make([]Spec, 0, len(probs))
	for _, p := range probs {
		specs = append(specs, c.Clean(p))
	}
	return specs
}

// Resync builds the job that replaces every lab under publicRoot with a fresh
// copy from devRoot.
func (c Commands) Resync(devRoot, publicRoot string) (Spec, error) {
	if devRoot == "" || publicRoot == "" {
		return Spec{}, errors.New("LABS_DEV_ROOT or LABS_PUBLIC_ROOT not set")
	}
	script := fmt.Sprintf(`set -e
git -C %[1]s pull
rm -rf %[2]s/lab*
cp -r %[1]s/lab*/ %[2]s/
`, shellQuote(devRoot), shellQuote(publicRoot))
	return Spec{
		ID:      uuid.NewString(),
		Command: []string{"bash", "-c", script},
		Dir:     publicRoot,
		Header:  c.Header(labs.Problem{}),
	}, nil
}

// EditorCommand opens the problem's design directory and its Verilog files.
func (c Commands) EditorCommand(p labs.Problem) []string {
	dir := c.Layout.DesignPath(p.Dir)
	files, _ := filepath.Glob(filepath.Join(dir, "*.v"))
	sort.Strings(files)
	argv := append([]string{}, c.Editor...)
	argv = append(argv, dir)
	return append(argv, files...)
}

// WaveCommand opens the student's waveform, or the reference one when golden
// is set. It fails when the waveform file does not exist.
func (c Commands) WaveCommand(p labs.Problem, golden bool) ([]string, error) {
	path := c.Layout.WavePath(p.Dir)
	if golden {
		path = c.Layout.GoldenWavePath(p.Dir)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%s does not exist", filepath.Base(path))
	}
	argv := append([]string{}, c.WaveViewer...)
	return append(argv, path), nil
}

func hasTarget(targets []string, want string) bool {
	if want == "" {
		return false
	}
	for _, t := range targets {
		for _, f := range strings.Fields(t) {
			if f == want {
				return true
			}
		}
	}
	return false
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
