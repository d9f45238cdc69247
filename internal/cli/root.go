// Package cli wires configuration, logging, the job runner and the front
// ends into the playv command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dkoosis/playv/internal/config"
	"github.com/dkoosis/playv/internal/history"
	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/internal/logging"
	"github.com/dkoosis/playv/internal/session"
	"github.com/dkoosis/playv/internal/version"
	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/render"
)

// eventBuffer is the capacity of the runner's event channel.
const eventBuffer = 1024

// exitError carries a process exit code without printing an error.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return 1
}

type rootOptions struct {
	flags config.CliFlags
	out   io.Writer
	err   io.Writer
}

// NewRootCommand builds the playv command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{out: stdout, err: stderr}
	root := &cobra.Command{
		Use:   "playv",
		Short: "Run and score lab simulations",
		Long: `playV runs the build and simulation of each lab problem, shows only the
output the course exposes to students, and keeps a PASS/FAIL score board.

Without a subcommand it starts the interactive dashboard.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("playv version {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.flags.ConfigPath, "config", "", "config file (default .playv.yaml or <user config>/playv/config.yaml)")
	pf.StringVar(&opts.flags.Root, "root", "", "labs root directory (overrides LABSROOT)")
	pf.StringVar(&opts.flags.Match, "match", "", "sentinel matching: contains or exact")
	pf.BoolVar(&opts.flags.Debug, "debug", false, "enable debug logging")
	pf.BoolVar(&opts.flags.NoColor, "no-color", false, "disable colors")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		opts.flags.DebugSet = cmd.Flags().Changed("debug")
		opts.flags.NoColorSet = cmd.Flags().Changed("no-color")
	}

	root.AddCommand(
		newJobCommand(opts, "test", "Run the simulation of one problem", jobTest),
		newJobCommand(opts, "clean", "Reset one problem", jobClean),
		newJobCommand(opts, "retest", "Reset one problem and run its simulation again", jobRetest),
		newBatchCommand(opts, "test-all", "Run the simulation of every problem", batchTest),
		newBatchCommand(opts, "reset-all", "Reset every problem", batchReset),
		newResyncCommand(opts),
		newStatusCommand(opts),
		newGoldenCommand(opts),
		newHistoryCommand(opts),
	)
	return root
}

// app is everything a command needs after configuration is resolved.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	tree     labs.Tree
	resolver labs.Resolver
	commands job.Commands
	store    *history.Store
	events   chan job.Event
	runner   *job.Runner
	sess     *session.Session
	theme    render.Theme
}

type setupMode int

const (
	setupHeadless setupMode = iota
	// setupDashboard logs to a file so the terminal stays clean.
	setupDashboard
)

func setup(opts *rootOptions, mode setupMode) (*app, error) {
	cfg, err := config.Load(opts.flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("labs root: %w", err)
	}
	cfg.Root = root

	logOpts := logging.Options{Debug: cfg.Debug}
	if mode == setupDashboard {
		logOpts.Path = cfg.LogPath
	}
	log, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}
	if cfg.Source != "" {
		log.Debug("loaded config", zap.String("path", cfg.Source))
	}

	tree, err := labs.Discover(cfg.Root)
	if err == nil {
		err = tree.Validate()
	}
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	for _, dir := range tree.Unreadable {
		log.Warn("cannot list problems", zap.String("lab", dir))
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		tree:     tree,
		resolver: labs.NewResolver(cfg.Layout),
		commands: cfg.Commands(),
		events:   make(chan job.Event, eventBuffer),
		theme:    render.ThemeFor(palette(cfg.Colors), cfg.NoColor),
	}
	a.sess = session.New(tree.Records(a.resolver))

	runnerOpts := []job.Option{
		job.WithLogger(log),
		job.WithResolver(a.resolver),
		job.WithMatchMode(cfg.MatchMode()),
		job.WithChunkSize(cfg.ChunkSize),
	}
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			log.Warn("job history disabled", zap.Error(err))
		} else {
			a.store = store
			runnerOpts = append(runnerOpts, job.WithRecorder(store))
		}
	}
	a.runner = job.NewRunner(job.ChannelPoster(a.events), runnerOpts...)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close history", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func palette(c config.Colors) render.Palette {
	return render.Palette{Pass: c.Pass, Fail: c.Fail, Unset: c.Unset, Accent: c.Accent, Muted: c.Muted}
}

// findProblem resolves a lab/problem argument, or the problem containing the
// working directory when no argument is given.
func findProblem(tree labs.Tree, args []string) (labs.Problem, error) {
	if len(args) == 1 {
		p, ok := tree.Find(args[0])
		if !ok {
			return labs.Problem{}, fmt.Errorf("unknown problem %q", args[0])
		}
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return labs.Problem{}, fmt.Errorf("get working directory: %w", err)
	}
	var best labs.Problem
	for _, p := range tree.Problems() {
		if within(wd, p.Dir) && len(p.Dir) > len(best.Dir) {
			best = p
		}
	}
	if best.Dir == "" {
		return labs.Problem{}, errors.New("not inside a problem directory; pass lab/problem")
	}
	return best, nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
