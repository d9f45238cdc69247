package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/playv/internal/job"
	"github.com/dkoosis/playv/pkg/dashboard"
	"github.com/dkoosis/playv/pkg/labs"
	"github.com/dkoosis/playv/pkg/render"
)

type jobBuilder func(c job.Commands, p labs.Problem) job.Spec

func jobTest(c job.Commands, p labs.Problem) job.Spec   { return c.Test(p) }
func jobClean(c job.Commands, p labs.Problem) job.Spec  { return c.Clean(p) }
func jobRetest(c job.Commands, p labs.Problem) job.Spec { return c.Retest(p) }

type batchBuilder func(c job.Commands, ps []labs.Problem) []job.Spec

func batchTest(c job.Commands, ps []labs.Problem) []job.Spec  { return c.TestAll(ps) }
func batchReset(c job.Commands, ps []labs.Problem) []job.Spec { return c.ResetAll(ps) }

func newJobCommand(opts *rootOptions, name, short string, build jobBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   name + " [lab/problem]",
		Short: short,
		Long: short + `.

Without an argument the problem containing the working directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(opts, setupHeadless)
			if err != nil {
				return err
			}
			defer a.close()
			p, err := findProblem(a.tree, args)
			if err != nil {
				return err
			}
			return a.runHeadless(cmd.Context(), opts, job.Batch{Jobs: []job.Spec{build(a.commands, p)}})
		},
	}
}

func newBatchCommand(opts *rootOptions, name, short string, build batchBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(opts, setupHeadless)
			if err != nil {
				return err
			}
			defer a.close()
			return a.runHeadless(cmd.Context(), opts, job.Batch{Jobs: build(a.commands, a.tree.Problems())})
		},
	}
}

func newResyncCommand(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Replace every lab with a fresh copy of the course designs",
		Long: `Pulls the development repository at LABS_DEV_ROOT, deletes every lab* folder
under LABS_PUBLIC_ROOT and copies the fresh labs in. Student work in those
folders is lost, so --yes is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to resync without --yes")
			}
			a, err := setup(opts, setupHeadless)
			if err != nil {
				return err
			}
			defer a.close()
			spec, err := a.commands.Resync(a.cfg.DevRoot, a.cfg.PublicRoot)
			if err != nil {
				return err
			}
			if err := a.runHeadless(cmd.Context(), opts, job.Batch{Jobs: []job.Spec{spec}, Rescan: a.cfg.Root}); err != nil {
				return err
			}
			return a.printBoard(opts, false)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that student work may be overwritten")
	return cmd
}

// runHeadless submits b, streams its events and maps failures to the exit code.
func (a *app) runHeadless(ctx context.Context, opts *rootOptions, b job.Batch) error {
	if err := a.runner.SubmitBatch(ctx, b); err != nil {
		return err
	}
	hopts := dashboard.HeadlessOptions{
		Out:      opts.out,
		Err:      opts.err,
		Terminal: render.NewTerminal(a.theme, 0),
	}
	if f, ok := opts.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w, h, err := term.GetSize(int(f.Fd()))
		if err == nil {
			hopts.Footer, hopts.Width, hopts.Height = true, w, h
		}
	}
	sum, err := dashboard.Drain(ctx, a.events, a.sess, hopts)
	if err != nil {
		return err
	}
	if code := sum.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

func runDashboard(ctx context.Context, opts *rootOptions) error {
	if !isTerminal(opts.out) {
		return errors.New("the dashboard needs a terminal; use a subcommand such as 'playv status'")
	}
	a, err := setup(opts, setupDashboard)
	if err != nil {
		return err
	}
	defer a.close()

	theme := dashboard.DefaultDashboardTheme()
	theme.Palette = palette(a.cfg.Colors)
	theme.NoColor = a.cfg.NoColor
	return dashboard.Run(ctx, dashboard.Options{
		Runner:     a.runner,
		Events:     a.events,
		Session:    a.sess,
		Commands:   a.commands,
		Root:       a.cfg.Root,
		DevRoot:    a.cfg.DevRoot,
		PublicRoot: a.cfg.PublicRoot,
		Theme:      theme,
		Log:        a.log,
	})
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
