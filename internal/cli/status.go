package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkoosis/playv/internal/config"
	"github.com/dkoosis/playv/internal/history"
	"github.com/dkoosis/playv/pkg/render"
	"github.com/dkoosis/playv/pkg/stream"
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the score board",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := setup(opts, setupHeadless)
			if err != nil {
				return err
			}
			defer a.close()
			return a.printBoard(opts, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the score board as JSON")
	return cmd
}

func (a *app) printBoard(opts *rootOptions, asJSON bool) error {
	board := render.Board{Root: a.cfg.Root, Records: a.sess.Records(), Cursor: -1}
	var r render.Renderer = render.NewTerminal(a.theme, 0)
	if asJSON {
		r = render.NewJSON()
	}
	_, err := fmt.Fprint(opts.out, r.Render(board))
	return err
}

func newGoldenCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "golden [lab/problem]",
		Short: "Print the reference log of a problem",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := setup(opts, setupHeadless)
			if err != nil {
				return err
			}
			defer a.close()
			p, err := findProblem(a.tree, args)
			if err != nil {
				return err
			}
			path := a.cfg.Layout.GoldenLogPath(p.Dir)
			// #nosec G304 -- path is built from the discovered lab tree
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read golden log: %w", err)
			}
			term := render.NewTerminal(a.theme, 0)
			fmt.Fprintln(opts.out, term.Header(a.commands.GoldenHeader(p)))
			for _, line := range stream.GoldenLines(string(data)) {
				fmt.Fprintln(opts.out, line)
			}
			return nil
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently finished jobs",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.flags)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(opts.out, "No jobs recorded.")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				verdict := "-"
				if e.TestJob {
					verdict = e.Verdict.String()
				}
				rows = append(rows, []string{
					e.StartedAt.Local().Format(time.DateTime),
					e.Key(),
					commandLine(e.Command),
					verdict,
					strconv.Itoa(e.ExitCode),
					e.Duration.Round(10 * time.Millisecond).String(),
				})
			}
			theme := render.ThemeFor(palette(cfg.Colors), cfg.NoColor)
			fmt.Fprint(opts.out, render.NewTerminal(theme, 0).Table(
				[]string{"started", "problem", "command", "verdict", "exit", "duration"}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of jobs to show (0 for all)")
	return cmd
}

// commandLine shortens the program path for display.
func commandLine(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	short := append([]string{filepath.Base(argv[0])}, argv[1:]...)
	return strings.Join(short, " ")
}
