package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fontmod/cmd/fontmod/ui"
	"fontmod/internal/config"
	"fontmod/internal/runner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errChangesPending makes check exit non-zero without printing an error.
var errChangesPending = errors.New("layouts need updating")

var applyCmd = &cobra.Command{
	Use:   "apply [dir...]",
	Short: "Update the root layout of each project",
	Long: `Adds the font imports and bindings to each project's root layout and
points the <html> className at their CSS variables.

Fonts come from --item and --font when given, otherwise from fontmod.yaml.

Examples:
  fontmod apply
  fontmod apply --font Inter:--font-sans:latin apps/web
  fontmod apply --item registry/font-inter.json --dry-run`,
	RunE: runApply,
}

var checkCmd = &cobra.Command{
	Use:   "check [dir...]",
	Short: "Report layouts that apply would change",
	Long: `Runs apply without writing and prints the diff of every layout that would
change. Exits with status 1 when any layout is out of date.`,
	RunE: runCheck,
}

func runApply(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	_, err := execute(cmd, args, dryRun)
	return err
}

func runCheck(cmd *cobra.Command, args []string) error {
	results, err := execute(cmd, args, true)
	if err != nil {
		return err
	}
	if runner.Changed(results) {
		return errChangesPending
	}
	return nil
}

// execute runs one pass over the projects and prints the results.
func execute(cmd *cobra.Command, args []string, dryRun bool) ([]runner.Result, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	r := newRunner(cfg, dryRun)
	dirs := projectDirs(cfg, args)
	logger.Debug("running", zap.String("run_id", r.RunID()), zap.Strings("projects", dirs), zap.Bool("dry_run", dryRun))

	results, runErr := r.Run(ctx, dirs)
	styles := ui.DefaultStyles()
	out := cmd.OutOrStdout()
	for _, res := range results {
		fmt.Fprintln(out, styles.RenderResult(res, dryRun))
	}
	if len(results) > 0 {
		fmt.Fprintln(out, styles.RenderSummary(r.RunID(), results))
	}
	if runErr != nil {
		logger.Error("run failed", zap.String("run_id", r.RunID()), zap.Error(runErr))
	}
	return results, runErr
}

func newRunner(cfg *config.Config, dryRun bool) *runner.Runner {
	return runner.New(runner.Options{
		Fonts:       cfg.Fonts,
		Layout:      cfg.Layout,
		UtilsAlias:  cfg.Aliases.Utils,
		MaxParallel: cfg.GetMaxParallel(),
		DryRun:      dryRun,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return ctx, stop
}
