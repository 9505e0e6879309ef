// Package runner applies a font update to one or more projects.
//
// Projects are processed concurrently with a bounded errgroup. A failure in
// one project is recorded in its Result and does not stop the others; Run
// returns the joined errors of every failed project.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fontmod/internal/codemod"
	"fontmod/internal/diff"
	"fontmod/internal/fonts"
	"fontmod/internal/logging"
	"fontmod/internal/project"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome for one project.
type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is the outcome of updating one project.
type Result struct {
	Project  string
	Layout   string
	Status   Status
	Shape    codemod.AttributeShape
	Diff     *diff.FileDiff
	Unified  string
	Err      error
	Duration time.Duration
}

// Options configure a Runner.
type Options struct {
	Fonts []fonts.FontRequest
	// Layout overrides layout detection, relative to each project.
	Layout string
	// UtilsAlias is the helper module used when a project has no
	// components.json alias of its own.
	UtilsAlias  string
	MaxParallel int
	DryRun      bool
}

// Runner applies a font batch to projects. One Runner is one run; its ID
// tags every log line it writes.
type Runner struct {
	opts  Options
	runID string
}

// New creates a runner with a fresh run ID.
func New(opts Options) *Runner {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	if opts.UtilsAlias == "" {
		opts.UtilsAlias = codemod.DefaultUtilsModule
	}
	return &Runner{opts: opts, runID: uuid.NewString()}
}

// RunID returns the identifier of this run.
func (r *Runner) RunID() string { return r.runID }

// Run updates every project in dirs. Results are in the order of dirs.
// The font batch is validated before any project is touched.
func (r *Runner) Run(ctx context.Context, dirs []string) ([]Result, error) {
	if err := fonts.ValidateBatch(r.opts.Fonts); err != nil {
		return nil, err
	}
	logging.Runner("[%s] starting: projects=%d fonts=%d dry_run=%v parallel=%d",
		r.runID, len(dirs), len(r.opts.Fonts), r.opts.DryRun, r.opts.MaxParallel)
	timer := logging.StartTimer(logging.CategoryRunner, "run "+r.runID)
	audit := logging.Audit(r.runID)
	audit.Log(logging.AuditEvent{
		EventType: logging.AuditRunStart,
		Success:   true,
		Fields:    map[string]any{"projects": dirs, "fonts": len(r.opts.Fonts), "dry_run": r.opts.DryRun},
	})

	results := make([]Result, len(dirs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.MaxParallel)
	for i, dir := range dirs {
		eg.Go(func() error {
			results[i] = r.RunOne(egCtx, dir)
			return nil
		})
	}
	// Workers never return errors; failures live in results.
	_ = eg.Wait()

	var errs []error
	counts := map[Status]int{}
	for _, res := range results {
		counts[res.Status]++
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Project, res.Err))
		}
	}
	logging.Runner("[%s] done: updated=%d unchanged=%d skipped=%d failed=%d",
		r.runID, counts[StatusUpdated], counts[StatusUnchanged], counts[StatusSkipped], counts[StatusFailed])
	audit.Log(logging.AuditEvent{
		EventType:  logging.AuditRunEnd,
		Success:    len(errs) == 0,
		DurationMs: timer.Stop().Milliseconds(),
		Fields:     map[string]any{"updated": counts[StatusUpdated], "failed": counts[StatusFailed]},
	})
	return results, errors.Join(errs...)
}

// RunOne updates a single project.
func (r *Runner) RunOne(ctx context.Context, dir string) Result {
	start := time.Now()
	res := r.runOne(ctx, dir)
	res.Duration = time.Since(start)
	logging.Audit(r.runID).ProjectResult(res.Project, string(res.Status), res.Duration, res.Err)
	log := logging.Get(logging.CategoryRunner).With("run", r.runID, "project", res.Project, "status", res.Status)
	if res.Status == StatusFailed {
		log.Error("%v", res.Err)
	} else {
		log.Info("done in %v", res.Duration)
	}
	return res
}

func (r *Runner) runOne(ctx context.Context, dir string) Result {
	res := Result{Project: dir}
	fail := func(err error) Result {
		res.Status = StatusFailed
		res.Err = err
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	info, err := project.DetectWithLayout(dir, r.opts.Layout)
	if err != nil {
		return fail(err)
	}
	res.Project = info.Dir
	if info.Framework != project.FrameworkNextApp {
		logging.RunnerDebug("[%s] %s: framework %s, skipping", r.runID, info.Dir, info.Framework)
		res.Status = StatusSkipped
		return res
	}
	res.Layout = info.LayoutPath

	fi, err := os.Stat(info.LayoutPath)
	if err != nil {
		return fail(err)
	}
	src, err := os.ReadFile(info.LayoutPath)
	if err != nil {
		return fail(fmt.Errorf("read layout: %w", err))
	}

	utils := info.UtilsAlias
	if utils == "" {
		utils = r.opts.UtilsAlias
	}
	lang := codemod.LanguageForPath(info.LayoutPath)
	if !info.TSX && lang == codemod.TSX {
		lang = codemod.JavaScript
	}
	out, err := codemod.Transform(ctx, src, r.opts.Fonts, codemod.Options{Language: lang, UtilsModule: utils})
	if err != nil {
		return fail(fmt.Errorf("%s: %w", info.LayoutPath, err))
	}
	res.Shape = out.Shape

	if string(out.Output) == string(src) {
		res.Status = StatusUnchanged
		return res
	}

	rel, err := filepath.Rel(info.Dir, info.LayoutPath)
	if err != nil {
		rel = info.LayoutPath
	}
	res.Diff = diff.Compute(rel, string(src), string(out.Output))
	if res.Unified, err = diff.Unified(filepath.ToSlash(rel), string(src), string(out.Output)); err != nil {
		logging.RunnerWarn("[%s] %s: unified diff: %v", r.runID, info.Dir, err)
	}

	res.Status = StatusUpdated
	if r.opts.DryRun {
		return res
	}
	err = writeFile(info.LayoutPath, out.Output, fi.Mode().Perm())
	logging.Audit(r.runID).FileWrite(info.LayoutPath, len(out.Output), err)
	if err != nil {
		return fail(fmt.Errorf("write layout: %w", err))
	}
	return res
}

// writeFile replaces path atomically, keeping perm.
func writeFile(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// Changed reports whether any result updated (or would update) a layout.
func Changed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusUpdated {
			return true
		}
	}
	return false
}
