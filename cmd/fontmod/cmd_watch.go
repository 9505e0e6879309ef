package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"fontmod/cmd/fontmod/ui"
	"fontmod/internal/config"
	"fontmod/internal/project"
	"fontmod/internal/runner"
	"fontmod/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Re-apply fonts whenever a layout or fontmod.yaml changes",
	Long: `Applies once, then watches each project's root layout and the config file.
A changed layout is re-applied; a changed config re-applies every project.
Runs until interrupted.`,
	RunE: runWatch,
}

// watchSession holds the state shared between watch events.
type watchSession struct {
	mu       sync.Mutex
	cfg      *config.Config
	args     []string
	layouts  map[string]string // layout path -> project dir
	cfgPath  string
	styles   ui.Styles
	print    func(string)
	loadFunc func() (*config.Config, error)
	// setFiles replaces the watched files after a config reload.
	setFiles func([]string) error
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	cfgAbs, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	s := &watchSession{
		cfg:      cfg,
		args:     args,
		cfgPath:  cfgAbs,
		styles:   ui.DefaultStyles(),
		print:    func(line string) { fmt.Fprintln(cmd.OutOrStdout(), line) },
		loadFunc: loadConfig,
	}
	files, err := s.collect()
	if err != nil {
		return err
	}

	w, err := watch.New(files, cfg.GetDebounce(), s.handle)
	if err != nil {
		return err
	}
	s.setFiles = w.SetFiles
	s.runAll(ctx)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	logger.Info("watching", zap.Int("files", len(files)))

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	logger.Info("watch stopped", zap.Any("stats", w.Stats()))
	return nil
}

// collect detects the layouts to watch. The config file is always included.
// The session's layouts are only replaced when every project resolves.
func (s *watchSession) collect() ([]string, error) {
	layouts := map[string]string{}
	files := []string{s.cfgPath}
	for _, dir := range projectDirs(s.cfg, s.args) {
		info, err := project.DetectWithLayout(dir, s.cfg.Layout)
		if err != nil {
			return nil, err
		}
		if info.Framework != project.FrameworkNextApp {
			logger.Warn("not an App Router project, not watching", zap.String("dir", info.Dir), zap.String("framework", string(info.Framework)))
			continue
		}
		layouts[info.LayoutPath] = dir
		files = append(files, info.LayoutPath)
	}
	s.layouts = layouts
	return files, nil
}

func (s *watchSession) handle(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path == s.cfgPath {
		cfg, err := s.loadFunc()
		if err != nil {
			logger.Error("config reload failed, keeping previous", zap.Error(err))
			return
		}
		s.cfg = cfg
		files, err := s.collect()
		switch {
		case err != nil:
			logger.Error("re-detecting layouts failed, watching previous set", zap.Error(err))
		case s.setFiles != nil:
			if err := s.setFiles(files); err != nil {
				logger.Error("updating watched files failed", zap.Error(err))
			}
		}
		s.runLocked(ctx, projectDirs(cfg, s.args))
		return
	}
	if dir, ok := s.layouts[path]; ok {
		s.runLocked(ctx, []string{dir})
	}
}

func (s *watchSession) runAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runLocked(ctx, projectDirs(s.cfg, s.args))
}

func (s *watchSession) runLocked(ctx context.Context, dirs []string) []runner.Result {
	r := newRunner(s.cfg, false)
	results, err := r.Run(ctx, dirs)
	if err != nil {
		logger.Error("run failed", zap.String("run_id", r.RunID()), zap.Error(err))
	}
	for _, res := range results {
		// Self-triggered events re-run to unchanged; stay quiet for those.
		if res.Status == runner.StatusUnchanged {
			continue
		}
		s.print(s.styles.RenderResult(res, false))
	}
	return results
}
