package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fontmod/internal/config"
	"fontmod/internal/fonts"
	"fontmod/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Font selection flags shared by apply, check and watch
	fontFlags []string
	itemFlags []string
	layout    string
	parallel  int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fontmod",
	Short: "Wire Google fonts into a Next.js root layout",
	Long: `fontmod updates the root layout of a Next.js App Router project so that
it loads fonts from next/font/google and applies their CSS variables to <html>.

The rewrite is syntax-aware and idempotent: running it twice leaves the
layout exactly as the first run did.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to fontmod.yaml")

	for _, cmd := range []*cobra.Command{applyCmd, checkCmd, watchCmd} {
		cmd.Flags().StringArrayVar(&fontFlags, "font", nil, "Font as Symbol:--variable:subset[,subset][:weight,...] (repeatable)")
		cmd.Flags().StringArrayVar(&itemFlags, "item", nil, "Path to a registry:font item JSON (repeatable)")
		cmd.Flags().StringVar(&layout, "layout", "", "Layout path relative to each project (default: detected)")
		cmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "Projects processed at once (default: runner.max_parallel)")
	}
	applyCmd.Flags().Bool("dry-run", false, "Print the diff without writing")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errChangesPending) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// loadConfig reads the config, starts category logging next to it and
// applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	workspace, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(workspace, cfg.Logging.Settings()); err != nil {
		logger.Warn("category logging disabled", zap.Error(err))
	}
	logging.BootDebug("workspace=%s verbose=%v", workspace, verbose)
	logging.Config("loaded %s: fonts=%d projects=%d", configPath, len(cfg.Fonts), len(cfg.Projects))

	if layout != "" {
		logging.ConfigDebug("--layout overrides %q", cfg.Layout)
		cfg.Layout = layout
	}
	if parallel > 0 {
		cfg.Runner.MaxParallel = parallel
	}
	reqs, err := requestedFonts()
	if err != nil {
		return nil, err
	}
	if len(reqs) > 0 {
		logging.ConfigDebug("%d fonts from flags replace %d from config", len(reqs), len(cfg.Fonts))
		cfg.Fonts = reqs
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// requestedFonts collects --item then --font requests in flag order.
func requestedFonts() ([]fonts.FontRequest, error) {
	reqs, err := fonts.LoadRegistryItems(itemFlags...)
	if err != nil {
		return nil, err
	}
	for _, f := range fontFlags {
		req, err := fonts.ParseFlag(f)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// projectDirs resolves the projects to update: arguments first, then the
// config's projects relative to the config file, then the config's directory.
func projectDirs(cfg *config.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	base := filepath.Dir(configPath)
	if len(cfg.Projects) == 0 {
		return []string{base}
	}
	dirs := make([]string, len(cfg.Projects))
	for i, p := range cfg.Projects {
		if filepath.IsAbs(p) {
			dirs[i] = p
		} else {
			dirs[i] = filepath.Join(base, p)
		}
	}
	return dirs
}
