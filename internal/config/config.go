package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fontmod/internal/codemod"
	"fontmod/internal/fonts"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "fontmod.yaml"

// Config holds all fontmod configuration.
type Config struct {
	// Project directories to update, relative to the config file.
	// Empty means the directory holding the config.
	Projects []string `yaml:"projects,omitempty"`

	// Layout overrides the detected root layout path (relative to a project).
	Layout string `yaml:"layout,omitempty"`

	Aliases AliasesConfig      `yaml:"aliases"`
	Fonts   []fonts.FontRequest `yaml:"fonts"`
	Runner  RunnerConfig       `yaml:"runner"`
	Watch   WatchConfig        `yaml:"watch"`
	Logging LoggingConfig      `yaml:"logging"`
}

// AliasesConfig mirrors the import aliases of a components.json.
type AliasesConfig struct {
	Utils string `yaml:"utils"`
}

// RunnerConfig bounds project-level concurrency.
type RunnerConfig struct {
	MaxParallel int `yaml:"max_parallel"`
}

// WatchConfig configures the layout watcher.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Aliases: AliasesConfig{Utils: codemod.DefaultUtilsModule},
		Fonts: []fonts.FontRequest{
			{ImportSymbol: "Inter", CSSVariable: "--font-sans", Subsets: []string{"latin"}},
		},
		Runner: RunnerConfig{MaxParallel: 4},
		Watch:  WatchConfig{Debounce: "300ms"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DotEnvFile is read from the config's directory before environment
// overrides are applied. Variables already set in the environment win.
const DotEnvFile = ".env"

// Load reads the config at path. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	envPath := filepath.Join(filepath.Dir(path), DotEnvFile)
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Fonts in the file replace the default font rather than merging.
		cfg.Fonts = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if layout := os.Getenv("FONTMOD_LAYOUT"); layout != "" {
		c.Layout = layout
	}
	if alias := os.Getenv("FONTMOD_UTILS_ALIAS"); alias != "" {
		c.Aliases.Utils = alias
	}
	if v := os.Getenv("FONTMOD_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
			if on {
				c.Logging.Level = "debug"
			}
		}
	}
	if v := os.Getenv("FONTMOD_MAX_PARALLEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Runner.MaxParallel = n
		}
	}
}

// GetDebounce returns the watcher debounce window.
func (c *Config) GetDebounce() time.Duration {
	if d, err := time.ParseDuration(c.Watch.Debounce); err == nil && d > 0 {
		return d
	}
	return 300 * time.Millisecond
}

// GetMaxParallel returns the runner worker bound.
func (c *Config) GetMaxParallel() int {
	if c.Runner.MaxParallel > 0 {
		return c.Runner.MaxParallel
	}
	return 1
}

// Validate checks the fields fontmod cannot recover from.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Aliases.Utils) == "" {
		errs = append(errs, fmt.Errorf("aliases.utils must not be empty"))
	}
	if c.Runner.MaxParallel < 0 {
		errs = append(errs, fmt.Errorf("runner.max_parallel must be >= 0, got %d", c.Runner.MaxParallel))
	}
	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			errs = append(errs, fmt.Errorf("watch.debounce: %w", err))
		}
	}
	if err := fonts.ValidateBatch(c.Fonts); err != nil {
		errs = append(errs, err)
	}
	if filepath.IsAbs(c.Layout) {
		errs = append(errs, fmt.Errorf("layout must be relative to the project, got %s", c.Layout))
	}
	return errors.Join(errs...)
}
