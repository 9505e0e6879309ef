package config

import "fontmod/internal/logging"

// LoggingConfig is the logging section of fontmod.yaml. Nothing is logged
// unless DebugMode is set.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`   // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"` // json, text
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Categories map[string]bool `yaml:"categories,omitempty" json:"categories,omitempty"` // unlisted categories are on
}

// Settings converts the section into logging.Initialize settings.
func (c *LoggingConfig) Settings() logging.Settings {
	return logging.Settings{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}
