package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fontmod/internal/codemod"
	"fontmod/internal/fonts"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Aliases.Utils != codemod.DefaultUtilsModule {
		t.Errorf("expected utils alias %s, got %s", codemod.DefaultUtilsModule, cfg.Aliases.Utils)
	}
	if cfg.GetMaxParallel() != 4 {
		t.Errorf("expected MaxParallel=4, got %d", cfg.GetMaxParallel())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("FONTMOD_LAYOUT", "")
	t.Setenv("FONTMOD_UTILS_ALIAS", "")
	t.Setenv("FONTMOD_DEBUG", "")
	t.Setenv("FONTMOD_MAX_PARALLEL", "")

	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)

	cfg := DefaultConfig()
	cfg.Projects = []string{"apps/web", "apps/docs"}
	cfg.Fonts = []fonts.FontRequest{
		{ImportSymbol: "Geist", CSSVariable: "--font-sans", Subsets: []string{"latin"}},
		{ImportSymbol: "Geist_Mono", CSSVariable: "--font-mono", Subsets: []string{"latin"}, Weights: []string{"400", "700"}},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestLoad_FontsReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
fonts:
  - import: Roboto
    variable: --font-serif
    subsets: [latin]
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Fonts, 1)
	assert.Equal(t, "Roboto", cfg.Fonts[0].ImportSymbol)
	assert.Equal(t, codemod.DefaultUtilsModule, cfg.Aliases.Utils, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Fonts, cfg.Fonts)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("fonts: [\n"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FONTMOD_LAYOUT", "src/app/layout.tsx")
	t.Setenv("FONTMOD_UTILS_ALIAS", "~/lib/utils")
	t.Setenv("FONTMOD_DEBUG", "true")
	t.Setenv("FONTMOD_MAX_PARALLEL", "9")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "src/app/layout.tsx", cfg.Layout)
	assert.Equal(t, "~/lib/utils", cfg.Aliases.Utils)
	assert.True(t, cfg.Logging.DebugMode)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9, cfg.GetMaxParallel())
}

func TestLoad_DotEnv(t *testing.T) {
	for _, k := range []string{"FONTMOD_LAYOUT", "FONTMOD_UTILS_ALIAS"} {
		require.NoError(t, os.Unsetenv(k))
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	t.Setenv("FONTMOD_UTILS_ALIAS", "@/from-env")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile),
		[]byte("FONTMOD_LAYOUT=web/app/layout.tsx\nFONTMOD_UTILS_ALIAS=@/from-dotenv\n"), 0644))

	cfg, err := Load(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "web/app/layout.tsx", cfg.Layout)
	assert.Equal(t, "@/from-env", cfg.Aliases.Utils, "process environment wins over .env")
}

func TestEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("FONTMOD_DEBUG", "sometimes")
	t.Setenv("FONTMOD_MAX_PARALLEL", "-2")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.False(t, cfg.Logging.DebugMode)
	assert.Equal(t, 4, cfg.Runner.MaxParallel)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Aliases.Utils = " "
	cfg.Watch.Debounce = "soon"
	cfg.Layout = "/abs/layout.tsx"
	cfg.Fonts = append(cfg.Fonts, fonts.FontRequest{ImportSymbol: "Roboto", CSSVariable: "--font-sans", Subsets: []string{"latin"}})

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, fonts.ErrDuplicateVariable)
	assert.Contains(t, err.Error(), "aliases.utils")
	assert.Contains(t, err.Error(), "watch.debounce")
	assert.Contains(t, err.Error(), "layout must be relative")
}

func TestGetDebounce(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 300*time.Millisecond, cfg.GetDebounce())
	cfg.Watch.Debounce = "1s"
	assert.Equal(t, time.Second, cfg.GetDebounce())
	cfg.Watch.Debounce = ""
	assert.Equal(t, 300*time.Millisecond, cfg.GetDebounce())
}

func TestLoggingConfig(t *testing.T) {
	lc := LoggingConfig{DebugMode: true, Format: "json", Categories: map[string]bool{"watch": false}}
	s := lc.Settings()
	assert.True(t, s.DebugMode)
	assert.True(t, s.JSONFormat)
	assert.Equal(t, map[string]bool{"watch": false}, s.Categories)

	lc.Format = "text"
	assert.False(t, lc.Settings().JSONFormat)
}
