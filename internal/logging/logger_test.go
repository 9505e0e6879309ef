package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLogs(t *testing.T, dir string, category Category) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".fontmod", "logs", "*_"+string(category)+".log"))
	require.NoError(t, err)
	if len(matches) == 0 {
		return ""
	}
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	return string(data)
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: true, Level: "debug"}))
	defer CloseAll()

	Config("config message")
	Project("project message")
	Codemod("codemod message")
	Runner("runner message")
	Watch("watch message")
	CloseAll()

	for cat, msg := range map[Category]string{
		CategoryConfig:  "config message",
		CategoryProject: "project message",
		CategoryCodemod: "codemod message",
		CategoryRunner:  "runner message",
		CategoryWatch:   "watch message",
	} {
		assert.Contains(t, readLogs(t, ws, cat), msg, string(cat))
	}
}

func TestProductionModeWritesNothing(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: false}))
	defer CloseAll()

	Codemod("should not be written")
	_, err := os.Stat(filepath.Join(ws, ".fontmod", "logs"))
	assert.True(t, os.IsNotExist(err), "logs dir must not exist in production mode")
}

func TestCategoryFilterAndLevel(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"watch": false},
	}))
	defer CloseAll()

	assert.False(t, IsCategoryEnabled(CategoryWatch))
	assert.True(t, IsCategoryEnabled(CategoryRunner))

	Watch("filtered")
	RunnerDebug("below level")
	Runner("kept")
	CloseAll()

	assert.Empty(t, readLogs(t, ws, CategoryWatch))
	runner := readLogs(t, ws, CategoryRunner)
	assert.Contains(t, runner, "kept")
	assert.NotContains(t, runner, "below level")
}

func TestJSONFormat(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: true, JSONFormat: true}))
	defer CloseAll()

	Get(CategoryCodemod).With("file", "app/layout.tsx").Info("rewrote %d fonts", 2)
	CloseAll()

	out := strings.TrimSpace(readLogs(t, ws, CategoryCodemod))
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON line, got %q", out)
	assert.Contains(t, out, `"msg":"rewrote 2 fonts"`)
	assert.Contains(t, out, `"file":"app/layout.tsx"`)
}

func TestConcurrentGet(t *testing.T) {
	ws := t.TempDir()
	require.NoError(t, Initialize(ws, Settings{DebugMode: true}))
	defer CloseAll()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Get(CategoryRunner).Info("worker %d", i)
		}(i)
	}
	wg.Wait()
	assert.Same(t, Get(CategoryRunner), Get(CategoryRunner))
}

func TestTimer(t *testing.T) {
	timer := StartTimer(CategoryCodemod, "op")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.StopWithThreshold(time.Hour), time.Millisecond)
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	assert.Error(t, Initialize("", Settings{}))
}
