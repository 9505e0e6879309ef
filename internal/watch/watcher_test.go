package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, time.Second, func(context.Context, string) {})
	assert.Error(t, err)

	_, err = New([]string{"layout.tsx"}, time.Second, nil)
	assert.Error(t, err)
}

func TestWatcher_DebouncedChange(t *testing.T) {
	path := tempFile(t, "layout.tsx", "a")
	calls := make(chan string, 10)

	w, err := New([]string{path}, 50*time.Millisecond, func(_ context.Context, p string) { calls <- p })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("edit"), 0o644))
	}

	select {
	case got := <-calls:
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not called")
	}

	// Rapid writes collapse into one call.
	select {
	case extra := <-calls:
		t.Fatalf("unexpected second call for %s", extra)
	case <-time.After(200 * time.Millisecond):
	}

	stats := w.Stats()
	assert.GreaterOrEqual(t, stats.Events, 1)
	assert.Equal(t, 1, stats.Triggered)
	assert.Equal(t, path, stats.LastEventPath)
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	path := tempFile(t, "layout.tsx", "a")
	calls := make(chan string, 10)

	w, err := New([]string{path}, 20*time.Millisecond, func(_ context.Context, p string) { calls <- p })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "page.tsx"), []byte("x"), 0o644))

	select {
	case got := <-calls:
		t.Fatalf("handler called for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
	assert.Zero(t, w.Stats().Events)
}

func TestWatcher_RenameReplace(t *testing.T) {
	path := tempFile(t, "layout.tsx", "a")
	calls := make(chan string, 10)

	w, err := New([]string{path}, 20*time.Millisecond, func(_ context.Context, p string) { calls <- p })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte("b"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case got := <-calls:
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not called after atomic replace")
	}
}

func TestWatcher_ContextCancelStopsLoop(t *testing.T) {
	path := tempFile(t, "layout.tsx", "a")
	ctx, cancel := context.WithCancel(context.Background())

	w, err := New([]string{path}, 0, func(context.Context, string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit")
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_SetFiles(t *testing.T) {
	a := tempFile(t, "layout.tsx", "a")
	b := tempFile(t, "layout.tsx", "b")
	calls := make(chan string, 10)

	w, err := New([]string{a}, 20*time.Millisecond, func(_ context.Context, p string) { calls <- p })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	assert.Error(t, w.SetFiles(nil))
	require.NoError(t, w.SetFiles([]string{a, b}))
	require.NoError(t, os.WriteFile(b, []byte("edit"), 0o644))

	select {
	case got := <-calls:
		assert.Equal(t, b, got)
	case <-time.After(3 * time.Second):
		t.Fatal("handler not called for added file")
	}
}

func TestWatcher_SetFilesBeforeStart(t *testing.T) {
	a := tempFile(t, "layout.tsx", "a")
	w, err := New([]string{a}, time.Second, func(context.Context, string) {})
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, w.SetFiles([]string{filepath.Join(t.TempDir(), "gone", "layout.tsx")}))
	assert.False(t, w.IsWatching())
	assert.Error(t, w.Start(context.Background()), "directories are registered on Start")
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "gone", "layout.tsx")}, time.Second, func(context.Context, string) {})
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
	assert.False(t, w.IsWatching())
}
