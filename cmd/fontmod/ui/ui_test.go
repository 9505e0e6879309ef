package ui

import (
	"errors"
	"testing"

	"fontmod/internal/diff"
	"fontmod/internal/runner"

	"github.com/stretchr/testify/assert"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	assert.True(t, DetectTheme().IsDark)

	t.Setenv("COLORFGBG", "0;15")
	t.Setenv("FONTMOD_DARK_MODE", "")
	assert.False(t, DetectTheme().IsDark)

	t.Setenv("FONTMOD_DARK_MODE", "1")
	assert.True(t, DetectTheme().IsDark)
}

func TestRenderDiff(t *testing.T) {
	s := NewStyles(LightTheme())
	fd := diff.Compute("app/layout.tsx", "<html>\n", "<html className={inter.variable}>\n")

	out := s.RenderDiff(fd)
	assert.Contains(t, out, "--- a/app/layout.tsx")
	assert.Contains(t, out, "@@ -1,1 +1,1 @@")
	assert.Contains(t, out, "-<html>")
	assert.Contains(t, out, "+<html className={inter.variable}>")

	assert.Empty(t, s.RenderDiff(diff.Compute("x", "a", "a")))
}

func TestRenderResult(t *testing.T) {
	s := NewStyles(DarkTheme())

	out := s.RenderResult(runner.Result{Project: "/p", Status: runner.StatusSkipped}, true)
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "/p")

	out = s.RenderResult(runner.Result{
		Project: "/p",
		Layout:  "/p/app/layout.tsx",
		Status:  runner.StatusUpdated,
		Diff:    diff.Compute("app/layout.tsx", "a\n", "b\n"),
	}, true)
	assert.Contains(t, out, "/p/app/layout.tsx")
	assert.Contains(t, out, "(+1 -1)")
	assert.Contains(t, out, "+b")

	out = s.RenderResult(runner.Result{Project: "/p", Status: runner.StatusFailed, Err: errors.New("boom")}, false)
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "boom")
}

func TestRenderSummary(t *testing.T) {
	s := NewStyles(LightTheme())
	out := s.RenderSummary("run-1", []runner.Result{
		{Status: runner.StatusUpdated},
		{Status: runner.StatusUpdated},
		{Status: runner.StatusFailed},
	})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2 updated, 0 unchanged, 0 skipped, 1 failed")
}
