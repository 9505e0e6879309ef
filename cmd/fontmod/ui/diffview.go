package ui

import (
	"fmt"
	"strings"
	"time"

	"fontmod/internal/diff"
	"fontmod/internal/runner"
)

// RenderDiff renders a layout diff with coloured added and removed lines.
func (s Styles) RenderDiff(fd *diff.FileDiff) string {
	if fd.Empty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(s.Muted.Render(fmt.Sprintf("--- a/%s\n+++ b/%s", fd.Path, fd.Path)))
	sb.WriteString("\n")
	for _, h := range fd.Hunks {
		sb.WriteString(s.Hunk.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)))
		sb.WriteString("\n")
		for _, line := range h.Lines {
			sb.WriteString(s.renderLine(line))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (s Styles) renderLine(line diff.Line) string {
	switch line.Type {
	case diff.LineAdded:
		return s.Added.Render("+" + line.Content)
	case diff.LineRemoved:
		return s.Removed.Render("-" + line.Content)
	default:
		return s.Body.Render(" " + line.Content)
	}
}

// RenderResult renders the one-line status of a project, followed by its
// diff when showDiff is set.
func (s Styles) RenderResult(res runner.Result, showDiff bool) string {
	var status string
	switch res.Status {
	case runner.StatusUpdated:
		status = s.Success.Render("updated")
	case runner.StatusUnchanged:
		status = s.Muted.Render("unchanged")
	case runner.StatusSkipped:
		status = s.Warning.Render("skipped")
	case runner.StatusFailed:
		status = s.Error.Render("failed")
	}

	target := res.Layout
	if target == "" {
		target = res.Project
	}
	line := fmt.Sprintf("%-10s %s", status, target)
	if res.Diff != nil && !res.Diff.Empty() {
		line += s.Muted.Render(fmt.Sprintf(" (+%d -%d)", res.Diff.Added, res.Diff.Removed))
	}
	if res.Duration > 0 {
		line += s.Muted.Render(" " + res.Duration.Round(time.Millisecond).String())
	}
	if res.Err != nil {
		line += "\n  " + s.Error.Render(res.Err.Error())
	}
	if showDiff && res.Diff != nil {
		if d := s.RenderDiff(res.Diff); d != "" {
			line += "\n" + d
		}
	}
	return line
}

// RenderSummary renders per-status counts for a run.
func (s Styles) RenderSummary(runID string, results []runner.Result) string {
	counts := map[runner.Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	return s.Title.Render("fontmod") + " " + s.Muted.Render(runID) + "\n" +
		fmt.Sprintf("%d updated, %d unchanged, %d skipped, %d failed",
			counts[runner.StatusUpdated], counts[runner.StatusUnchanged],
			counts[runner.StatusSkipped], counts[runner.StatusFailed])
}
