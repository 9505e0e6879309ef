// Package diff computes line diffs between a layout before and after a
// font update, both as structured hunks for coloured terminal rendering and
// as plain unified text for logs and --dry-run output.
package diff

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType represents the type of diff line
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one line of a hunk. LineNum is the old line for context and
// removals, the new line for additions.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk is a run of changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// FileDiff is the change set for one layout file.
type FileDiff struct {
	Path    string
	Hunks   []Hunk
	Added   int
	Removed int
}

// Empty reports whether the diff has no changes.
func (f *FileDiff) Empty() bool { return f == nil || len(f.Hunks) == 0 }

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// Compute diffs two versions of the file at path line by line.
func Compute(path, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{Path: path}
	if oldContent == newContent {
		return fd
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	// Line-level reduction avoids hunks that split inside a line.
	a, b, lines := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	ops := toOperations(diffs)
	for _, op := range ops {
		switch op.typ {
		case LineAdded:
			fd.Added++
		case LineRemoved:
			fd.Removed++
		}
	}
	fd.Hunks = group(ops, ContextLines)
	return fd
}

type operation struct {
	typ     LineType
	oldLine int // 0-based, -1 for additions
	newLine int // 0-based, -1 for removals
	content string
}

func toOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if d.Text == "" {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

// group splits ops into hunks, merging changes separated by at most
// 2*context unchanged lines.
func group(ops []operation, context int) []Hunk {
	var changes []int
	for i, op := range ops {
		if op.typ != LineContext {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return nil
	}

	var hunks []Hunk
	start := max(changes[0]-context, 0)
	end := changes[0]
	flush := func() {
		stop := min(end+context, len(ops)-1)
		h := Hunk{}
		for i := start; i <= stop; i++ {
			op := ops[i]
			num := op.oldLine + 1
			if op.typ == LineAdded {
				num = op.newLine + 1
			}
			if h.OldStart == 0 && op.oldLine >= 0 {
				h.OldStart = op.oldLine + 1
			}
			if h.NewStart == 0 && op.newLine >= 0 {
				h.NewStart = op.newLine + 1
			}
			if op.typ != LineAdded {
				h.OldCount++
			}
			if op.typ != LineRemoved {
				h.NewCount++
			}
			h.Lines = append(h.Lines, Line{LineNum: num, Content: op.content, Type: op.typ})
		}
		hunks = append(hunks, h)
	}
	for _, idx := range changes[1:] {
		if idx-end > 2*context {
			flush()
			start = idx - context
		}
		end = idx
	}
	flush()
	return hunks
}

// Unified renders a plain unified diff with a/ and b/ path prefixes. It
// returns "" when the contents are equal.
func Unified(path, oldContent, newContent string) (string, error) {
	if oldContent == newContent {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  ContextLines,
	})
}
