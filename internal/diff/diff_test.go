package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Equal(t *testing.T) {
	fd := Compute("app/layout.tsx", "a\nb\n", "a\nb\n")
	assert.True(t, fd.Empty())
	assert.Zero(t, fd.Added)
	assert.Zero(t, fd.Removed)
}

func TestCompute_Addition(t *testing.T) {
	oldContent := "line1\nline2\nline3\n"
	newContent := "line1\nline2\nline2.5\nline3\n"

	fd := Compute("layout.tsx", oldContent, newContent)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, 1, fd.Added)
	assert.Equal(t, 0, fd.Removed)

	var added []string
	for _, l := range fd.Hunks[0].Lines {
		if l.Type == LineAdded {
			added = append(added, l.Content)
			assert.Equal(t, 3, l.LineNum)
		}
	}
	assert.Equal(t, []string{"line2.5"}, added)
}

func TestCompute_Replacement(t *testing.T) {
	oldContent := "<html lang=\"en\">\n<body />\n"
	newContent := "<html lang=\"en\" className={inter.variable}>\n<body />\n"

	fd := Compute("layout.tsx", oldContent, newContent)
	require.Len(t, fd.Hunks, 1)
	assert.Equal(t, 1, fd.Added)
	assert.Equal(t, 1, fd.Removed)
	h := fd.Hunks[0]
	assert.Equal(t, 1, h.OldStart)
	assert.Equal(t, 1, h.NewStart)
	assert.Equal(t, 2, h.OldCount)
	assert.Equal(t, 2, h.NewCount)
}

func TestCompute_SeparateHunks(t *testing.T) {
	var oldLines []string
	for i := 0; i < 30; i++ {
		oldLines = append(oldLines, "line")
	}
	newLines := append([]string(nil), oldLines...)
	newLines[1] = "changed-top"
	newLines[27] = "changed-bottom"

	fd := Compute("f", strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")
	require.Len(t, fd.Hunks, 2)
	for _, h := range fd.Hunks {
		assert.LessOrEqual(t, len(h.Lines), 2*ContextLines+2)
	}
}

func TestUnified(t *testing.T) {
	out, err := Unified("app/layout.tsx", "a\nb\n", "a\nc\n")
	require.NoError(t, err)
	assert.Contains(t, out, "--- a/app/layout.tsx")
	assert.Contains(t, out, "+++ b/app/layout.tsx")
	assert.Contains(t, out, "-b\n")
	assert.Contains(t, out, "+c\n")

	out, err = Unified("x", "same", "same")
	require.NoError(t, err)
	assert.Empty(t, out)
}
