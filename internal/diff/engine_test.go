package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/preflightdev/preflight/internal/model"
)

func plainEngine() *Engine {
	return New(WithHighlighter(nil))
}

func TestDiffEmptyVsOneLineIsOneAddedHunk(t *testing.T) {
	e := plainEngine()

	fd := e.Diff("a.txt", "", []byte(""), []byte("only line"), model.FileAdded)
	require.Equal(t, model.FileAdded, fd.Status)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	require.Equal(t, 1, h.NewCount)
	require.Equal(t, 0, h.OldCount)
	require.Len(t, h.Lines, 1)
	require.Equal(t, LineAdded, h.Lines[0].Kind)
}

func TestDiffOversizeIsBinary(t *testing.T) {
	e := New(WithLimits(5, 1<<20), WithHighlighter(nil))

	old := strings.Repeat("x\n", 10)
	new := strings.Repeat("y\n", 10)

	fd := e.Diff("big.txt", "", []byte(old), []byte(new), model.FileModified)
	require.Equal(t, model.FileBinary, fd.Status)
	require.Empty(t, fd.Hunks)
}

func TestDiffNulByteIsBinary(t *testing.T) {
	e := plainEngine()

	fd := e.Diff("bin", "", []byte("a\x00b"), []byte("a\x00c"), model.FileModified)
	require.Equal(t, model.FileBinary, fd.Status)
}

func TestDiffSingleLineChangeProducesOneHunk(t *testing.T) {
	e := plainEngine()

	old := "one\ntwo\nthree\n"
	new := "one\ntwo-changed\nthree\n"

	fd := e.Diff("f.txt", "", []byte(old), []byte(new), model.FileModified)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	var removed, added int
	for _, l := range h.Lines {
		switch l.Kind {
		case LineRemoved:
			removed++
		case LineAdded:
			added++
		}
	}
	require.Equal(t, 1, removed)
	require.Equal(t, 1, added)
}

func TestDiffDistantEditsProduceSeparateHunks(t *testing.T) {
	e := plainEngine()

	var oldLines, newLines []string
	for i := 0; i < 40; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line")
	}
	newLines[0] = "changed-top"
	newLines[39] = "changed-bottom"

	old := strings.Join(oldLines, "\n") + "\n"
	new := strings.Join(newLines, "\n") + "\n"

	fd := e.Diff("f.txt", "", []byte(old), []byte(new), model.FileModified)
	require.Len(t, fd.Hunks, 2)
}

func TestDiffNearbyEditsMergeIntoOneHunk(t *testing.T) {
	e := plainEngine()

	var oldLines, newLines []string
	for i := 0; i < 20; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line")
	}
	newLines[0] = "changed-a"
	newLines[5] = "changed-b" // gap of unchanged lines between edits is < 6

	old := strings.Join(oldLines, "\n") + "\n"
	new := strings.Join(newLines, "\n") + "\n"

	fd := e.Diff("f.txt", "", []byte(old), []byte(new), model.FileModified)
	require.Len(t, fd.Hunks, 1)
}

func TestInterdiffIdenticalContentHasZeroHunks(t *testing.T) {
	e := plainEngine()

	content := []byte("a\nb\nc\n")
	fd := e.Interdiff("f.txt", content, content)
	require.Empty(t, fd.Hunks)
}

func TestInterdiffAbsentSideIsTreatedAsEmpty(t *testing.T) {
	e := plainEngine()

	fd := e.Interdiff("f.txt", nil, []byte("new content\n"))
	require.Equal(t, model.FileAdded, fd.Status)
	require.Len(t, fd.Hunks, 1)
}

func TestFileContentFromBytesNumbersLines(t *testing.T) {
	e := plainEngine()

	fc := e.FileContentFromBytes("f.txt", []byte("a\nb\nc"), SideNew)
	require.Len(t, fc.Lines, 3)
	require.Equal(t, 1, fc.Lines[0].NewLineNo)
	require.Equal(t, 3, fc.Lines[2].NewLineNo)
}

func TestSectionHeaderAttachedForGoFunc(t *testing.T) {
	e := plainEngine()

	old := "package x\n\nfunc Foo() {\n\treturn\n}\n"
	new := "package x\n\nfunc Foo() {\n\treturn nil\n}\n"

	fd := e.Diff("f.go", "", []byte(old), []byte(new), model.FileModified)
	require.NotEmpty(t, fd.Hunks)
	require.Contains(t, fd.Hunks[0].Context, "func Foo")
}
