package diff

import "github.com/preflightdev/preflight/internal/model"

// LineKind classifies a single line within a Hunk.
type LineKind string

const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineRemoved LineKind = "removed"
)

// HighlightToken is a pre-rendered syntax-highlighting fragment. Turning
// tokens into pixels is a transport/UI concern; the engine only produces
// the classification.
type HighlightToken struct {
	Text      string
	ClassName string
}

// Line is one line of a Hunk or of a FileContent listing.
type Line struct {
	Kind        LineKind
	Content     string
	OldLineNo   int // 0 means absent
	NewLineNo   int // 0 means absent
	Highlighted []HighlightToken
}

// Hunk is a contiguous group of changed lines with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Context  string // nearest preceding section header, empty if none
	Lines    []Line
}

// FileDiff is the structured diff result for one file at one point in its
// history (a single revision's diff, or the interdiff between two).
type FileDiff struct {
	Path    string
	OldPath string
	Status  model.FileStatus
	Hunks   []Hunk
}

// FileContent is the numbered line listing used by file_content, with
// optional highlight tokens attached per line.
type FileContent struct {
	Path  string
	Lines []Line
}

// Side selects which half of a diff file_content should render.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)
