// Package diff implements the line-oriented diff engine: edit-script
// computation via github.com/sergi/go-diff's line-mode Myers diff, hunk
// assembly with context windows and gap merging, section-header lookback,
// and binary/oversize short-circuiting.
package diff

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/preflightdev/preflight/internal/model"
)

const (
	defaultMaxLines = 100_000
	defaultMaxBytes = 5 * 1024 * 1024

	contextWindow  = 3
	mergeGapMax    = 6
	headerLookback = 50
)

// Engine computes FileDiff results from raw old/new byte content.
type Engine struct {
	maxLines    int
	maxBytes    int64
	highlighter Highlighter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits overrides the binary/oversize short-circuit thresholds.
func WithLimits(maxLines int, maxBytes int64) Option {
	return func(e *Engine) {
		e.maxLines = maxLines
		e.maxBytes = maxBytes
	}
}

// WithHighlighter overrides the default chroma-backed Highlighter. Passing
// nil disables highlight-token generation entirely.
func WithHighlighter(h Highlighter) Option {
	return func(e *Engine) {
		if h == nil {
			e.highlighter = noopHighlighter{}
			return
		}
		e.highlighter = h
	}
}

// New returns an Engine with the spec's default limits and the chroma
// highlighter enabled.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxLines:    defaultMaxLines,
		maxBytes:    defaultMaxBytes,
		highlighter: NewChromaHighlighter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) isOversizeOrBinary(old, new []byte) bool {
	if bytes.IndexByte(old, 0) >= 0 || bytes.IndexByte(new, 0) >= 0 {
		return true
	}
	if int64(len(old)) > e.maxBytes || int64(len(new)) > e.maxBytes {
		return true
	}
	if countLines(old) > e.maxLines || countLines(new) > e.maxLines {
		return true
	}
	return false
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

func stripCR(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// Diff produces the structured diff for one file, given its old-side and
// new-side content and its already-classified FileStatus (computed by
// RevisionBuilder at creation time). If the content itself triggers the
// binary/oversize short-circuit, the returned status is forced to Binary
// regardless of the status passed in.
func (e *Engine) Diff(path, oldPath string, old, new []byte, status model.FileStatus) FileDiff {
	result := FileDiff{Path: path, OldPath: oldPath, Status: status}

	if status == model.FileBinary || e.isOversizeOrBinary(old, new) {
		result.Status = model.FileBinary
		return result
	}

	result.Hunks = e.lineDiff(path, old, new)
	return result
}

// Interdiff computes the diff between two revisions' new-side contents of
// the same file, per spec: if the file exists only on one side, the
// absent side is treated as empty, classifying the result as fully Added
// or Deleted.
func (e *Engine) Interdiff(path string, from, to []byte) FileDiff {
	result := FileDiff{Path: path}

	if e.isOversizeOrBinary(from, to) {
		result.Status = model.FileBinary
		return result
	}

	switch {
	case len(from) == 0 && len(to) == 0:
		result.Status = model.FileModified
	case len(from) == 0:
		result.Status = model.FileAdded
	case len(to) == 0:
		result.Status = model.FileDeleted
	default:
		result.Status = model.FileModified
	}

	result.Hunks = e.lineDiff(path, from, to)
	return result
}

// flatLine is one line of the full old+new alignment, before grouping into
// hunks. OldNo/NewNo are 0 when the line has no counterpart on that side.
type flatLine struct {
	kind  LineKind
	text  string
	oldNo int
	newNo int
}

func (e *Engine) lineDiff(path string, old, new []byte) []Hunk {
	oldStr := stripCR(string(old))
	newStr := stripCR(string(new))

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldStr, newStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	flat := flattenDiffs(diffs)
	if len(flat) == 0 {
		return nil
	}

	hunks := assembleHunks(flat)
	e.attachContextHeaders(path, old, new, hunks)
	e.attachHighlighting(path, hunks)
	return hunks
}

// flattenDiffs walks the diffmatchpatch line-level edit script and assigns
// absolute old/new line numbers to every resulting line.
func flattenDiffs(diffs []diffmatchpatch.Diff) []flatLine {
	var flat []flatLine
	oldNo, newNo := 0, 0

	for _, d := range diffs {
		lines := splitLines(d.Text)
		for _, text := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldNo++
				newNo++
				flat = append(flat, flatLine{LineContext, text, oldNo, newNo})
			case diffmatchpatch.DiffDelete:
				oldNo++
				flat = append(flat, flatLine{LineRemoved, text, oldNo, 0})
			case diffmatchpatch.DiffInsert:
				newNo++
				flat = append(flat, flatLine{LineAdded, text, 0, newNo})
			}
		}
	}
	return flat
}

// splitLines splits text (as reconstructed by DiffCharsToLines, where every
// line but possibly the last carries a trailing "\n") into individual line
// strings with no trailing newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// assembleHunks groups flat into hunks using a 3-line context window and
// merges edit clusters separated by a gap of <= 6 unchanged lines.
func assembleHunks(flat []flatLine) []Hunk {
	var changeIdx []int
	for i, l := range flat {
		if l.kind != LineContext {
			changeIdx = append(changeIdx, i)
		}
	}
	if len(changeIdx) == 0 {
		return nil
	}

	// Cluster change indices: consecutive changes separated by a run of
	// <= mergeGapMax context lines belong to the same cluster.
	type span struct{ start, end int }
	var clusters []span
	clusterStart := changeIdx[0]
	clusterEnd := changeIdx[0]
	for i := 1; i < len(changeIdx); i++ {
		gap := changeIdx[i] - clusterEnd - 1
		if gap <= mergeGapMax {
			clusterEnd = changeIdx[i]
			continue
		}
		clusters = append(clusters, span{clusterStart, clusterEnd})
		clusterStart = changeIdx[i]
		clusterEnd = changeIdx[i]
	}
	clusters = append(clusters, span{clusterStart, clusterEnd})

	// Pad each cluster with up to contextWindow lines of context, then
	// merge any padded spans that now touch or overlap.
	padded := make([]span, len(clusters))
	for i, c := range clusters {
		start := c.start - contextWindow
		if start < 0 {
			start = 0
		}
		end := c.end + contextWindow
		if end > len(flat)-1 {
			end = len(flat) - 1
		}
		padded[i] = span{start, end}
	}

	var merged []span
	for _, s := range padded {
		if len(merged) > 0 && s.start <= merged[len(merged)-1].end+1 {
			if s.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}

	hunks := make([]Hunk, 0, len(merged))
	for _, s := range merged {
		hunks = append(hunks, buildHunk(flat, s.start, s.end))
	}
	return hunks
}

func buildHunk(flat []flatLine, start, end int) Hunk {
	var lines []Line
	oldCount, newCount := 0, 0

	prevOldNo, prevNewNo := 0, 0
	for i := 0; i < start; i++ {
		if flat[i].oldNo != 0 {
			prevOldNo = flat[i].oldNo
		}
		if flat[i].newNo != 0 {
			prevNewNo = flat[i].newNo
		}
	}

	firstOldNo, firstNewNo := 0, 0
	for i := start; i <= end; i++ {
		l := flat[i]
		if l.oldNo != 0 {
			oldCount++
			if firstOldNo == 0 {
				firstOldNo = l.oldNo
			}
		}
		if l.newNo != 0 {
			newCount++
			if firstNewNo == 0 {
				firstNewNo = l.newNo
			}
		}
		lines = append(lines, Line{
			Kind:      l.kind,
			Content:   l.text,
			OldLineNo: l.oldNo,
			NewLineNo: l.newNo,
		})
	}

	oldStart := firstOldNo
	if oldStart == 0 {
		oldStart = prevOldNo
	}
	newStart := firstNewNo
	if newStart == 0 {
		newStart = prevNewNo
	}

	return Hunk{
		OldStart: oldStart,
		OldCount: oldCount,
		NewStart: newStart,
		NewCount: newCount,
		Lines:    lines,
	}
}

func (e *Engine) attachContextHeaders(path string, old, new []byte, hunks []Hunk) {
	oldLines := splitLines(stripCR(string(old)))
	newLines := splitLines(stripCR(string(new)))

	for i := range hunks {
		// Prefer searching the new-side listing since new_start is always
		// meaningful; fall back to old-side for pure deletions.
		idx := hunks[i].NewStart - 1
		lines := newLines
		if hunks[i].NewCount == 0 {
			idx = hunks[i].OldStart - 1
			lines = oldLines
		}
		if idx < 0 || idx >= len(lines) {
			continue
		}
		hunks[i].Context = findSectionHeader(path, lines, idx, headerLookback)
	}
}

func (e *Engine) attachHighlighting(path string, hunks []Hunk) {
	if _, ok := e.highlighter.(noopHighlighter); ok {
		return
	}
	for i := range hunks {
		for j := range hunks[i].Lines {
			hunks[i].Lines[j].Highlighted = e.highlighter.Highlight(path, hunks[i].Lines[j].Content)
		}
	}
}

// FileContentFromBytes splits content into a numbered Line listing for
// file_content, attaching highlight tokens when side is populated with
// real source text.
func (e *Engine) FileContentFromBytes(path string, content []byte, side Side) FileContent {
	lines := splitLines(stripCR(string(content)))
	out := make([]Line, 0, len(lines))
	for i, text := range lines {
		l := Line{Kind: LineContext, Content: text}
		if side == SideOld {
			l.OldLineNo = i + 1
		} else {
			l.NewLineNo = i + 1
		}
		l.Highlighted = e.highlighter.Highlight(path, text)
		out = append(out, l)
	}
	return FileContent{Path: path, Lines: out}
}
