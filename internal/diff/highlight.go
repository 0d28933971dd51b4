package diff

import (
	"path/filepath"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Highlighter attaches syntax-highlighting tokens to a single line of text.
// Rendering tokens into pixels stays out of scope; this only classifies.
type Highlighter interface {
	Highlight(path, line string) []HighlightToken
}

// ChromaHighlighter is the default Highlighter, backed by
// github.com/alecthomas/chroma/v2's lexer registry (the Go analogue of the
// original implementation's syntect-based tokenizer).
type ChromaHighlighter struct{}

// NewChromaHighlighter returns the default Highlighter.
func NewChromaHighlighter() *ChromaHighlighter {
	return &ChromaHighlighter{}
}

func (h *ChromaHighlighter) Highlight(path, line string) []HighlightToken {
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	iter, err := lexer.Tokenise(nil, line)
	if err != nil {
		return nil
	}

	var tokens []HighlightToken
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		tokens = append(tokens, HighlightToken{
			Text:      tok.Value,
			ClassName: tok.Type.String(),
		})
	}
	return tokens
}

// noopHighlighter never attaches tokens, used when highlighting is
// disabled (e.g. in tests that only care about diff structure).
type noopHighlighter struct{}

func (noopHighlighter) Highlight(string, string) []HighlightToken { return nil }
