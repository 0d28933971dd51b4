package review

import (
	"bytes"

	"github.com/yuin/goldmark"
)

var markdownRenderer = goldmark.New()

// RenderCommentBody converts a Comment's commonmark body into a sanitized
// HTML fragment, for transports that want rendered markdown rather than
// raw text. Turning the fragment into pixels remains the transport's job.
func RenderCommentBody(body string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(body), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
