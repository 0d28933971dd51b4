package review

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderCommentBodyProducesHTML(t *testing.T) {
	html, err := RenderCommentBody("**bold** text")
	require.NoError(t, err)
	require.Contains(t, html, "<strong>bold</strong>")
}

func TestRenderCommentBodyEmpty(t *testing.T) {
	html, err := RenderCommentBody("")
	require.NoError(t, err)
	require.Equal(t, "", html)
}
