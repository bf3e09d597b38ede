package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	doc, err := NewRenderer().Render([]byte("# Notes\n\n- one\n- two\n"))
	require.NoError(t, err)

	assert.Contains(t, string(doc.HTML), "<h1>Notes</h1>")
	assert.Contains(t, string(doc.HTML), "<li>one</li>")
	assert.Equal(t, "Notes", doc.Title)
	assert.Empty(t, doc.Meta)
}

func TestRender_DropsRawHTML(t *testing.T) {
	doc, err := NewRenderer().Render([]byte("hi <script>alert(1)</script>\n"))
	require.NoError(t, err)

	assert.NotContains(t, string(doc.HTML), "<script>")
}

func TestRender_FrontMatterTitleWins(t *testing.T) {
	src := "---\ntitle: Trip plan\n---\n\n# Packing\n\nPack **light**.\n"

	doc, err := NewRenderer().Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, "Trip plan", doc.Title)
	assert.Contains(t, string(doc.HTML), "<strong>light</strong>")
	assert.NotContains(t, string(doc.HTML), "title:")
}

func TestRender_HeadingWithInlineMarkup(t *testing.T) {
	doc, err := NewRenderer().Render([]byte("intro\n\n## Sub\n\n# The *real* title\n"))
	require.NoError(t, err)

	assert.Equal(t, "The real title", doc.Title)
}

func TestRender_NoTitle(t *testing.T) {
	doc, err := NewRenderer().Render([]byte("just text"))
	require.NoError(t, err)

	assert.Empty(t, doc.Title)
	assert.Contains(t, string(doc.HTML), "<p>just text</p>")
}
