// Package markdown renders uploaded markdown files for preview.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// Document is a rendered markdown file.
type Document struct {
	HTML  []byte
	Title string         // front matter "title", else the first top-level heading
	Meta  map[string]any // decoded front matter; empty when absent or invalid
}

// Renderer converts markdown to HTML. Raw HTML in the source is dropped, so
// the output is safe to show inline.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				&frontmatter.Extender{},
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
			),
		),
	}
}

func (r *Renderer) Render(source []byte) (*Document, error) {
	pctx := parser.NewContext()
	root := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(pctx))

	var buf bytes.Buffer
	err := r.md.Renderer().Render(&buf, source, root)
	if err != nil {
		return nil, err
	}

	doc := &Document{HTML: buf.Bytes(), Meta: map[string]any{}}
	if fm := frontmatter.Get(pctx); fm != nil {
		if fm.Decode(&doc.Meta) != nil {
			doc.Meta = map[string]any{}
		}
	}

	doc.Title, _ = doc.Meta["title"].(string)
	if doc.Title == "" {
		doc.Title = firstHeading(root, source)
	}

	return doc, nil
}

func firstHeading(root ast.Node, source []byte) string {
	var title string
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		title = nodeText(h, source)
		return ast.WalkStop, nil
	})
	return strings.TrimSpace(title)
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		sb.WriteString(nodeText(c, source))
	}
	return sb.String()
}
