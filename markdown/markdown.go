// Package markdown turns authored post bodies into safe HTML, a table of
// contents and plain-text excerpts.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// HighlightStyle is the chroma style used for the generated stylesheet.
const HighlightStyle = "friendly"

// Rendered is the read-time representation of a post body.
type Rendered struct {
	HTML string
	// TOC holds the <li> items of the table of contents, without the
	// wrapping container. Empty when the body has no headings.
	TOC string
}

// Renderer converts markdown with a fixed extension set: tables, footnotes,
// definition lists and strikethrough, chroma code highlighting, and heading
// anchors derived from Slugify. A Renderer is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// Default is the renderer shared by the store and the HTTP layer.
var Default = New()

// New builds a Renderer. Raw HTML is never emitted; StripTags removes it
// from the source before conversion and goldmark's safe mode covers the rest.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Footnote,
			extension.DefinitionList,
			extension.Strikethrough,
			highlighting.NewHighlighting(
				highlighting.WithStyle(HighlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Renderer{md: md}
}

// Render strips raw HTML from body, converts the remainder and extracts the
// table of contents.
func (r *Renderer) Render(body string) (Rendered, error) {
	src := []byte(StripTags(body))
	pc := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return Rendered{}, fmt.Errorf("markdown render: %w", err)
	}
	return Rendered{
		HTML: buf.String(),
		TOC:  ExtractTOC(tocDocument(collectHeadings(doc, src))),
	}, nil
}

// HTML returns a templ.Component that writes already rendered markup.
func HTML(rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// WriteHighlightCSS writes the stylesheet matching the highlighter's classes.
func WriteHighlightCSS(w io.Writer) error {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	return formatter.WriteCSS(w, styles.Get(HighlightStyle))
}
