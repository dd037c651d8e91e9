package markdown

import (
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

type heading struct {
	level int
	id    string
	text  string
}

func collectHeadings(doc ast.Node, src []byte) []heading {
	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				id = string(b)
			}
		}
		out = append(out, heading{level: h.Level, id: id, text: string(h.Text(src))})
		return ast.WalkSkipChildren, nil
	})
	return out
}

// tocDocument renders headings as a nested list inside a toc container.
// The first heading's level is the top of the tree; deeper headings nest
// under the preceding one.
func tocDocument(headings []heading) string {
	if len(headings) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<div class=\"toc\">\n<ul>\n")
	depth := []int{headings[0].level}
	for i, h := range headings {
		if i > 0 {
			if h.level > depth[len(depth)-1] {
				b.WriteString("\n<ul>\n")
				depth = append(depth, h.level)
			} else {
				b.WriteString("</li>\n")
				for len(depth) > 1 && h.level < depth[len(depth)-1] {
					depth = depth[:len(depth)-1]
					b.WriteString("</ul>\n</li>\n")
				}
			}
		}
		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(h.id))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(h.text))
		b.WriteString("</a>")
	}
	b.WriteString("</li>\n")
	for len(depth) > 1 {
		depth = depth[:len(depth)-1]
		b.WriteString("</ul>\n</li>\n")
	}
	b.WriteString("</ul>\n</div>\n")
	return b.String()
}

var reTOC = regexp.MustCompile(`(?s)<div class="toc">\s*<ul>(.*)</ul>\s*</div>`)

// ExtractTOC returns the list items of a toc container, dropping the
// container and the outermost <ul>. Markup without a toc yields "".
func ExtractTOC(markup string) string {
	m := reTOC.FindStringSubmatch(markup)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
