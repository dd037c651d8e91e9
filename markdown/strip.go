package markdown

import (
	"strings"

	"golang.org/x/net/html"
)

// StripTags removes HTML tags, comments and doctypes from s. Text between
// tags is kept verbatim (entities are not decoded) so markdown syntax
// survives; the contents of script and style elements are dropped.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	walkText(s, func(z *html.Tokenizer) {
		b.Write(z.Raw())
	})
	return b.String()
}

// PlainText returns the decoded text content of an HTML fragment with runs
// of whitespace collapsed to a single space.
func PlainText(fragment string) string {
	var b strings.Builder
	walkText(fragment, func(z *html.Tokenizer) {
		b.Write(z.Text())
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

func walkText(s string, emit func(*html.Tokenizer)) {
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return
		case html.TextToken:
			if skip == 0 {
				emit(z)
			}
		case html.StartTagToken:
			if name, _ := z.TagName(); isRawText(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isRawText(name) && skip > 0 {
				skip--
			}
		}
	}
}

func isRawText(name []byte) bool {
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}
