package markdown

import (
	"strings"
	"unicode"
)

// ExcerptLength is the number of characters (runes) kept in a derived excerpt.
const ExcerptLength = 54

// Excerpt returns explicit when it is non-empty. Otherwise it renders body
// with the Default renderer, drops all markup and keeps the first
// ExcerptLength runes of the remaining text. An empty body yields "".
func Excerpt(body, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if strings.TrimSpace(body) == "" {
		return ""
	}
	plain := ""
	if r, err := Default.Render(body); err == nil {
		plain = PlainText(r.HTML)
	}
	// Bodies made only of markdown markup (a lone "---", an image) render
	// to no text; fall back to the tag-stripped source. A body that is
	// nothing but HTML tags has no text at all and yields "".
	if plain == "" {
		plain = strings.Join(strings.Fields(StripTags(body)), " ")
	}
	return truncate(plain, ExcerptLength)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace)
}
