package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"golang.org/x/text/unicode/norm"
)

// Slugify converts heading text into an anchor id. Letters and digits of any
// script are kept, so "标题" stays "标题" and "Hello, World" becomes
// "hello-world". The result is deterministic for identical input.
func Slugify(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	var b strings.Builder
	sep := false
	for _, r := range s {
		switch {
		case r == '-' || unicode.IsSpace(r):
			sep = b.Len() > 0
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			if sep {
				b.WriteByte('-')
				sep = false
			}
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_")
}

var reNumbered = regexp.MustCompile(`^(.*)_([0-9]+)$`)

// headingIDs implements parser.IDs. Repeated anchors get a numeric suffix:
// "intro", "intro_1", "intro_2".
type headingIDs struct {
	used map[string]struct{}
}

func newHeadingIDs() *headingIDs {
	return &headingIDs{used: make(map[string]struct{})}
}

func (ids *headingIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	id := Slugify(string(value))
	for {
		if _, taken := ids.used[id]; id != "" && !taken {
			break
		}
		id = nextID(id)
	}
	ids.used[id] = struct{}{}
	return []byte(id)
}

func (ids *headingIDs) Put(value []byte) {
	ids.used[string(value)] = struct{}{}
}

func nextID(id string) string {
	if m := reNumbered.FindStringSubmatch(id); m != nil {
		n, _ := strconv.Atoi(m[2])
		return m[1] + "_" + strconv.Itoa(n+1)
	}
	return id + "_1"
}
