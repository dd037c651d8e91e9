package views

import (
	"html/template"
	"strconv"
	"time"

	"github.com/eringen/quill"
)

var funcs = template.FuncMap{
	"raw":      func(s string) template.HTML { return template.HTML(s) },
	"jsonld":   func(s string) template.JS { return template.JS(s) },
	"date":     formatDate,
	"month":    quill.MonthName,
	"tagClass": TagClass,
	"joinTags": quill.JoinTags,
	"postLD":   quill.BlogPostingJsonLD,
	"siteLD":   quill.WebsiteJsonLD,
	"category": func(id int64) string { return "/category/" + strconv.FormatInt(id, 10) + "/" },
	"tag":      func(id int64) string { return "/tag/" + strconv.FormatInt(id, 10) + "/" },
	"meta":     listMeta,
	"postMeta": postMeta,
}

func formatDate(t time.Time) string {
	return t.UTC().Format("January 2, 2006")
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "tag"
	if active {
		base += " tag-active"
	}
	return base
}

func listMeta(p quill.ListPage) quill.PageMeta {
	return quill.PageMeta{
		Title:       p.Title,
		Description: p.Site.Description,
		URL:         quill.BuildURL(p.Site.URL),
		OGType:      "website",
	}
}

func postMeta(p quill.PostPage) quill.PageMeta {
	return quill.PageMeta{
		Title:       p.Post.Title,
		Description: p.Post.Excerpt,
		URL:         p.Site.URL + p.Post.Link(),
		OGType:      "article",
	}
}
