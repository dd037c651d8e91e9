// Package views is the default quill theme. Sites that want their own
// markup pass their own quill.ViewFuncs instead.
package views

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/eringen/quill"
)

const layout = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<link rel="canonical" href="{{.URL}}">
<meta property="og:title" content="{{.Title}}">
<meta property="og:type" content="{{.OGType}}">
<meta property="og:url" content="{{.URL}}">
<link rel="stylesheet" href="/highlight.css">
<link rel="alternate" type="application/rss+xml" href="/feed.xml">
</head>
<body>
{{end}}

{{define "sidebar"}}<aside class="sidebar">
<section><h3>Recent posts</h3><ul>
{{range .Recent}}<li><a href="{{.Link}}">{{.Title}}</a></li>{{end}}
</ul></section>
<section><h3>Archives</h3><ul>
{{range .Archives}}<li><a href="{{.Link}}">{{month .Month}} {{.Year}}</a> ({{.Count}})</li>{{end}}
</ul></section>
<section><h3>Categories</h3><ul>
{{range .Categories}}<li><a href="{{category .ID}}">{{.Name}}</a> ({{.Count}})</li>{{end}}
</ul></section>
<section><h3>Tags</h3><ul>
{{range .Tags}}<li><a class="{{tagClass false}}" href="{{tag .ID}}">{{.Name}}</a> ({{.Count}})</li>{{end}}
</ul></section>
</aside>
{{end}}

{{define "foot"}}<footer><form action="/search/" method="get"><input name="query" type="search"><button>Search</button></form></footer>
</body>
</html>
{{end}}

{{define "list"}}{{template "head" (meta .)}}
<header><a href="/">{{.Site.Name}}</a></header>
{{range .Flashes}}<p class="flash">{{.}}</p>{{end}}
<main>
<h1>{{.Title}}</h1>
{{range .Posts}}<article>
<h2><a href="{{.Link}}">{{.Title}}</a></h2>
<p class="meta"><a href="{{category .Category.ID}}">{{.Category.Name}}</a> · {{date .CreatedAt}} · {{.Author.Username}} · {{.Views}} views</p>
<p>{{.Excerpt}}</p>
</article>
{{else}}<p>No posts yet.</p>
{{end}}
<nav class="pagination">
{{if .Nav.Previous}}<a href="{{.Nav.Previous}}">Previous</a>{{end}}
<span>Page {{.Nav.Number}} of {{.Nav.Pages}}</span>
{{if .Nav.Next}}<a href="{{.Nav.Next}}">Next</a>{{end}}
</nav>
</main>
{{template "sidebar" .Sidebar}}
<script type="application/ld+json">{{jsonld (siteLD .Site)}}</script>
{{template "foot"}}{{end}}

{{define "post"}}{{template "head" (postMeta .)}}
<header><a href="/">{{.Site.Name}}</a></header>
<main>
<article>
<h1>{{.Post.Title}}</h1>
<p class="meta"><a href="{{category .Post.Category.ID}}">{{.Post.Category.Name}}</a> · {{date .Post.CreatedAt}} · {{.Post.Author.Username}} · {{.Post.Views}} views</p>
{{if .Rendered.TOC}}<nav class="toc"><ul>{{raw .Rendered.TOC}}</ul></nav>{{end}}
<div class="content">{{raw .Rendered.HTML}}</div>
{{if .Post.Tags}}<p class="tags">{{range .Post.Tags}}<a class="{{tagClass false}}" href="{{tag .ID}}">{{.Name}}</a> {{end}}</p>{{end}}
</article>
{{if .Related}}<section><h3>Related</h3><ul>{{range .Related}}<li><a href="{{.Link}}">{{.Title}}</a></li>{{end}}</ul></section>{{end}}
<section class="comments"><h3>Comments</h3>
{{range .Comments}}<div class="comment"><strong>{{if .Author}}{{.Author.Username}}{{else}}{{.Name}}{{end}}</strong> <time>{{date .CreatedAt}}</time><p>{{.Text}}</p></div>
{{else}}<p>No comments yet.</p>
{{end}}
</section>
</main>
{{template "sidebar" .Sidebar}}
<script type="application/ld+json">{{jsonld (postLD .Post .Site)}}</script>
{{template "foot"}}{{end}}

{{define "notfound"}}{{template "head" .}}<main><h1>Not found</h1><p>The page you are looking for does not exist.</p><a href="/">Home</a></main>{{template "foot"}}{{end}}

{{define "servererror"}}{{template "head" .}}<main><h1>Something went wrong</h1><p>Please try again later.</p></main>{{template "foot"}}{{end}}
`

var tmpl = template.Must(template.New("quill").Funcs(funcs).Parse(layout))

// Default returns the default theme's view functions.
func Default() quill.ViewFuncs {
	return quill.ViewFuncs{
		List: func(page quill.ListPage) templ.Component {
			return templ.FromGoHTML(tmpl.Lookup("list"), page)
		},
		Post: func(page quill.PostPage) templ.Component {
			return templ.FromGoHTML(tmpl.Lookup("post"), page)
		},
		NotFound: func() templ.Component {
			return templ.FromGoHTML(tmpl.Lookup("notfound"), quill.PageMeta{Title: "Not found", OGType: "website"})
		},
		ServerError: func() templ.Component {
			return templ.FromGoHTML(tmpl.Lookup("servererror"), quill.PageMeta{Title: "Server error", OGType: "website"})
		},
	}
}
