package quill

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/quill/markdown"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func (a *App) handleIndex(c echo.Context) error {
	return a.renderList(c, a.Config.Name, PostFilter{}, "")
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	post, rendered, err := a.viewPost(c, id)
	if err != nil {
		return err
	}
	comments, _, err := a.Repo.ListComments(ctx, post.ID, Page{})
	if err != nil {
		return err
	}
	related, err := a.relatedPosts(ctx, post)
	if err != nil {
		return err
	}
	sidebar, err := a.sidebar(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(PostPage{
		Post:     post,
		Rendered: rendered,
		Comments: comments,
		Related:  related,
		Sidebar:  sidebar,
		Site:     a.Config,
	}))
}

func (a *App) sidebar(ctx context.Context) (Sidebar, error) {
	recent, _, err := a.Repo.ListPosts(ctx, PostFilter{}, Page{Limit: DefaultRecentPosts})
	if err != nil {
		return Sidebar{}, err
	}
	agg, err := a.Repo.PostAggregates(ctx)
	if err != nil {
		return Sidebar{}, err
	}
	return BuildSidebar(recent, agg, DefaultRecentPosts), nil
}

// relatedPosts loads the posts sharing at least one tag with post.
func (a *App) relatedPosts(ctx context.Context, post Post) ([]Post, error) {
	if len(post.Tags) == 0 {
		return nil, nil
	}
	ids := make([]int64, len(post.Tags))
	for i, t := range post.Tags {
		ids[i] = t.ID
	}
	candidates, _, err := a.Repo.ListPosts(ctx, PostFilter{TagIDs: ids}, Page{})
	if err != nil {
		return nil, err
	}
	return RelatedPosts(post, candidates), nil
}

func (a *App) handleArchive(c echo.Context) error {
	year, err1 := strconv.Atoi(c.Param("year"))
	month, err2 := strconv.Atoi(c.Param("month"))
	if err1 != nil || err2 != nil {
		return NewNotFoundError("archive", c.Param("year")+"/"+c.Param("month"))
	}
	f := PostFilter{Year: year, Month: month}
	if err := f.Validate(); err != nil {
		return NewNotFoundError("archive", c.Param("year")+"/"+c.Param("month"))
	}
	title := MonthName(month) + " " + strconv.Itoa(year)
	return a.renderList(c, title, f, "")
}

func (a *App) handleCategory(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	cat, err := a.Repo.GetCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return a.renderList(c, cat.Name, PostFilter{CategoryID: cat.ID}, "")
}

func (a *App) handleTag(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	tag, err := a.Repo.GetTag(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return a.renderList(c, tag.Name, PostFilter{TagIDs: []int64{tag.ID}}, "")
}

func (a *App) handleSearch(c echo.Context) error {
	query := c.QueryParam("query")
	if err := ValidateQuery(query); err != nil {
		var ve *ValidationError
		msg := err.Error()
		if errors.As(err, &ve) {
			msg = ve.Fields["query"]
		}
		if err := addFlash(c, msg); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return a.renderList(c, "Search: "+query, PostFilter{Query: query}, query)
}

func (a *App) renderList(c echo.Context, title string, f PostFilter, query string) error {
	ctx := c.Request().Context()
	pr, err := parsePageRequest(c, a.Config.PageSize, a.Config.PageSize)
	if err != nil {
		return errInvalidPage
	}
	posts, total, err := a.Repo.ListPosts(ctx, f, pr.window())
	if err != nil {
		return err
	}
	if err := pr.check(total); err != nil {
		return err
	}
	sidebar, err := a.sidebar(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.List(ListPage{
		Title:   title,
		Posts:   posts,
		Nav:     pageNav(c, pr, total),
		Sidebar: sidebar,
		Flashes: takeFlashes(c),
		Query:   query,
		Site:    a.Config,
	}))
}

func pageNav(c echo.Context, pr pageRequest, total int) PageNav {
	pages := (total + pr.Size - 1) / pr.Size
	if pages < 1 {
		pages = 1
	}
	nav := PageNav{Number: pr.Number, Pages: pages}
	if pr.Number > 1 {
		nav.Previous = relativePageURL(c, pr.Number-1)
	}
	if pr.hasNext(total) {
		nav.Next = relativePageURL(c, pr.Number+1)
	}
	return nav
}

func relativePageURL(c echo.Context, n int) string {
	q := c.Request().URL.Query()
	if n <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(n))
	}
	path := c.Request().URL.Path
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// viewPost locates a post, counts the view and renders its body. The
// returned post already reflects the new view count.
func (a *App) viewPost(c echo.Context, id int64) (Post, markdown.Rendered, error) {
	ctx := c.Request().Context()
	post, err := a.Repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, markdown.Rendered{}, err
	}
	if err := a.Repo.IncrementViews(ctx, post.ID); err != nil {
		return Post{}, markdown.Rendered{}, err
	}
	post.Views++
	a.Metrics.PostViews.Inc()
	rendered, err := a.Renders.Render(post)
	if err != nil {
		return Post{}, markdown.Rendered{}, err
	}
	return post, rendered, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewNotFoundError("object", raw)
	}
	return id, nil
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, _, err := a.Repo.ListPosts(c.Request().Context(), PostFilter{}, Page{})
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, _, err := a.Repo.ListPosts(c.Request().Context(), PostFilter{}, Page{Limit: feedSize})
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func handleHighlightCSS(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/css; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return markdown.WriteHighlightCSS(c.Response())
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		a.writeAPIError(c, err)
		return
	}
	if errors.Is(err, ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "error", err, "path", c.Request().URL.Path)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
