package quill

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) setupAPIRoutes() {
	api := a.Echo.Group("/api", a.identify, readOnlyUnlessAuthenticated, a.throttleAnonymous)

	api.GET("/posts", a.apiListPosts)
	api.POST("/posts", a.apiCreatePost)
	api.GET("/posts/:id", a.apiGetPost)
	api.PUT("/posts/:id", a.apiUpdatePost)
	api.DELETE("/posts/:id", a.apiDeletePost)
	api.GET("/posts/:id/comments", a.apiListComments)

	api.GET("/archive/:year/:month", a.apiArchive)

	api.GET("/categories", a.apiListCategories)
	api.GET("/categories/:id", a.apiGetCategory)
	api.GET("/categories/:id/posts", a.apiCategoryPosts)

	api.GET("/tags", a.apiListTags)
	api.GET("/tags/:id", a.apiGetTag)
	api.GET("/tags/:id/posts", a.apiTagPosts)

	api.GET("/search", a.apiSearch)
	api.GET("/sidebar", a.apiSidebar)
}

// appliedFilters echoes the effective filter back in list envelopes.
type appliedFilters struct {
	PostFilter
	Ordering string `json:"ordering,omitempty"`
}

// bindPostFilter reads the post filter from the query string. Malformed
// values become per-field validation errors.
func bindPostFilter(c echo.Context) (PostFilter, error) {
	var f PostFilter
	var tags []string
	fields := map[string]string{}

	errs := echo.QueryParamsBinder(c).
		FailFast(false).
		Int64("category", &f.CategoryID).
		Int("created_year", &f.Year).
		Int("created_month", &f.Month).
		Strings("tags", &tags).
		BindErrors()
	for _, err := range errs {
		var be *echo.BindingError
		if errors.As(err, &be) {
			fields[be.Field] = "a valid integer is required"
		}
	}

	for _, raw := range tags {
		for _, part := range FilterEmpty(strings.Split(raw, ",")) {
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				fields["tags"] = "a valid integer is required"
				continue
			}
			f.TagIDs = append(f.TagIDs, id)
		}
	}

	order, err := ParseOrdering(c.QueryParam("ordering"))
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			for k, v := range ve.Fields {
				fields[k] = v
			}
		}
	}
	f.Order = order

	if len(fields) > 0 {
		return PostFilter{}, &ValidationError{Fields: fields}
	}
	if err := f.Validate(); err != nil {
		return PostFilter{}, err
	}
	return f, nil
}

// resolveFilter checks that the category and tags named by f exist.
func (a *App) resolveFilter(c echo.Context, f PostFilter) error {
	ctx := c.Request().Context()
	if f.CategoryID != 0 {
		if _, err := a.Repo.GetCategory(ctx, f.CategoryID); err != nil {
			return err
		}
	}
	for _, id := range f.TagIDs {
		if _, err := a.Repo.GetTag(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// listPosts runs a filtered, paginated post query and writes the list
// envelope.
func (a *App) listPosts(c echo.Context, f PostFilter) error {
	pr, err := parsePageRequest(c, a.Config.APIPageSize, a.Config.MaxPageSize)
	if err != nil {
		return err
	}
	if err := a.resolveFilter(c, f); err != nil {
		return err
	}
	posts, total, err := a.Repo.ListPosts(c.Request().Context(), f, pr.window())
	if err != nil {
		return err
	}
	if err := pr.check(total); err != nil {
		return err
	}
	results, err := Shape(ActionList, posts)
	if err != nil {
		return err
	}
	applied := appliedFilters{PostFilter: f}
	if f.Order != OrderCreatedDesc {
		applied.Ordering = f.Order.String()
	}
	return c.JSON(http.StatusOK, paginated(c, pr, total, results, applied))
}

func (a *App) apiListPosts(c echo.Context) error {
	f, err := bindPostFilter(c)
	if err != nil {
		return err
	}
	return a.listPosts(c, f)
}

func (a *App) apiGetPost(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	post, rendered, err := a.viewPost(c, id)
	if err != nil {
		return err
	}
	body, err := Shape(ActionDetail, RenderedPost{Post: post, Rendered: rendered})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, body)
}

func (a *App) apiListComments(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	if _, err := a.Repo.GetPost(ctx, id); err != nil {
		return err
	}
	pr, err := parsePageRequest(c, a.Config.APIPageSize, a.Config.MaxPageSize)
	if err != nil {
		return err
	}
	comments, total, err := a.Repo.ListComments(ctx, id, pr.window())
	if err != nil {
		return err
	}
	if err := pr.check(total); err != nil {
		return err
	}
	results, err := Shape(ActionComments, comments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginated(c, pr, total, results, nil))
}

func (a *App) apiArchive(c echo.Context) error {
	year, err1 := strconv.Atoi(c.Param("year"))
	month, err2 := strconv.Atoi(c.Param("month"))
	if err1 != nil || err2 != nil {
		return NewNotFoundError("archive", c.Param("year")+"/"+c.Param("month"))
	}
	f, err := bindPostFilter(c)
	if err != nil {
		return err
	}
	f.Year, f.Month = year, month
	if err := f.Validate(); err != nil {
		return err
	}
	return a.listPosts(c, f)
}

func (a *App) apiListCategories(c echo.Context) error {
	pr, err := parsePageRequest(c, a.Config.APIPageSize, a.Config.MaxPageSize)
	if err != nil {
		return err
	}
	cats, err := a.Repo.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	if err := pr.check(len(cats)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginated(c, pr, len(cats), categoryRefs(paginateSlice(cats, pr)), nil))
}

func (a *App) apiGetCategory(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	cat, err := a.Repo.GetCategory(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, CategoryRef(cat))
}

func (a *App) apiCategoryPosts(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	f, err := bindPostFilter(c)
	if err != nil {
		return err
	}
	f.CategoryID = id
	return a.listPosts(c, f)
}

func (a *App) apiListTags(c echo.Context) error {
	pr, err := parsePageRequest(c, a.Config.APIPageSize, a.Config.MaxPageSize)
	if err != nil {
		return err
	}
	tags, err := a.Repo.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	if err := pr.check(len(tags)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginated(c, pr, len(tags), tagRefs(paginateSlice(tags, pr)), nil))
}

func (a *App) apiGetTag(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	tag, err := a.Repo.GetTag(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TagRef(tag))
}

func (a *App) apiTagPosts(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}
	f, err := bindPostFilter(c)
	if err != nil {
		return err
	}
	f.TagIDs = []int64{id}
	return a.listPosts(c, f)
}

// apiSearch answers an empty query with an empty result set rather than an
// error, and never touches the store for it.
func (a *App) apiSearch(c echo.Context) error {
	query := c.QueryParam("query")
	if err := ValidateQuery(query); err != nil {
		pr, perr := parsePageRequest(c, a.Config.APIPageSize, a.Config.MaxPageSize)
		if perr != nil {
			return perr
		}
		return c.JSON(http.StatusOK, paginated(c, pr, 0, []PostItem{}, appliedFilters{}))
	}
	f, err := bindPostFilter(c)
	if err != nil {
		return err
	}
	f.Query = query
	return a.listPosts(c, f)
}

type sidebarCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type sidebarResponse struct {
	Recent     []PostItem     `json:"recent_posts"`
	Archives   []ArchiveMonth `json:"archives"`
	Categories []sidebarCount `json:"categories"`
	Tags       []sidebarCount `json:"tags"`
}

func (a *App) apiSidebar(c echo.Context) error {
	sb, err := a.sidebar(c.Request().Context())
	if err != nil {
		return err
	}
	resp := sidebarResponse{
		Recent:     postItems(sb.Recent),
		Archives:   append([]ArchiveMonth{}, sb.Archives...),
		Categories: make([]sidebarCount, 0, len(sb.Categories)),
		Tags:       make([]sidebarCount, 0, len(sb.Tags)),
	}
	for _, cc := range sb.Categories {
		resp.Categories = append(resp.Categories, sidebarCount{ID: cc.ID, Name: cc.Name, Count: cc.Count})
	}
	for _, tc := range sb.Tags {
		resp.Tags = append(resp.Tags, sidebarCount{ID: tc.ID, Name: tc.Name, Count: tc.Count})
	}
	return c.JSON(http.StatusOK, resp)
}

type errorResponse struct {
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// writeAPIError maps domain errors onto JSON responses.
func (a *App) writeAPIError(c echo.Context, err error) {
	code, body := apiError(err)
	if code >= http.StatusInternalServerError {
		a.Logger.Error("api error", "error", err, "path", c.Request().URL.Path)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, body)
}

func apiError(err error) (int, errorResponse) {
	var ve *ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorResponse{Detail: "invalid request", Errors: ve.Fields}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorResponse{Detail: err.Error()}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorResponse{Detail: "authentication credentials were not provided"}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Detail: "request was throttled: " + strings.TrimPrefix(err.Error(), ErrRateLimited.Error()+": ")}
	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		return he.Code, errorResponse{Detail: msg}
	default:
		return http.StatusInternalServerError, errorResponse{Detail: "internal server error"}
	}
}
