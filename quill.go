// Package quill is a blog content service built with Go, Echo, and templ.
// It stores markdown posts in SQLite, renders them with a fixed goldmark
// extension set, derives excerpts and tables of contents, counts views, and
// serves both a JSON API and server-rendered pages.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and quill handles all the handler logic, middleware, and database operations.
package quill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/quill/markdown"
)

// ListPage is the data for every post-listing page: the index, archives,
// category and tag pages, and search results.
type ListPage struct {
	Title   string
	Posts   []Post
	Nav     PageNav
	Sidebar Sidebar
	Flashes []string
	Query   string
	Site    SiteConfig
}

// PostPage is the data for a post detail page.
type PostPage struct {
	Post     Post
	Rendered markdown.Rendered
	Comments []Comment
	Related  []Post
	Sidebar  Sidebar
	Site     SiteConfig
}

// PageNav describes the pagination controls of a listing page.
type PageNav struct {
	Number   int
	Pages    int
	Previous string
	Next     string
}

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	List        func(page ListPage) templ.Component
	Post        func(page PostPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central quill application. It wires together the store,
// caches, handlers, middleware, and user-provided templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Repo    Repository
	Store   *Store
	Renders *RenderCache
	Metrics *Metrics
	Logger  *slog.Logger
	Views   ViewFuncs

	limiter      *RateLimiter
	identity     IdentityResolver
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates a new quill App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	return a
}

// Init opens the store, builds caches and limiters, and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("quill: SessionSecret is required")
	}
	if err := validateStruct(a.Config); err != nil {
		return fmt.Errorf("quill: invalid config: %w", err)
	}

	if a.Repo == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("quill: init store: %w", err)
		}
		a.Store = store
		a.Repo = store
	} else if s, ok := a.Repo.(*Store); ok {
		a.Store = s
	}
	if a.identity == nil {
		a.identity = sessionIdentity{repo: a.Repo}
	}

	a.Renders = NewRenderCache(markdown.Default, a.Config.RenderCacheTTL)
	a.Metrics = newMetrics()
	a.limiter = NewRateLimiter(a.Config.ThrottleAnonRequests, a.Config.ThrottleAnonWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and starts the server. It returns when the
// server stops.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info("listening", slog.String("addr", a.Config.Addr), slog.String("url", a.Config.URL))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// User's static assets
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/highlight.css", handleHighlightCSS)

	// Feeds
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Pages
	e.GET("/", a.handleIndex)
	e.GET("/posts/:id/", a.handlePost)
	e.GET("/archive/:year/:month/", a.handleArchive)
	e.GET("/category/:id/", a.handleCategory)
	e.GET("/tag/:id/", a.handleTag)
	e.GET("/search/", a.handleSearch)

	a.setupAPIRoutes()

	if a.Config.MetricsEnabled {
		e.GET("/metrics", metricsHandler(a.Metrics))
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
