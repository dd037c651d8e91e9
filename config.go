package quill

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	DefaultPageSize             = 5
	DefaultAPIPageSize          = 10
	DefaultMaxPageSize          = 100
	DefaultThrottleAnonRequests = 5
	DefaultThrottleAnonWindow   = time.Minute
	DefaultRenderCacheTTL       = 5 * time.Minute
)

// SiteConfig holds all configuration for a quill site.
type SiteConfig struct {
	Name        string `koanf:"name"`        // Site name (default "Blog")
	URL         string `koanf:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `koanf:"description"` // Site description for RSS and meta tags

	Addr         string `koanf:"addr"`          // Listen address (default ":3000")
	DatabasePath string `koanf:"database_path"` // SQLite path (default "data/blog.db")

	SessionSecret string `koanf:"session_secret"` // Required: session encryption secret
	CookieSecure  bool   `koanf:"cookie_secure"`  // Set true for HTTPS

	PageSize    int `koanf:"page_size"     validate:"gte=0"` // Posts per HTML page (default 5)
	APIPageSize int `koanf:"api_page_size" validate:"gte=0"` // Default API page size (default 10)
	MaxPageSize int `koanf:"max_page_size" validate:"gte=0"` // Upper bound for ?page_size (default 100)

	ThrottleAnonRequests int           `koanf:"throttle_anon_requests" validate:"gte=0"` // Anonymous API budget (default 5)
	ThrottleAnonWindow   time.Duration `koanf:"throttle_anon_window"   validate:"gte=0"` // Window for the budget (default 1m)

	RenderCacheTTL time.Duration `koanf:"render_cache_ttl" validate:"gte=0"` // Rendered body cache TTL (default 5m)
	MetricsEnabled bool          `koanf:"metrics_enabled"`                   // Expose /metrics

	LogLevel  string `koanf:"log_level"  validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json pretty"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimRight(c.URL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.APIPageSize == 0 {
		c.APIPageSize = DefaultAPIPageSize
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = DefaultMaxPageSize
	}
	if c.ThrottleAnonRequests == 0 {
		c.ThrottleAnonRequests = DefaultThrottleAnonRequests
	}
	if c.ThrottleAnonWindow == 0 {
		c.ThrottleAnonWindow = DefaultThrottleAnonWindow
	}
	if c.RenderCacheTTL == 0 {
		c.RenderCacheTTL = DefaultRenderCacheTTL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

func defaults() map[string]any {
	return map[string]any{
		"name":                   "Blog",
		"url":                    "http://localhost:3000",
		"addr":                   ":3000",
		"database_path":          "data/blog.db",
		"cookie_secure":          false,
		"page_size":              DefaultPageSize,
		"api_page_size":          DefaultAPIPageSize,
		"max_page_size":          DefaultMaxPageSize,
		"throttle_anon_requests": DefaultThrottleAnonRequests,
		"throttle_anon_window":   DefaultThrottleAnonWindow.String(),
		"render_cache_ttl":       DefaultRenderCacheTTL.String(),
		"metrics_enabled":        true,
		"log_level":              "info",
		"log_format":             "text",
	}
}

// LoadConfig loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (QUILL_ prefix, e.g. QUILL_DATABASE_PATH)
//  2. The YAML file at path, if path is set and the file exists
//  3. Default values
func LoadConfig(path string) (SiteConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return SiteConfig{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := loadFileIfExists(k, path); err != nil {
			return SiteConfig{}, fmt.Errorf("loading config %q: %w", path, err)
		}
	}

	err := k.Load(env.Provider("QUILL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "QUILL_"))
	}), nil)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg SiteConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := validateStruct(cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return k.Load(file.Provider(path), yaml.Parser())
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithRepository uses repo instead of opening the SQLite store at
// Config.DatabasePath.
func WithRepository(repo Repository) Option {
	return func(a *App) {
		a.Repo = repo
	}
}

// WithIdentity replaces the session-based identity resolver.
func WithIdentity(r IdentityResolver) Option {
	return func(a *App) {
		a.identity = r
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}
