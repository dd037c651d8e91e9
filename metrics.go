package quill

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the App's prometheus registry and domain collectors. Each
// App owns its registry so several can coexist in one process.
type Metrics struct {
	Registry  *prometheus.Registry
	PostViews prometheus.Counter
	Throttled prometheus.Counter
}

func newMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		PostViews: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_post_views_total",
			Help: "Post detail views counted",
		}),
		Throttled: factory.NewCounter(prometheus.CounterOpts{
			Name: "quill_throttled_requests_total",
			Help: "Anonymous API requests rejected by the throttle",
		}),
	}
}

func metricsHandler(m *Metrics) echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: m.Registry})
}
