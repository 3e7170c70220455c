package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/hvacquote/internal/models"
)

// Options control monitoring module configuration.
type Options struct {
	// Namespace configures the Prometheus namespace. Defaults to "hvacquote".
	Namespace string
	// CheckTimeout bounds each health probe.
	CheckTimeout time.Duration
	// CacheStatus, when set, is sampled on every scrape to export the cache age.
	CacheStatus func() models.CacheMetadata
	// Now overrides the clock used for the cache age.
	Now func() time.Time
}

// Module coordinates Prometheus metrics and runtime health probes. Its handler serves the
// module registry together with the process-wide default registry.
type Module struct {
	registry *prometheus.Registry
	health   *HealthManager
}

// NewModule constructs a monitoring module with its own Prometheus registry.
func NewModule(opts Options) (*Module, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "hvacquote"
	}

	registry := prometheus.NewRegistry()
	if opts.CacheStatus != nil {
		if err := registry.Register(newCacheCollector(namespace, opts.CacheStatus, opts.Now)); err != nil {
			return nil, err
		}
	}

	return &Module{
		registry: registry,
		health:   NewHealthManager(opts.CheckTimeout),
	}, nil
}

// Registry exposes the underlying Prometheus registry.
func (m *Module) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an http.Handler serving Prometheus metrics.
func (m *Module) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, m.registry}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// Health exposes the health manager responsible for liveness and readiness probes.
func (m *Module) Health() *HealthManager {
	if m == nil {
		return nil
	}
	return m.health
}

// cacheCollector exports the cache age computed at scrape time.
type cacheCollector struct {
	status func() models.CacheMetadata
	now    func() time.Time
	age    *prometheus.Desc
}

func newCacheCollector(namespace string, status func() models.CacheMetadata, now func() time.Time) *cacheCollector {
	if now == nil {
		now = time.Now
	}
	return &cacheCollector{
		status: status,
		now:    now,
		age: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "age_seconds"),
			"Seconds since the cache metadata was last updated",
			[]string{"version"},
			nil,
		),
	}
}

func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.age
}

func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	meta := c.status()
	age := c.now().Sub(meta.LastUpdated).Seconds()
	if age < 0 {
		age = 0
	}
	ch <- prometheus.MustNewConstMetric(c.age, prometheus.GaugeValue, age, meta.Version)
}
