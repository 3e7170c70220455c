package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/api"
	"github.com/charlesng35/hvacquote/internal/apiclient"
	"github.com/charlesng35/hvacquote/internal/app"
	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/monitoring"
	"github.com/charlesng35/hvacquote/internal/monitoring/checks"
	"github.com/charlesng35/hvacquote/internal/network"
	"github.com/charlesng35/hvacquote/internal/pricing"
	"github.com/charlesng35/hvacquote/internal/realtime"
	"github.com/charlesng35/hvacquote/internal/services"
	"github.com/charlesng35/hvacquote/internal/storage"
	"github.com/charlesng35/hvacquote/internal/views"
	"github.com/charlesng35/hvacquote/pkg/response"
)

// Upstream is a fake remote quoting API serving fixed collections.
type Upstream struct {
	mu       sync.Mutex
	server   *httptest.Server
	data     map[models.Collection]any
	failing  bool
	delay    time.Duration
	requests map[string]int
}

// SetDelay holds every collection response for d before answering.
func (u *Upstream) SetDelay(d time.Duration) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.delay = d
}

// SetCollection replaces the payload served for collection.
func (u *Upstream) SetCollection(collection models.Collection, items any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.data[collection] = items
}

// SetFailing makes every collection request fail with a 500.
func (u *Upstream) SetFailing(failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing = failing
}

// Requests returns how many times path was requested.
func (u *Upstream) Requests(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.requests[path]
}

// URL returns the base URL of the fake upstream.
func (u *Upstream) URL() string {
	return u.server.URL
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests[r.URL.Path]++
	failing := u.failing
	delay := u.delay
	var payload any = []any{}
	for _, collection := range models.Collections() {
		if r.URL.Path == "/api/"+string(collection) {
			if items, ok := u.data[collection]; ok {
				payload = items
			}
		}
	}
	u.mu.Unlock()

	if r.URL.Path == "/api/health" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// Env encapsulates a fully-wired API instance backed by an in-memory cache store and a fake
// upstream API.
type Env struct {
	T        *testing.T
	Router   *gin.Engine
	Store    *cache.MemoryStore
	Cache    *services.CacheService
	Monitor  *network.Monitor
	Views    *views.Registry
	Hub      *realtime.Hub
	Upstream *Upstream
}

// NewEnv provisions a fresh handler test environment. The network monitor never probes;
// tests drive connectivity through the API or Env.Monitor.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	upstream := &Upstream{
		data:     make(map[models.Collection]any),
		requests: make(map[string]int),
	}
	upstream.server = httptest.NewServer(http.HandlerFunc(upstream.serve))
	t.Cleanup(upstream.server.Close)

	store := cache.NewMemoryStore()
	meta, err := storage.NewMetadataStore(store, storage.DefaultVersion)
	require.NoError(t, err)
	repo, err := storage.NewRepository(store)
	require.NoError(t, err)

	client, err := apiclient.New(apiclient.Config{BaseURL: upstream.URL()})
	require.NoError(t, err)

	monitor := network.NewMonitor(nil)
	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	svc, err := services.NewCacheService(repo, meta, client, services.WithCacheListener(hub.PublishCache))
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	registry, err := views.NewRegistry(svc, monitor)
	require.NoError(t, err)
	t.Cleanup(registry.Stop)

	cfg := &app.Config{
		Pricing: pricing.DefaultRates(),
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	mod, err := monitoring.NewModule(monitoring.Options{CacheStatus: svc.CacheStatus})
	require.NoError(t, err)
	mod.Health().RegisterLiveness(checks.Network(monitor))
	mod.Health().RegisterReadiness(checks.CacheStore("memory", store, 0))
	mod.Health().RegisterReadiness(checks.Upstream(client, 0))

	router, err := api.NewRouter(api.Dependencies{
		Config:     cfg,
		Cache:      svc,
		Network:    monitor,
		Views:      registry,
		Calculator: pricing.NewCalculator(cfg.Pricing),
		Hub:        hub,
		Monitoring: mod,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		Router:   router,
		Store:    store,
		Cache:    svc,
		Monitor:  monitor,
		Views:    registry,
		Hub:      hub,
		Upstream: upstream,
	}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, JSON encoding body when set.
func (e *Env) Request(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.RequestContext(context.Background(), method, path, body)
}

// RequestContext is Request bound to ctx.
func (e *Env) RequestContext(ctx context.Context, method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader).WithContext(ctx)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
