package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/hvacquote/internal/app"
	"github.com/charlesng35/hvacquote/internal/handlers"
	"github.com/charlesng35/hvacquote/internal/middleware"
	"github.com/charlesng35/hvacquote/internal/monitoring"
	"github.com/charlesng35/hvacquote/internal/pricing"
	"github.com/charlesng35/hvacquote/internal/realtime"
	"github.com/charlesng35/hvacquote/internal/services"
	"github.com/charlesng35/hvacquote/internal/views"
)

// Dependencies carries the components the HTTP API is built on.
type Dependencies struct {
	Config     *app.Config
	Cache      *services.CacheService
	Network    handlers.NetworkState
	Views      *views.Registry
	Calculator *pricing.Calculator
	Hub        *realtime.Hub
	Monitoring *monitoring.Module
}

func (d Dependencies) validate() error {
	switch {
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.Cache == nil:
		return fmt.Errorf("cache service must be provided")
	case d.Network == nil:
		return fmt.Errorf("network monitor must be provided")
	case d.Views == nil:
		return fmt.Errorf("views registry must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	calculator := deps.Calculator
	if calculator == nil {
		calculator = pricing.NewCalculator(deps.Config.Pricing)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	if deps.Config.Monitoring.Prometheus.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.CORS(deps.Config.Server.AllowedOrigins...))

	registerHealthRoutes(r, deps.Config, deps.Monitoring)
	registerMetricsRoutes(r, deps.Config, deps.Monitoring)

	api := r.Group("/api")
	registerCacheRoutes(api, handlers.NewCacheHandler(deps.Cache, deps.Network))
	registerRecordRoutes(api, handlers.NewRecordsHandler(deps.Cache, calculator))
	registerViewRoutes(api, handlers.NewViewsHandler(deps.Views))
	registerNetworkRoutes(api, handlers.NewNetworkHandler(deps.Network))
	registerPricingRoutes(api, handlers.NewPricingHandler(calculator, deps.Cache))
	if deps.Hub != nil {
		api.GET("/realtime", handlers.NewRealtimeHandler(deps.Hub).Stream)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func metricsEndpoint(cfg *app.Config) string {
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		return "/metrics"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
