package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/hvacquote/internal/api"
	"github.com/charlesng35/hvacquote/internal/apiclient"
	"github.com/charlesng35/hvacquote/internal/app"
	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/database"
	"github.com/charlesng35/hvacquote/internal/monitoring"
	"github.com/charlesng35/hvacquote/internal/monitoring/checks"
	"github.com/charlesng35/hvacquote/internal/network"
	"github.com/charlesng35/hvacquote/internal/pricing"
	"github.com/charlesng35/hvacquote/internal/realtime"
	"github.com/charlesng35/hvacquote/internal/services"
	"github.com/charlesng35/hvacquote/internal/storage"
	"github.com/charlesng35/hvacquote/internal/views"
	"github.com/charlesng35/hvacquote/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB         *gorm.DB
	Store      cache.Store
	Redis      *cache.RedisStore
	Client     *apiclient.Client
	Monitor    *network.Monitor
	Hub        *realtime.Hub
	Forwarder  *realtime.Forwarder
	Cache      *services.CacheService
	Views      *views.Registry
	Monitoring *monitoring.Module
	Router     *gin.Engine
}

// bootstrapRuntime initialises the cache store, the upstream client, the network monitor,
// the cache service and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			_ = stack.Shutdown(context.Background(), log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	backend := cfg.Cache.NormalizedBackend()
	if stack.Store, err = stack.openStore(ctx, cfg, backend, log); err != nil {
		return nil, err
	}

	meta, err := storage.NewMetadataStore(stack.Store, cfg.Cache.Version)
	if err != nil {
		return nil, fmt.Errorf("initialise cache metadata: %w", err)
	}
	repo, err := storage.NewRepository(stack.Store)
	if err != nil {
		return nil, fmt.Errorf("initialise repository: %w", err)
	}

	stack.Client, err = apiclient.New(cfg.Upstream.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise upstream client: %w", err)
	}

	stack.Monitor = network.NewMonitor(stack.Client,
		network.WithInterval(cfg.Network.ProbeInterval),
		network.WithProbeTimeout(cfg.Network.ProbeTimeout),
		network.WithInitialOnline(cfg.Network.AssumeOnline),
	)

	stack.Hub = realtime.NewHub()
	stack.Cache, err = services.NewCacheService(repo, meta, stack.Client, services.WithCacheListener(stack.Hub.PublishCache))
	if err != nil {
		return nil, fmt.Errorf("initialise cache service: %w", err)
	}
	stack.Hub.SetSnapshot(realtime.StreamCache, func() any { return stack.Cache.CacheStatus() })
	stack.Forwarder = stack.Hub.ForwardNetwork(ctx, stack.Monitor)

	stack.Views, err = views.NewRegistry(stack.Cache, stack.Monitor)
	if err != nil {
		return nil, fmt.Errorf("initialise views: %w", err)
	}

	stack.Monitoring, err = monitoring.NewModule(monitoring.Options{CacheStatus: stack.Cache.CacheStatus})
	if err != nil {
		return nil, fmt.Errorf("initialise monitoring: %w", err)
	}
	health := stack.Monitoring.Health()
	health.RegisterLiveness(checks.Network(stack.Monitor))
	if stack.DB != nil {
		health.RegisterReadiness(checks.Database(stack.DB, 0))
	}
	health.RegisterReadiness(checks.CacheStore(backend, stack.Store, 0))
	health.RegisterReadiness(checks.Upstream(stack.Client, cfg.Network.ProbeTimeout))

	stack.Router, err = api.NewRouter(api.Dependencies{
		Config:     cfg,
		Cache:      stack.Cache,
		Network:    stack.Monitor,
		Views:      stack.Views,
		Calculator: pricing.NewCalculator(cfg.Pricing),
		Hub:        stack.Hub,
		Monitoring: stack.Monitoring,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	if err := stack.Monitor.Start(); err != nil {
		return nil, fmt.Errorf("start network monitor: %w", err)
	}
	stack.Views.Start(ctx)

	success = true
	return stack, nil
}

func (s *runtimeStack) openStore(ctx context.Context, cfg *app.Config, backend string, log *zap.Logger) (cache.Store, error) {
	switch backend {
	case app.BackendMemory:
		log.Warn("using in-memory cache; cached data is lost on restart")
		return cache.NewMemoryStore(), nil
	case app.BackendRedis:
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisClientConfig())
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.Redis = store
		log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		return store, nil
	default:
		db, err := initialiseDatabase(cfg)
		if err != nil {
			return nil, err
		}
		s.DB = db
		return cache.NewDatabaseStore(db), nil
	}
}

// Shutdown stops background work and releases resources in reverse start order.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) error {
	if s == nil {
		return nil
	}

	var errs error
	if s.Monitor != nil {
		select {
		case <-s.Monitor.Stop().Done():
		case <-ctx.Done():
			errs = multierr.Append(errs, fmt.Errorf("stop network monitor: %w", ctx.Err()))
		}
	}
	if s.Views != nil {
		s.Views.Stop()
	}
	s.Forwarder.Stop()
	if s.Cache != nil {
		s.Cache.Close()
	}
	if s.Hub != nil {
		s.Hub.Close()
	}
	if s.Redis != nil {
		errs = multierr.Append(errs, s.Redis.Close())
	}
	if s.DB != nil {
		errs = multierr.Append(errs, closeDatabase(s.DB))
	}

	if errs != nil {
		log.Warn("shutdown completed with errors", zap.Error(errs))
	}
	return errs
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql handle: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
