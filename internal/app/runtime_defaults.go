package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/hvacquote/internal/storage"
)

const (
	defaultProbeInterval   = 10 * time.Second
	defaultProbeTimeout    = 5 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ApplyRuntimeDefaults fills settings that are empty or out of range after loading and
// rejects unusable combinations. It returns the keys that were defaulted so callers can log them.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	defaulted := make(map[string]bool)

	switch cfg.Cache.NormalizedBackend() {
	case "":
		cfg.Cache.Backend = BackendDatabase
		defaulted["cache.backend"] = true
	case BackendDatabase, BackendRedis, BackendMemory:
		cfg.Cache.Backend = cfg.Cache.NormalizedBackend()
	default:
		return nil, fmt.Errorf("cache.backend %q is not one of database, redis, memory", cfg.Cache.Backend)
	}

	if strings.TrimSpace(cfg.Cache.Version) == "" {
		cfg.Cache.Version = storage.DefaultVersion
		defaulted["cache.version"] = true
	}

	if strings.TrimSpace(cfg.Upstream.BaseURL) == "" {
		return nil, fmt.Errorf("upstream.base_url is required")
	}

	if cfg.Network.ProbeInterval < time.Second {
		cfg.Network.ProbeInterval = defaultProbeInterval
		defaulted["network.probe_interval"] = true
	}
	if cfg.Network.ProbeTimeout <= 0 {
		cfg.Network.ProbeTimeout = defaultProbeTimeout
		defaulted["network.probe_timeout"] = true
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = defaultShutdownTimeout
		defaulted["server.shutdown_timeout"] = true
	}

	return defaulted, nil
}
