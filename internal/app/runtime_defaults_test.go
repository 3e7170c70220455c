package app

import (
	"strings"
	"testing"
	"time"
)

func TestApplyRuntimeDefaultsFillsMissingSettings(t *testing.T) {
	cfg := &Config{Upstream: UpstreamConfig{BaseURL: "http://api.local"}}

	defaulted, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}

	if cfg.Cache.Backend != BackendDatabase {
		t.Fatalf("expected database backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.Version != "1.0.0" {
		t.Fatalf("expected default cache version, got %q", cfg.Cache.Version)
	}
	if cfg.Network.ProbeInterval != 10*time.Second || cfg.Network.ProbeTimeout != 5*time.Second {
		t.Fatalf("unexpected probe settings: %+v", cfg.Network)
	}
	for _, key := range []string{"cache.backend", "cache.version", "network.probe_interval", "network.probe_timeout", "server.shutdown_timeout"} {
		if !defaulted[key] {
			t.Fatalf("expected %s to be reported as defaulted: %#v", key, defaulted)
		}
	}
}

func TestApplyRuntimeDefaultsPreservesExistingSettings(t *testing.T) {
	cfg := &Config{
		Cache:    CacheConfig{Backend: " Redis ", Version: "2.0.0"},
		Upstream: UpstreamConfig{BaseURL: "http://api.local"},
		Network:  NetworkConfig{ProbeInterval: 30 * time.Second, ProbeTimeout: time.Second},
		Server:   ServerConfig{ShutdownTimeout: time.Second},
	}

	defaulted, err := ApplyRuntimeDefaults(cfg)
	if err != nil {
		t.Fatalf("ApplyRuntimeDefaults returned error: %v", err)
	}
	if len(defaulted) != 0 {
		t.Fatalf("expected no defaults to be applied, got %#v", defaulted)
	}
	if cfg.Cache.Backend != BackendRedis {
		t.Fatalf("expected backend to be normalised, got %q", cfg.Cache.Backend)
	}
}

func TestApplyRuntimeDefaultsRejectsInvalidConfig(t *testing.T) {
	if _, err := ApplyRuntimeDefaults(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	_, err := ApplyRuntimeDefaults(&Config{Cache: CacheConfig{Backend: "etcd"}, Upstream: UpstreamConfig{BaseURL: "http://x"}})
	if err == nil || !strings.Contains(err.Error(), "cache.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}

	_, err = ApplyRuntimeDefaults(&Config{})
	if err == nil || !strings.Contains(err.Error(), "upstream.base_url") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
