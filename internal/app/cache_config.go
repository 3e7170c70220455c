package app

import (
	"strings"

	"github.com/charlesng35/hvacquote/internal/apiclient"
	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/database"
)

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:   strings.TrimSpace(c.Redis.Address),
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: c.Redis.KeyPrefix,
	}
}

// NormalizedBackend returns the lower-cased backend name.
func (c CacheConfig) NormalizedBackend() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

// ConnectionConfig converts the database section into database.Config.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	return database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		DSN:             c.DSN,
		Host:            c.Host,
		Port:            c.Port,
		Name:            c.Name,
		User:            c.User,
		Password:        c.Password,
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// ClientConfig converts the upstream section into apiclient.Config.
func (c UpstreamConfig) ClientConfig() apiclient.Config {
	return apiclient.Config{
		BaseURL:    strings.TrimSpace(c.BaseURL),
		Token:      strings.TrimSpace(c.Token),
		Timeout:    c.Timeout,
		HealthPath: c.HealthPath,
	}
}
