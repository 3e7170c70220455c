package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/pkg/logger"
)

// DefaultVersion is the cache format version written into fresh metadata.
const DefaultVersion = "1.0.0"

var errNilStore = errors.New("storage: cache store is required")

// Option customises storage components.
type Option func(*options)

type options struct {
	now func() time.Time
	log *zap.Logger
}

// WithClock overrides the time source used to stamp metadata and records.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	cfg := options{
		now: time.Now,
		log: logger.WithModule("storage"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// MetadataStore persists the CacheMetadata record. It never fails: reads fall back to fresh
// defaults and writes are best effort.
type MetadataStore struct {
	store   cache.Store
	version string
	now     func() time.Time
	log     *zap.Logger
}

// NewMetadataStore constructs a MetadataStore writing the given format version.
func NewMetadataStore(store cache.Store, version string, opts ...Option) (*MetadataStore, error) {
	if store == nil {
		return nil, errNilStore
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = DefaultVersion
	}

	cfg := buildOptions(opts)
	return &MetadataStore{
		store:   store,
		version: version,
		now:     cfg.now,
		log:     cfg.log,
	}, nil
}

// Version returns the format version written by Reset.
func (m *MetadataStore) Version() string {
	return m.version
}

// Fresh returns non-stale metadata stamped with the current time.
func (m *MetadataStore) Fresh() models.CacheMetadata {
	return models.NewCacheMetadata(m.version, m.now().UTC())
}

// Load reads the persisted metadata. Missing or corrupt records yield Fresh().
func (m *MetadataStore) Load(ctx context.Context) models.CacheMetadata {
	raw, ok, err := m.store.Get(ctx, models.MetadataKey)
	if err != nil {
		m.log.Warn("failed to read cache metadata", zap.Error(err))
		return m.Fresh()
	}
	if !ok {
		return m.Fresh()
	}

	var meta models.CacheMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		m.log.Warn("discarding unreadable cache metadata", zap.Error(err))
		return m.Fresh()
	}
	return meta
}

// Save persists metadata. Failures are logged and swallowed.
func (m *MetadataStore) Save(ctx context.Context, meta models.CacheMetadata) {
	raw, err := json.Marshal(meta)
	if err != nil {
		m.log.Error("failed to encode cache metadata", zap.Error(err))
		return
	}
	if err := m.store.Set(ctx, models.MetadataKey, raw); err != nil {
		m.log.Error("failed to persist cache metadata", zap.Error(err))
	}
}

// Reset persists and returns fresh metadata.
func (m *MetadataStore) Reset(ctx context.Context) models.CacheMetadata {
	meta := m.Fresh()
	m.Save(ctx, meta)
	return meta
}

// MarkStale flags the cache as stale, stamping LastUpdated with the current time.
func (m *MetadataStore) MarkStale(ctx context.Context) models.CacheMetadata {
	meta := m.Load(ctx)
	meta.IsStale = true
	meta.LastUpdated = m.now().UTC()
	m.Save(ctx, meta)
	return meta
}
