// Package views keeps per-collection view state for pages: data served from the local cache,
// refreshed from the network whenever connectivity allows.
package views

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/network"
	"github.com/charlesng35/hvacquote/pkg/logger"
)

// Refresher forces a refresh of the local cache from the network.
type Refresher interface {
	ForceRefresh(ctx context.Context) error
}

// StatusSource reports connectivity and streams its changes.
type StatusSource interface {
	IsOnline() bool
	Subscribe() (<-chan network.Status, func())
}

// Loader reads one collection from the local cache.
type Loader[T any] func(ctx context.Context) []T

// State is the observable view state.
type State[T any] struct {
	Collection  models.Collection `json:"collection"`
	Data        []T               `json:"data"`
	IsLoading   bool              `json:"isLoading"`
	Error       string            `json:"error,omitempty"`
	LastUpdated *time.Time        `json:"lastUpdated,omitempty"`
	IsFromCache bool              `json:"isFromCache"`
}

// Handle is the type-erased surface of a View used by the HTTP layer.
type Handle interface {
	Collection() models.Collection
	Refresh(ctx context.Context) error
	Current() any
}

// Option customises a View.
type Option func(*config)

type config struct {
	now func() time.Time
	log *zap.Logger
}

// WithNow overrides the clock stamping LastUpdated.
func WithNow(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// View tracks one collection.
type View[T any] struct {
	collection models.Collection
	load       Loader[T]
	refresher  Refresher
	network    StatusSource
	now        func() time.Time
	log        *zap.Logger

	mu    sync.RWMutex
	state State[T]

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New builds a View over a cache loader. The network source is optional; without it the
// view behaves as permanently online.
func New[T any](collection models.Collection, load Loader[T], refresher Refresher, source StatusSource, opts ...Option) (*View[T], error) {
	if load == nil {
		return nil, errors.New("views: loader is required")
	}
	if refresher == nil {
		return nil, errors.New("views: refresher is required")
	}

	cfg := config{now: time.Now, log: logger.WithModule("views")}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &View[T]{
		collection: collection,
		load:       load,
		refresher:  refresher,
		network:    source,
		now:        cfg.now,
		log:        cfg.log.With(zap.String("collection", string(collection))),
		state: State[T]{
			Collection:  collection,
			Data:        []T{},
			IsFromCache: true,
		},
	}, nil
}

// Collection returns the collection the view tracks.
func (v *View[T]) Collection() models.Collection {
	return v.collection
}

// Snapshot returns a copy of the current state.
func (v *View[T]) Snapshot() State[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()

	state := v.state
	state.Data = append([]T(nil), v.state.Data...)
	if v.state.LastUpdated != nil {
		ts := *v.state.LastUpdated
		state.LastUpdated = &ts
	}
	return state
}

// Current returns Snapshot as an untyped value.
func (v *View[T]) Current() any {
	return v.Snapshot()
}

// Start loads the cached collection, kicks off a background refresh when online and
// refreshes again whenever connectivity comes back.
func (v *View[T]) Start(ctx context.Context) {
	v.lifecycle.Lock()
	defer v.lifecycle.Unlock()
	if v.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	v.setLoading()
	data := v.load(ctx)
	v.mu.Lock()
	v.state.Data = data
	v.state.IsFromCache = true
	v.state.IsLoading = false
	v.mu.Unlock()

	online := v.online()
	if online {
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			if err := v.refresher.ForceRefresh(runCtx); err != nil {
				v.log.Warn("background refresh failed", zap.Error(err))
				return
			}
			v.replace(v.load(runCtx), false)
		}()
	}

	if v.network == nil {
		return
	}
	updates, unsubscribe := v.network.Subscribe()
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer unsubscribe()
		v.watch(runCtx, updates, online)
	}()
}

// Stop ends background work started by Start.
func (v *View[T]) Stop() {
	v.lifecycle.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.lifecycle.Unlock()

	if cancel != nil {
		cancel()
	}
	v.wg.Wait()
}

// Refresh reloads the collection: from the network when online, from the cache otherwise.
// A failure is recorded in the state and previously loaded data is kept.
func (v *View[T]) Refresh(ctx context.Context) error {
	v.setLoading()

	if !v.online() {
		v.replace(v.load(ctx), true)
		return nil
	}

	if err := v.refresher.ForceRefresh(ctx); err != nil {
		v.mu.Lock()
		v.state.Error = err.Error()
		v.state.IsLoading = false
		v.mu.Unlock()
		return err
	}
	v.replace(v.load(ctx), false)
	return nil
}

func (v *View[T]) watch(ctx context.Context, updates <-chan network.Status, wasOnline bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			if status.IsOnline && !status.IsConnecting && !wasOnline {
				v.log.Debug("connectivity restored, refreshing")
				if err := v.Refresh(ctx); err != nil {
					v.log.Warn("refresh after reconnect failed", zap.Error(err))
				}
			}
			wasOnline = status.IsOnline
		}
	}
}

func (v *View[T]) online() bool {
	if v.network == nil {
		return true
	}
	return v.network.IsOnline()
}

func (v *View[T]) setLoading() {
	v.mu.Lock()
	v.state.IsLoading = true
	v.state.Error = ""
	v.mu.Unlock()
}

func (v *View[T]) replace(data []T, fromCache bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.state.Data = data
	v.state.IsFromCache = fromCache
	v.state.IsLoading = false
	if !fromCache {
		now := v.now()
		v.state.LastUpdated = &now
	}
}
