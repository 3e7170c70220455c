package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/storage"
	apperrors "github.com/charlesng35/hvacquote/pkg/errors"
	"github.com/charlesng35/hvacquote/pkg/logger"
	"github.com/charlesng35/hvacquote/pkg/metrics"
	"github.com/charlesng35/hvacquote/pkg/validator"
)

// Refresh triggers, used as metric labels and in logs.
const (
	TriggerStale      = "stale"
	TriggerForce      = "force"
	TriggerEnsure     = "ensure"
	TriggerInvalidate = "invalidate"
)

// RemoteAPI is the upstream source of truth for the cached collections.
type RemoteAPI interface {
	Quotes(ctx context.Context) ([]models.Quote, error)
	Clients(ctx context.Context) ([]models.Client, error)
	Sites(ctx context.Context) ([]models.Site, error)
	Supplies(ctx context.Context) ([]models.SupplyItem, error)
}

// CacheListener is notified with a copy of the metadata after every state change.
type CacheListener func(models.CacheMetadata)

// CacheService serves the four collections from the local store and keeps them in sync
// with the remote API. Reads never block on the network: a stale cache is returned as is
// and refreshed in the background.
type CacheService struct {
	repo   *storage.Repository
	meta   *storage.MetadataStore
	remote RemoteAPI
	log    *zap.Logger

	mu        sync.RWMutex
	metadata  models.CacheMetadata
	listeners []CacheListener

	// commitMu makes each refresh's write of all four keys atomic with respect to other
	// commits. Fetches are not serialised.
	commitMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// CacheServiceOption customises the CacheService.
type CacheServiceOption func(*CacheService)

// WithCacheListener registers a listener for metadata changes.
func WithCacheListener(listener CacheListener) CacheServiceOption {
	return func(s *CacheService) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}

// NewCacheService constructs the service and loads the persisted metadata.
func NewCacheService(repo *storage.Repository, meta *storage.MetadataStore, remote RemoteAPI, opts ...CacheServiceOption) (*CacheService, error) {
	if repo == nil {
		return nil, errors.New("cache service: repository is required")
	}
	if meta == nil {
		return nil, errors.New("cache service: metadata store is required")
	}
	if remote == nil {
		return nil, errors.New("cache service: remote api is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := &CacheService{
		repo:   repo,
		meta:   meta,
		remote: remote,
		log:    logger.WithModule("cache"),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(svc)
	}

	svc.metadata = meta.Load(ctx)
	metrics.CacheStale.Set(metrics.BoolGauge(svc.metadata.IsStale))
	return svc, nil
}

// Close stops accepting background refreshes and waits for running ones to finish.
// A running refresh is not interrupted.
func (s *CacheService) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// CacheStatus returns a copy of the current metadata.
func (s *CacheService) CacheStatus() models.CacheMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Quotes returns the cached quotes.
func (s *CacheService) Quotes(ctx context.Context) []models.Quote {
	s.beforeRead(models.CollectionQuotes)
	return s.repo.Quotes(ctx)
}

// Clients returns the cached clients.
func (s *CacheService) Clients(ctx context.Context) []models.Client {
	s.beforeRead(models.CollectionClients)
	return s.repo.Clients(ctx)
}

// Sites returns the cached sites.
func (s *CacheService) Sites(ctx context.Context) []models.Site {
	s.beforeRead(models.CollectionSites)
	return s.repo.Sites(ctx)
}

// Supplies returns the cached supplies catalogue.
func (s *CacheService) Supplies(ctx context.Context) []models.SupplyItem {
	s.beforeRead(models.CollectionSupplies)
	return s.repo.Supplies(ctx)
}

// QuoteByID looks up a cached quote.
func (s *CacheService) QuoteByID(ctx context.Context, id string) (models.Quote, error) {
	return s.repo.QuoteByID(ctx, id)
}

// ClientByID looks up a cached client.
func (s *CacheService) ClientByID(ctx context.Context, id string) (models.Client, error) {
	return s.repo.ClientByID(ctx, id)
}

// SitesByClientID returns the cached sites of one client.
func (s *CacheService) SitesByClientID(ctx context.Context, clientID string) []models.Site {
	return s.repo.SitesByClientID(ctx, clientID)
}

// SaveQuote writes a quote to the local store only.
func (s *CacheService) SaveQuote(ctx context.Context, quote models.Quote) (models.Quote, error) {
	saved, err := s.repo.SaveQuote(ctx, quote)
	return saved, s.afterWrite(ctx, err)
}

// DeleteQuote removes a quote from the local store only.
func (s *CacheService) DeleteQuote(ctx context.Context, id string) error {
	return s.afterWrite(ctx, s.repo.DeleteQuote(ctx, id))
}

// SaveClient writes a client to the local store only.
func (s *CacheService) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	saved, err := s.repo.SaveClient(ctx, client)
	return saved, s.afterWrite(ctx, err)
}

// DeleteClient removes a client from the local store only.
func (s *CacheService) DeleteClient(ctx context.Context, id string) error {
	return s.afterWrite(ctx, s.repo.DeleteClient(ctx, id))
}

// SaveSite writes a site to the local store only.
func (s *CacheService) SaveSite(ctx context.Context, site models.Site) (models.Site, error) {
	saved, err := s.repo.SaveSite(ctx, site)
	return saved, s.afterWrite(ctx, err)
}

// DeleteSite removes a site from the local store only.
func (s *CacheService) DeleteSite(ctx context.Context, id string) error {
	return s.afterWrite(ctx, s.repo.DeleteSite(ctx, id))
}

// SaveSupply writes a supply item to the local store only.
func (s *CacheService) SaveSupply(ctx context.Context, item models.SupplyItem) (models.SupplyItem, error) {
	saved, err := s.repo.SaveSupply(ctx, item)
	return saved, s.afterWrite(ctx, err)
}

// DeleteSupply removes a supply item from the local store only.
func (s *CacheService) DeleteSupply(ctx context.Context, id string) error {
	return s.afterWrite(ctx, s.repo.DeleteSupply(ctx, id))
}

// InvalidateCache fetches every collection and swaps them into the store. On failure the
// previous collections are kept, the cache is marked stale and the error is returned.
func (s *CacheService) InvalidateCache(ctx context.Context) error {
	return s.refresh(ctx, TriggerInvalidate)
}

// ForceRefresh refreshes unconditionally.
func (s *CacheService) ForceRefresh(ctx context.Context) error {
	return s.refresh(ctx, TriggerForce)
}

// EnsureFreshData refreshes only when the cache is stale.
func (s *CacheService) EnsureFreshData(ctx context.Context) error {
	if !s.CacheStatus().IsStale {
		return nil
	}
	return s.refresh(ctx, TriggerEnsure)
}

// ClearCache removes every collection and resets the metadata. The network is not used.
func (s *CacheService) ClearCache(ctx context.Context) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		s.log.Error("failed to clear cache", zap.Error(err))
		return apperrors.ErrStorage.WithInternal(err)
	}
	s.setMetadata(s.meta.Reset(ctx))
	s.log.Info("cache cleared")
	return nil
}

// Wait blocks until every background refresh scheduled so far has finished.
func (s *CacheService) Wait() {
	s.wg.Wait()
}

func (s *CacheService) beforeRead(collection models.Collection) {
	state := "fresh"
	if s.CacheStatus().IsStale {
		state = "stale"
		s.scheduleRefresh()
	}
	metrics.CacheReads.WithLabelValues(string(collection), state).Inc()
}

// scheduleRefresh runs a refresh on the service context so it outlives the triggering read.
func (s *CacheService) scheduleRefresh() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if err := s.refresh(s.ctx, TriggerStale); err != nil {
			s.log.Warn("background refresh failed", zap.Error(err))
		}
	}()
}

// refresh runs to completion once started; caller cancellation is ignored and the
// upstream client's own timeout bounds each fetch.
func (s *CacheService) refresh(ctx context.Context, trigger string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	snapshot, err := s.fetchAll(ctx)
	if err == nil {
		err = s.commit(ctx, snapshot)
	}
	metrics.CacheRefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.CacheRefreshes.WithLabelValues(trigger, "failure").Inc()
		s.log.Warn("cache refresh failed", zap.String("trigger", trigger), zap.Error(err))
		s.markStale(ctx)
		return apperrors.ErrRefreshFailed.WithInternal(err)
	}

	metrics.CacheRefreshes.WithLabelValues(trigger, "success").Inc()
	s.log.Info("cache refreshed",
		zap.String("trigger", trigger),
		zap.Int("quotes", len(snapshot.Quotes)),
		zap.Int("clients", len(snapshot.Clients)),
		zap.Int("sites", len(snapshot.Sites)),
		zap.Int("supplies", len(snapshot.Supplies)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// fetchAll stages a full snapshot in memory. Nothing is written until every fetch succeeds.
func (s *CacheService) fetchAll(ctx context.Context) (models.Snapshot, error) {
	var snapshot models.Snapshot
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() (err error) {
		snapshot.Quotes, err = s.remote.Quotes(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Clients, err = s.remote.Clients(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Sites, err = s.remote.Sites(groupCtx)
		return err
	})
	group.Go(func() (err error) {
		snapshot.Supplies, err = s.remote.Supplies(groupCtx)
		return err
	})

	if err := group.Wait(); err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}

func (s *CacheService) commit(ctx context.Context, snapshot models.Snapshot) error {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := s.repo.ReplaceAll(ctx, snapshot); err != nil {
		return err
	}
	s.setMetadata(s.meta.Reset(ctx))
	return nil
}

// afterWrite marks the cache stale when a local write failed for reasons other than the
// caller's input. Successful writes leave the metadata untouched.
func (s *CacheService) afterWrite(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var validationErr validator.ValidationErrors
	if errors.Is(err, storage.ErrNotFound) || errors.As(err, &validationErr) {
		return err
	}
	s.log.Error("local write failed", zap.Error(err))
	s.markStale(ctx)
	return apperrors.ErrStorage.WithInternal(err)
}

func (s *CacheService) markStale(ctx context.Context) {
	s.setMetadata(s.meta.MarkStale(ctx))
}

func (s *CacheService) setMetadata(meta models.CacheMetadata) {
	s.mu.Lock()
	s.metadata = meta
	listeners := append([]CacheListener(nil), s.listeners...)
	s.mu.Unlock()

	metrics.CacheStale.Set(metrics.BoolGauge(meta.IsStale))
	for _, listener := range listeners {
		listener(meta)
	}
}
