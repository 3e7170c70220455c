package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/storage"
	apperrors "github.com/charlesng35/hvacquote/pkg/errors"
)

type fakeRemote struct {
	mu       sync.Mutex
	quotes   []models.Quote
	clients  []models.Client
	sites    []models.Site
	supplies []models.SupplyItem
	err      error

	quoteCalls  atomic.Int32
	clientCalls atomic.Int32
	siteCalls   atomic.Int32
	supplyCalls atomic.Int32
}

func (f *fakeRemote) set(quoteID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quotes = []models.Quote{{Record: models.Record{ID: quoteID}, ClientName: "Acme"}}
	f.clients = []models.Client{{Record: models.Record{ID: "c1"}, Name: "Acme"}}
	f.sites = []models.Site{{Record: models.Record{ID: "s1"}, ClientID: "c1", Name: "HQ"}}
	f.supplies = []models.SupplyItem{{Record: models.Record{ID: "p1"}, Description: "Copper pipe", PriceEuro: 12}}
	f.err = err
}

func (f *fakeRemote) Quotes(context.Context) ([]models.Quote, error) {
	f.quoteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quotes, f.err
}

func (f *fakeRemote) Clients(context.Context) ([]models.Client, error) {
	f.clientCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients, f.err
}

func (f *fakeRemote) Sites(context.Context) ([]models.Site, error) {
	f.siteCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sites, f.err
}

func (f *fakeRemote) Supplies(context.Context) ([]models.SupplyItem, error) {
	f.supplyCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supplies, f.err
}

func (f *fakeRemote) totalCalls() int32 {
	return f.quoteCalls.Load() + f.clientCalls.Load() + f.siteCalls.Load() + f.supplyCalls.Load()
}

type cacheFixture struct {
	store  *cache.MemoryStore
	repo   *storage.Repository
	meta   *storage.MetadataStore
	remote *fakeRemote
}

func newCacheFixture(t *testing.T) *cacheFixture {
	t.Helper()
	store := cache.NewMemoryStore()
	repo, err := storage.NewRepository(store)
	require.NoError(t, err)
	meta, err := storage.NewMetadataStore(store, "1.0.0")
	require.NoError(t, err)

	remote := &fakeRemote{}
	remote.set("q-remote", nil)
	return &cacheFixture{store: store, repo: repo, meta: meta, remote: remote}
}

func (f *cacheFixture) service(t *testing.T, remote RemoteAPI, opts ...CacheServiceOption) *CacheService {
	t.Helper()
	if remote == nil {
		remote = f.remote
	}
	svc, err := NewCacheService(f.repo, f.meta, remote, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func (f *cacheFixture) seed(t *testing.T, quoteID string) {
	t.Helper()
	require.NoError(t, f.repo.ReplaceAll(context.Background(), models.Snapshot{
		Quotes: []models.Quote{{Record: models.Record{ID: quoteID}, ClientName: "Cached"}},
	}))
}

func TestNewCacheServiceRequiresDependencies(t *testing.T) {
	f := newCacheFixture(t)
	_, err := NewCacheService(nil, f.meta, f.remote)
	require.Error(t, err)
	_, err = NewCacheService(f.repo, nil, f.remote)
	require.Error(t, err)
	_, err = NewCacheService(f.repo, f.meta, nil)
	require.Error(t, err)
}

func TestCacheStatusInitiallyFresh(t *testing.T) {
	f := newCacheFixture(t)
	svc := f.service(t, nil)

	status := svc.CacheStatus()
	require.False(t, status.IsStale)
	require.Equal(t, "1.0.0", status.Version)
}

func TestFreshReadDoesNotRefresh(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, "q-cached")
	svc := f.service(t, nil)

	quotes := svc.Quotes(context.Background())
	svc.Wait()

	require.Len(t, quotes, 1)
	require.Equal(t, "q-cached", quotes[0].ID)
	require.Zero(t, f.remote.totalCalls())
}

func TestStaleReadTriggersOneBackgroundRefresh(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, "q-cached")
	f.meta.MarkStale(context.Background())
	svc := f.service(t, nil)
	require.True(t, svc.CacheStatus().IsStale)

	quotes := svc.Quotes(context.Background())
	require.Len(t, quotes, 1)
	require.Equal(t, "q-cached", quotes[0].ID)

	svc.Wait()
	require.EqualValues(t, 1, f.remote.quoteCalls.Load())
	require.EqualValues(t, 1, f.remote.supplyCalls.Load())
	require.False(t, svc.CacheStatus().IsStale)

	quotes = svc.Quotes(context.Background())
	require.Equal(t, "q-remote", quotes[0].ID)
}

func TestForceRefreshWritesAllCollections(t *testing.T) {
	f := newCacheFixture(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.ForceRefresh(ctx))

	for _, collection := range models.Collections() {
		_, ok, err := f.store.Get(ctx, collection.Key())
		require.NoError(t, err)
		require.True(t, ok, collection)
	}
	require.Len(t, svc.Clients(ctx), 1)
	require.Len(t, svc.Sites(ctx), 1)
	require.Len(t, svc.Supplies(ctx), 1)
	require.False(t, svc.CacheStatus().IsStale)
	require.False(t, f.meta.Load(ctx).IsStale)
}

func TestRefreshFailureKeepsSnapshotAndMarksStale(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, "q-cached")
	f.remote.set("q-remote", errors.New("upstream down"))
	svc := f.service(t, nil)
	ctx := context.Background()

	err := svc.ForceRefresh(ctx)
	require.ErrorIs(t, err, apperrors.ErrRefreshFailed)
	require.ErrorContains(t, err, "upstream down")

	require.True(t, svc.CacheStatus().IsStale)
	require.True(t, f.meta.Load(ctx).IsStale)

	quotes := f.repo.Quotes(ctx)
	require.Len(t, quotes, 1)
	require.Equal(t, "q-cached", quotes[0].ID)
}

func TestEnsureFreshDataOnlyWhenStale(t *testing.T) {
	f := newCacheFixture(t)
	svc := f.service(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.EnsureFreshData(ctx))
	require.Zero(t, f.remote.totalCalls())

	f.remote.set("q-remote", errors.New("boom"))
	require.Error(t, svc.InvalidateCache(ctx))
	require.True(t, svc.CacheStatus().IsStale)

	f.remote.set("q-remote", nil)
	require.NoError(t, svc.EnsureFreshData(ctx))
	require.False(t, svc.CacheStatus().IsStale)
}

func TestClearCacheUsesNoNetwork(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, "q-cached")
	f.meta.MarkStale(context.Background())
	svc := f.service(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.ClearCache(ctx))
	require.Zero(t, f.remote.totalCalls())
	require.False(t, svc.CacheStatus().IsStale)

	for _, collection := range models.Collections() {
		_, ok, err := f.store.Get(ctx, collection.Key())
		require.NoError(t, err)
		require.False(t, ok)
	}
}

type gatedRemote struct {
	*fakeRemote
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (g *gatedRemote) Quotes(ctx context.Context) ([]models.Quote, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		<-g.release
		return []models.Quote{{Record: models.Record{ID: "first"}}}, nil
	}
	return []models.Quote{{Record: models.Record{ID: "second"}}}, nil
}

func TestOverlappingRefreshesLastCommitWins(t *testing.T) {
	f := newCacheFixture(t)
	remote := &gatedRemote{fakeRemote: f.remote, started: make(chan struct{}), release: make(chan struct{})}
	svc := f.service(t, remote)
	ctx := context.Background()

	firstErr := make(chan error, 1)
	go func() { firstErr <- svc.ForceRefresh(ctx) }()
	<-remote.started

	require.NoError(t, svc.ForceRefresh(ctx))
	require.Equal(t, "second", f.repo.Quotes(ctx)[0].ID)

	close(remote.release)
	select {
	case err := <-firstErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh did not finish")
	}

	quotes := f.repo.Quotes(ctx)
	require.Len(t, quotes, 1)
	require.Equal(t, "first", quotes[0].ID)
	require.False(t, svc.CacheStatus().IsStale)
}

type cancelAwareRemote struct {
	*fakeRemote
	started chan struct{}
	release chan struct{}
}

func (r *cancelAwareRemote) Quotes(ctx context.Context) ([]models.Quote, error) {
	close(r.started)
	<-r.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fakeRemote.Quotes(ctx)
}

func TestRefreshIgnoresCallerCancellation(t *testing.T) {
	f := newCacheFixture(t)
	remote := &cancelAwareRemote{fakeRemote: f.remote, started: make(chan struct{}), release: make(chan struct{})}
	svc := f.service(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() { result <- svc.ForceRefresh(ctx) }()

	<-remote.started
	cancel()
	close(remote.release)

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not finish")
	}
	require.False(t, svc.CacheStatus().IsStale)
	require.Equal(t, "q-remote", f.repo.Quotes(context.Background())[0].ID)
}

type brokenSetStore struct {
	*cache.MemoryStore
}

func (b brokenSetStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestWritePaths(t *testing.T) {
	ctx := context.Background()

	t.Run("success leaves metadata fresh", func(t *testing.T) {
		f := newCacheFixture(t)
		svc := f.service(t, nil)

		saved, err := svc.SaveClient(ctx, models.Client{Name: "Acme"})
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)
		require.False(t, svc.CacheStatus().IsStale)

		got, err := svc.ClientByID(ctx, saved.ID)
		require.NoError(t, err)
		require.Equal(t, "Acme", got.Name)

		require.NoError(t, svc.DeleteClient(ctx, saved.ID))
		require.ErrorIs(t, svc.DeleteClient(ctx, saved.ID), storage.ErrNotFound)
		require.False(t, svc.CacheStatus().IsStale)
	})

	t.Run("invalid input does not mark stale", func(t *testing.T) {
		f := newCacheFixture(t)
		svc := f.service(t, nil)

		_, err := svc.SaveSite(ctx, models.Site{Name: "No client"})
		require.Error(t, err)
		require.False(t, svc.CacheStatus().IsStale)
	})

	t.Run("storage failure marks stale", func(t *testing.T) {
		metaStore := cache.NewMemoryStore()
		repo, err := storage.NewRepository(brokenSetStore{cache.NewMemoryStore()})
		require.NoError(t, err)
		meta, err := storage.NewMetadataStore(metaStore, "1.0.0")
		require.NoError(t, err)

		var notified []models.CacheMetadata
		svc, err := NewCacheService(repo, meta, &fakeRemote{}, WithCacheListener(func(m models.CacheMetadata) {
			notified = append(notified, m)
		}))
		require.NoError(t, err)
		t.Cleanup(svc.Close)

		_, err = svc.SaveSupply(ctx, models.SupplyItem{Description: "Gas R32"})
		require.ErrorIs(t, err, apperrors.ErrStorage)
		require.True(t, svc.CacheStatus().IsStale)
		require.True(t, meta.Load(ctx).IsStale)
		require.Len(t, notified, 1)
		require.True(t, notified[0].IsStale)
	})
}

func TestCloseStopsBackgroundRefresh(t *testing.T) {
	f := newCacheFixture(t)
	f.meta.MarkStale(context.Background())
	svc := f.service(t, nil)

	svc.Close()
	svc.Sites(context.Background())
	svc.Wait()
	require.Zero(t, f.remote.totalCalls())
}
