package views

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/network"
)

type fakeBackend struct {
	mu         sync.Mutex
	cached     []models.Quote
	remote     []models.Quote
	refreshErr error
	refreshes  atomic.Int32
}

func (f *fakeBackend) ForceRefresh(context.Context) error {
	f.refreshes.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.cached = f.remote
	return nil
}

func (f *fakeBackend) Quotes(context.Context) []models.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Quote(nil), f.cached...)
}

func (f *fakeBackend) Clients(context.Context) []models.Client       { return []models.Client{} }
func (f *fakeBackend) Sites(context.Context) []models.Site           { return []models.Site{} }
func (f *fakeBackend) Supplies(context.Context) []models.SupplyItem { return []models.SupplyItem{} }

func quotes(ids ...string) []models.Quote {
	out := make([]models.Quote, len(ids))
	for i, id := range ids {
		out[i] = models.Quote{Record: models.Record{ID: id}}
	}
	return out
}

var viewNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newQuotesView(t *testing.T, backend *fakeBackend, monitor *network.Monitor) *View[models.Quote] {
	t.Helper()
	view, err := NewQuotesView(backend, monitor, WithNow(func() time.Time { return viewNow }))
	require.NoError(t, err)
	t.Cleanup(view.Stop)
	return view
}

func TestStartOfflineServesCache(t *testing.T) {
	backend := &fakeBackend{cached: quotes("cached"), remote: quotes("remote")}
	monitor := network.NewMonitor(nil, network.WithInitialOnline(false))
	view := newQuotesView(t, backend, monitor)

	view.Start(context.Background())
	state := view.Snapshot()
	require.Equal(t, models.CollectionQuotes, state.Collection)
	require.True(t, state.IsFromCache)
	require.False(t, state.IsLoading)
	require.Nil(t, state.LastUpdated)
	require.Equal(t, "cached", state.Data[0].ID)
	require.Zero(t, backend.refreshes.Load())
}

func TestStartOnlineRefreshesInBackground(t *testing.T) {
	backend := &fakeBackend{cached: quotes("cached"), remote: quotes("remote")}
	monitor := network.NewMonitor(nil)
	view := newQuotesView(t, backend, monitor)

	view.Start(context.Background())
	require.Eventually(t, func() bool {
		return !view.Snapshot().IsFromCache
	}, time.Second, 5*time.Millisecond)

	state := view.Snapshot()
	require.Equal(t, "remote", state.Data[0].ID)
	require.NotNil(t, state.LastUpdated)
	require.Equal(t, viewNow, *state.LastUpdated)
	require.EqualValues(t, 1, backend.refreshes.Load())
}

func TestReconnectTriggersRefresh(t *testing.T) {
	backend := &fakeBackend{cached: quotes("cached"), remote: quotes("remote")}
	monitor := network.NewMonitor(nil, network.WithInitialOnline(false))
	view := newQuotesView(t, backend, monitor)
	view.Start(context.Background())

	monitor.SetOffline()
	require.Never(t, func() bool { return backend.refreshes.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	monitor.SetOnline()
	require.Eventually(t, func() bool {
		state := view.Snapshot()
		return !state.IsFromCache && len(state.Data) == 1 && state.Data[0].ID == "remote"
	}, time.Second, 5*time.Millisecond)
	require.EqualValues(t, 1, backend.refreshes.Load())
}

func TestRefreshFailureKeepsData(t *testing.T) {
	backend := &fakeBackend{cached: quotes("cached"), refreshErr: errors.New("upstream down")}
	monitor := network.NewMonitor(nil, network.WithInitialOnline(false))
	view := newQuotesView(t, backend, monitor)
	view.Start(context.Background())

	monitor.SetOnline()
	require.Eventually(t, func() bool { return view.Snapshot().Error != "" }, time.Second, 5*time.Millisecond)

	err := view.Refresh(context.Background())
	require.Error(t, err)

	state := view.Snapshot()
	require.Equal(t, "upstream down", state.Error)
	require.False(t, state.IsLoading)
	require.Equal(t, "cached", state.Data[0].ID)
}

func TestRefreshOfflineReadsCache(t *testing.T) {
	backend := &fakeBackend{cached: quotes("a")}
	monitor := network.NewMonitor(nil, network.WithInitialOnline(false))
	view := newQuotesView(t, backend, monitor)
	view.Start(context.Background())

	backend.mu.Lock()
	backend.cached = quotes("a", "b")
	backend.mu.Unlock()

	require.NoError(t, view.Refresh(context.Background()))
	state := view.Snapshot()
	require.Len(t, state.Data, 2)
	require.True(t, state.IsFromCache)
	require.Zero(t, backend.refreshes.Load())
}

func TestSnapshotIsACopy(t *testing.T) {
	backend := &fakeBackend{cached: quotes("a")}
	view := newQuotesView(t, backend, network.NewMonitor(nil, network.WithInitialOnline(false)))
	view.Start(context.Background())

	snap := view.Snapshot()
	snap.Data[0].ID = "mutated"
	require.Equal(t, "a", view.Snapshot().Data[0].ID)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New[models.Quote](models.CollectionQuotes, nil, &fakeBackend{}, nil)
	require.Error(t, err)
	_, err = New[models.Quote](models.CollectionQuotes, (&fakeBackend{}).Quotes, nil, nil)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	backend := &fakeBackend{cached: quotes("a")}
	reg, err := NewRegistry(backend, network.NewMonitor(nil, network.WithInitialOnline(false)))
	require.NoError(t, err)

	reg.Start(context.Background())
	t.Cleanup(reg.Stop)

	for _, collection := range models.Collections() {
		handle, ok := reg.Get(collection)
		require.True(t, ok)
		require.Equal(t, collection, handle.Collection())
	}

	handle, _ := reg.Get(models.CollectionQuotes)
	state, ok := handle.Current().(State[models.Quote])
	require.True(t, ok)
	require.Len(t, state.Data, 1)

	_, err = NewRegistry(nil, nil)
	require.Error(t, err)
}
