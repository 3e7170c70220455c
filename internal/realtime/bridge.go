package realtime

import (
	"context"
	"sync"

	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/internal/network"
)

// StatusSource streams connectivity changes.
type StatusSource interface {
	Status() network.Status
	Subscribe() (<-chan network.Status, func())
}

// PublishCache broadcasts cache metadata. Its signature matches the cache service listener.
func (h *Hub) PublishCache(meta models.CacheMetadata) {
	h.Broadcast(StreamCache, EventMetadata, meta)
}

// PublishNetwork broadcasts a connectivity state.
func (h *Hub) PublishNetwork(status network.Status) {
	h.Broadcast(StreamNetwork, EventStatus, status)
}

// Forwarder relays monitor updates onto the network stream until stopped.
type Forwarder struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ForwardNetwork registers source as the network snapshot provider and relays each of
// its transitions to subscribers.
func (h *Hub) ForwardNetwork(ctx context.Context, source StatusSource) *Forwarder {
	h.SetSnapshot(StreamNetwork, func() any { return source.Status() })

	ctx, cancel := context.WithCancel(ctx)
	updates, unsubscribe := source.Subscribe()
	f := &Forwarder{cancel: cancel}
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case status, ok := <-updates:
				if !ok {
					return
				}
				h.PublishNetwork(status)
			}
		}
	}()
	return f
}

// Stop ends forwarding and waits for the relay goroutine.
func (f *Forwarder) Stop() {
	if f == nil {
		return
	}
	f.cancel()
	f.wg.Wait()
}
