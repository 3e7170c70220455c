package views

import (
	"context"
	"fmt"

	"github.com/charlesng35/hvacquote/internal/models"
)

// Backend is the cache service surface the per-collection views read from.
type Backend interface {
	Refresher
	Quotes(ctx context.Context) []models.Quote
	Clients(ctx context.Context) []models.Client
	Sites(ctx context.Context) []models.Site
	Supplies(ctx context.Context) []models.SupplyItem
}

// NewQuotesView tracks the quotes collection.
func NewQuotesView(backend Backend, source StatusSource, opts ...Option) (*View[models.Quote], error) {
	return New[models.Quote](models.CollectionQuotes, backend.Quotes, backend, source, opts...)
}

// NewClientsView tracks the clients collection.
func NewClientsView(backend Backend, source StatusSource, opts ...Option) (*View[models.Client], error) {
	return New[models.Client](models.CollectionClients, backend.Clients, backend, source, opts...)
}

// NewSitesView tracks the sites collection.
func NewSitesView(backend Backend, source StatusSource, opts ...Option) (*View[models.Site], error) {
	return New[models.Site](models.CollectionSites, backend.Sites, backend, source, opts...)
}

// NewSuppliesView tracks the supplies catalogue.
func NewSuppliesView(backend Backend, source StatusSource, opts ...Option) (*View[models.SupplyItem], error) {
	return New[models.SupplyItem](models.CollectionSupplies, backend.Supplies, backend, source, opts...)
}

// Registry holds one view per collection.
type Registry struct {
	views map[models.Collection]Handle
	start []func(context.Context)
	stop  []func()
}

// NewRegistry builds and registers the four collection views.
func NewRegistry(backend Backend, source StatusSource, opts ...Option) (*Registry, error) {
	if backend == nil {
		return nil, fmt.Errorf("views: backend is required")
	}
	reg := &Registry{views: make(map[models.Collection]Handle, 4)}

	quotes, err := NewQuotesView(backend, source, opts...)
	if err != nil {
		return nil, err
	}
	register(reg, quotes)

	clients, err := NewClientsView(backend, source, opts...)
	if err != nil {
		return nil, err
	}
	register(reg, clients)

	sites, err := NewSitesView(backend, source, opts...)
	if err != nil {
		return nil, err
	}
	register(reg, sites)

	supplies, err := NewSuppliesView(backend, source, opts...)
	if err != nil {
		return nil, err
	}
	register(reg, supplies)

	return reg, nil
}

func register[T any](reg *Registry, view *View[T]) {
	reg.views[view.Collection()] = view
	reg.start = append(reg.start, view.Start)
	reg.stop = append(reg.stop, view.Stop)
}

// Get returns the view tracking collection.
func (r *Registry) Get(collection models.Collection) (Handle, bool) {
	view, ok := r.views[collection]
	return view, ok
}

// Start starts every view.
func (r *Registry) Start(ctx context.Context) {
	for _, start := range r.start {
		start(ctx)
	}
}

// Stop stops every view.
func (r *Registry) Stop() {
	for _, stop := range r.stop {
		stop()
	}
}
