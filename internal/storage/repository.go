package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/models"
	"github.com/charlesng35/hvacquote/pkg/validator"
)

// ErrNotFound is returned when a record id is not present in its collection.
var ErrNotFound = errors.New("storage: record not found")

// record is satisfied by pointers to the cached collection types.
type record[T any] interface {
	*T
	GetID() string
	Touch(time.Time)
}

// Repository is the local persistence store of the four collections. Reads fail open:
// a missing or undecodable collection reads as empty and invalid records are skipped.
type Repository struct {
	store cache.Store
	now   func() time.Time
	log   *zap.Logger

	// writeMu serialises read-modify-write cycles on single collections.
	writeMu sync.Mutex
}

// NewRepository constructs a Repository backed by store.
func NewRepository(store cache.Store, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, errNilStore
	}
	cfg := buildOptions(opts)
	return &Repository{
		store: store,
		now:   cfg.now,
		log:   cfg.log,
	}, nil
}

// Quotes returns every cached quote.
func (r *Repository) Quotes(ctx context.Context) []models.Quote {
	return load[models.Quote](ctx, r, models.CollectionQuotes)
}

// QuoteByID returns one quote or ErrNotFound.
func (r *Repository) QuoteByID(ctx context.Context, id string) (models.Quote, error) {
	return find[models.Quote](ctx, r, models.CollectionQuotes, id)
}

// SaveQuote inserts or replaces a quote by id.
func (r *Repository) SaveQuote(ctx context.Context, quote models.Quote) (models.Quote, error) {
	return save[models.Quote](ctx, r, models.CollectionQuotes, quote)
}

// DeleteQuote removes a quote by id.
func (r *Repository) DeleteQuote(ctx context.Context, id string) error {
	return remove[models.Quote](ctx, r, models.CollectionQuotes, id)
}

// Clients returns every cached client.
func (r *Repository) Clients(ctx context.Context) []models.Client {
	return load[models.Client](ctx, r, models.CollectionClients)
}

// ClientByID returns one client or ErrNotFound.
func (r *Repository) ClientByID(ctx context.Context, id string) (models.Client, error) {
	return find[models.Client](ctx, r, models.CollectionClients, id)
}

// SaveClient inserts or replaces a client by id.
func (r *Repository) SaveClient(ctx context.Context, client models.Client) (models.Client, error) {
	return save[models.Client](ctx, r, models.CollectionClients, client)
}

// DeleteClient removes a client by id.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	return remove[models.Client](ctx, r, models.CollectionClients, id)
}

// Sites returns every cached site.
func (r *Repository) Sites(ctx context.Context) []models.Site {
	return load[models.Site](ctx, r, models.CollectionSites)
}

// SitesByClientID returns the sites belonging to a client.
func (r *Repository) SitesByClientID(ctx context.Context, clientID string) []models.Site {
	sites := r.Sites(ctx)
	matched := make([]models.Site, 0, len(sites))
	for _, site := range sites {
		if site.ClientID == clientID {
			matched = append(matched, site)
		}
	}
	return matched
}

// SaveSite inserts or replaces a site by id.
func (r *Repository) SaveSite(ctx context.Context, site models.Site) (models.Site, error) {
	return save[models.Site](ctx, r, models.CollectionSites, site)
}

// DeleteSite removes a site by id.
func (r *Repository) DeleteSite(ctx context.Context, id string) error {
	return remove[models.Site](ctx, r, models.CollectionSites, id)
}

// Supplies returns the cached supplies catalogue.
func (r *Repository) Supplies(ctx context.Context) []models.SupplyItem {
	return load[models.SupplyItem](ctx, r, models.CollectionSupplies)
}

// SaveSupply inserts or replaces a supply item by id.
func (r *Repository) SaveSupply(ctx context.Context, item models.SupplyItem) (models.SupplyItem, error) {
	return save[models.SupplyItem](ctx, r, models.CollectionSupplies, item)
}

// DeleteSupply removes a supply item by id.
func (r *Repository) DeleteSupply(ctx context.Context, id string) error {
	return remove[models.SupplyItem](ctx, r, models.CollectionSupplies, id)
}

// ReplaceAll swaps every collection for the snapshot in a single store commit.
func (r *Repository) ReplaceAll(ctx context.Context, snapshot models.Snapshot) error {
	entries := make(map[string][]byte, 4)
	var err error
	for _, item := range []struct {
		collection models.Collection
		value      any
	}{
		{models.CollectionQuotes, nonNil(snapshot.Quotes)},
		{models.CollectionClients, nonNil(snapshot.Clients)},
		{models.CollectionSites, nonNil(snapshot.Sites)},
		{models.CollectionSupplies, nonNil(snapshot.Supplies)},
	} {
		raw, encErr := json.Marshal(item.value)
		if encErr != nil {
			err = multierr.Append(err, fmt.Errorf("encode %s: %w", item.collection, encErr))
			continue
		}
		entries[item.collection.Key()] = raw
	}
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.store.SetMany(ctx, entries); err != nil {
		return fmt.Errorf("storage: replace collections: %w", err)
	}
	return nil
}

// Clear removes every collection key. Metadata is left to the caller.
func (r *Repository) Clear(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	var err error
	for _, collection := range models.Collections() {
		if delErr := r.store.Delete(ctx, collection.Key()); delErr != nil {
			err = multierr.Append(err, fmt.Errorf("delete %s: %w", collection, delErr))
		}
	}
	return err
}

func load[T any, P record[T]](ctx context.Context, r *Repository, collection models.Collection) []T {
	raw, ok, err := r.store.Get(ctx, collection.Key())
	if err != nil {
		r.log.Warn("failed to read collection", zap.String("collection", string(collection)), zap.Error(err))
		return []T{}
	}
	if !ok {
		return []T{}
	}

	var decoded []T
	if err := json.Unmarshal(raw, &decoded); err != nil {
		r.log.Warn("discarding unreadable collection", zap.String("collection", string(collection)), zap.Error(err))
		return []T{}
	}

	valid := make([]T, 0, len(decoded))
	for i := range decoded {
		if err := validator.ValidateStruct(&decoded[i]); err != nil {
			r.log.Warn("skipping invalid record",
				zap.String("collection", string(collection)),
				zap.String("id", P(&decoded[i]).GetID()),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, decoded[i])
	}
	return valid
}

func find[T any, P record[T]](ctx context.Context, r *Repository, collection models.Collection, id string) (T, error) {
	id = strings.TrimSpace(id)
	for _, item := range load[T, P](ctx, r, collection) {
		if P(&item).GetID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

func save[T any, P record[T]](ctx context.Context, r *Repository, collection models.Collection, item T) (T, error) {
	P(&item).Touch(r.now().UTC())
	if err := validator.ValidateStruct(&item); err != nil {
		var zero T
		return zero, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	items := load[T, P](ctx, r, collection)
	id := P(&item).GetID()
	replaced := false
	for i := range items {
		if P(&items[i]).GetID() == id {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, item)
	}

	if err := r.write(ctx, collection, items); err != nil {
		var zero T
		return zero, err
	}
	return item, nil
}

func remove[T any, P record[T]](ctx context.Context, r *Repository, collection models.Collection, id string) error {
	id = strings.TrimSpace(id)
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	items := load[T, P](ctx, r, collection)
	kept := make([]T, 0, len(items))
	for i := range items {
		if P(&items[i]).GetID() != id {
			kept = append(kept, items[i])
		}
	}
	if len(kept) == len(items) {
		return ErrNotFound
	}
	return r.write(ctx, collection, kept)
}

func (r *Repository) write(ctx context.Context, collection models.Collection, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", collection, err)
	}
	if err := r.store.Set(ctx, collection.Key(), raw); err != nil {
		return fmt.Errorf("storage: write %s: %w", collection, err)
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
