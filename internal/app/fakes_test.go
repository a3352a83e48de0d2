package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"listing_editor/internal/domain"
)

// ---- fakes ----

type fakeListings struct {
	mu      sync.Mutex
	docs    map[string]domain.Listing
	seq     int
	err     error
	gets    int
	updated []string
}

func newFakeListings() *fakeListings { return &fakeListings{docs: map[string]domain.Listing{}} }

func (f *fakeListings) Create(ctx context.Context, l domain.Listing) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.seq++
	id := fmt.Sprintf("l-%d", f.seq)
	l.ID = id
	f.docs[id] = l
	return id, nil
}

func (f *fakeListings) Update(ctx context.Context, id string, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.docs[id]; !ok {
		return domain.ErrNotFound
	}
	f.docs[id] = l
	f.updated = append(f.updated, id)
	return nil
}

func (f *fakeListings) Get(ctx context.Context, id string) (domain.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	l, ok := f.docs[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return l, nil
}

type fakeLookupRepo struct {
	lk      *domain.Lookups
	loads   int
	upserts map[string][]domain.Entity
	err     error
}

func (f *fakeLookupRepo) UpsertLookups(ctx context.Context, collection string, es []domain.Entity) error {
	if f.err != nil {
		return f.err
	}
	if f.upserts == nil {
		f.upserts = map[string][]domain.Entity{}
	}
	f.upserts[collection] = es
	return nil
}

func (f *fakeLookupRepo) LoadLookups(ctx context.Context) (*domain.Lookups, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.lk, nil
}

// fakeCache stores JSON like the redis adapter so cached values never alias.
type fakeCache struct {
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeDrafts struct {
	docs map[string]domain.Draft
	ttl  time.Duration
}

func newFakeDrafts() *fakeDrafts { return &fakeDrafts{docs: map[string]domain.Draft{}} }

func (f *fakeDrafts) Save(ctx context.Context, d domain.Draft, ttl time.Duration) error {
	f.docs[d.ID] = d
	f.ttl = ttl
	return nil
}

func (f *fakeDrafts) Load(ctx context.Context, id string) (domain.Draft, error) {
	d, ok := f.docs[id]
	if !ok {
		return domain.Draft{}, domain.ErrDraftNotFound
	}
	return d, nil
}

func (f *fakeDrafts) Delete(ctx context.Context, id string) error {
	delete(f.docs, id)
	return nil
}

type fakePublisher struct {
	events []domain.ListingEvent
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, ev domain.ListingEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

type fakeCMS struct {
	collections map[string][]map[string]any
}

func (f *fakeCMS) GetCollection(ctx context.Context, name string) ([]map[string]any, error) {
	raw, ok := f.collections[name]
	if !ok {
		return nil, fmt.Errorf("cms: %w", domain.ErrNotFound)
	}
	return raw, nil
}

type staticLookups struct{ lk *domain.Lookups }

func (s staticLookups) Current(ctx context.Context) (*domain.Lookups, error) { return s.lk, nil }

func fixtureLookups() *domain.Lookups {
	return &domain.Lookups{
		PropertyTypes: []domain.Entity{
			{ID: "id-123", Name: domain.Bilingual{EN: "Villa", VI: "Biệt Thự"}, Status: domain.StatusActive},
		},
		Units: []domain.Entity{
			{ID: "u1", Name: domain.Bilingual{EN: "Apartment", VI: "Căn Hộ"}, Symbol: &domain.Bilingual{EN: "Apt", VI: "CH"}, Status: domain.StatusActive},
		},
	}
}
