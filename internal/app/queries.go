package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"listing_editor/internal/domain"
	"listing_editor/internal/pipeline"
)

// LookupsCacheKey holds the JSON snapshot of every reference collection.
const LookupsCacheKey = "lookups:v1"

// LookupSource hands out the current reference snapshot.
type LookupSource interface {
	Current(ctx context.Context) (*domain.Lookups, error)
}

// LookupCatalog keeps the current snapshot behind an atomic pointer. Readers get a
// snapshot that is never mutated; Refresh replaces it wholesale.
type LookupCatalog struct {
	repo     domain.LookupRepository
	cache    domain.Cache
	cacheTTL time.Duration
	cur      atomic.Pointer[domain.Lookups]
}

func NewLookupCatalog(r domain.LookupRepository, c domain.Cache, ttl time.Duration) *LookupCatalog {
	return &LookupCatalog{repo: r, cache: c, cacheTTL: ttl}
}

// Current returns the loaded snapshot, loading it on first use.
func (s *LookupCatalog) Current(ctx context.Context) (*domain.Lookups, error) {
	if lk := s.cur.Load(); lk != nil {
		return lk, nil
	}
	return s.Refresh(ctx)
}

// Refresh reloads the snapshot (cache first, then the repository) and publishes it.
func (s *LookupCatalog) Refresh(ctx context.Context) (*domain.Lookups, error) {
	var lk domain.Lookups
	if ok, _ := s.cache.Get(ctx, LookupsCacheKey, &lk); ok {
		s.cur.Store(&lk)
		return &lk, nil
	}
	fresh, err := s.repo.LoadLookups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lookups: %w", err)
	}
	_ = s.cache.Set(ctx, LookupsCacheKey, fresh, int(s.cacheTTL.Seconds()))
	s.cur.Store(fresh)
	return fresh, nil
}

// Watch refreshes the snapshot every interval until ctx is done. Failed refreshes
// keep serving the previous snapshot.
func (s *LookupCatalog) Watch(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("lookup refresh failed")
			}
		}
	}
}

// ListingQueryService reads persisted listings for display and for edit mode.
type ListingQueryService struct {
	repo     domain.ListingRepository
	lookups  LookupSource
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewListingQueryService(r domain.ListingRepository, lk LookupSource, c domain.Cache, ttl time.Duration) *ListingQueryService {
	return &ListingQueryService{repo: r, lookups: lk, cache: c, cacheTTL: ttl}
}

func listingKey(id string) string { return "listing:" + id }

func (s *ListingQueryService) Get(ctx context.Context, id string) (domain.Listing, error) {
	key := listingKey(id)
	var l domain.Listing
	if ok, _ := s.cache.Get(ctx, key, &l); ok {
		return l, nil
	}
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	_ = s.cache.Set(ctx, key, l, int(s.cacheTTL.Seconds()))
	return l, nil
}

// EditState loads a listing and flattens it into wizard state.
func (s *ListingQueryService) EditState(ctx context.Context, id string) (domain.State, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lk, err := s.lookups.Current(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Rehydrate(l, lk), nil
}
