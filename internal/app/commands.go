package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"listing_editor/internal/domain"
	"listing_editor/internal/pipeline"
	"listing_editor/internal/wizard"
)

// Submission is the outcome of one accepted submit.
type Submission struct {
	ID       string               `json:"id"`
	Payload  domain.Listing       `json:"payload"`
	Warnings pipeline.Diagnostics `json:"warnings"`
}

/********** submit **********/

type SubmitService struct {
	repo    domain.ListingRepository
	lookups LookupSource
	events  domain.EventPublisher
	cache   domain.Cache
}

func NewSubmitService(r domain.ListingRepository, lk LookupSource, ev domain.EventPublisher, c domain.Cache) *SubmitService {
	return &SubmitService{repo: r, lookups: lk, events: ev, cache: c}
}

// Create builds the payload from st and persists it as a new listing.
func (s *SubmitService) Create(ctx context.Context, st domain.State) (Submission, error) {
	l, diag, err := s.build(ctx, st)
	if err != nil {
		return Submission{}, err
	}
	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return Submission{}, fmt.Errorf("create listing: %w", err)
	}
	l.ID = id
	s.logWarnings(id, diag)
	s.publish(ctx, domain.EventListingCreated, id)
	return Submission{ID: id, Payload: l, Warnings: diag}, nil
}

// Update builds the payload from st and replaces listing id with it.
func (s *SubmitService) Update(ctx context.Context, id string, st domain.State) (Submission, error) {
	l, diag, err := s.build(ctx, st)
	if err != nil {
		return Submission{}, err
	}
	l.ID = id
	if err := s.repo.Update(ctx, id, l); err != nil {
		return Submission{}, fmt.Errorf("update listing %s: %w", id, err)
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, listingKey(id))
	}
	s.logWarnings(id, diag)
	s.publish(ctx, domain.EventListingUpdated, id)
	return Submission{ID: id, Payload: l, Warnings: diag}, nil
}

func (s *SubmitService) build(ctx context.Context, st domain.State) (domain.Listing, pipeline.Diagnostics, error) {
	lk, err := s.lookups.Current(ctx)
	if err != nil {
		return domain.Listing{}, nil, err
	}
	l, diag := pipeline.Run(st, lk)
	if diag == nil {
		diag = pipeline.Diagnostics{}
	}
	return l, diag, nil
}

func (s *SubmitService) logWarnings(id string, diag pipeline.Diagnostics) {
	if len(diag) == 0 {
		return
	}
	for _, w := range diag {
		log.Debug().
			Str("listing", id).
			Str("stage", w.Stage).
			Str("field", w.Field).
			Str("reason", w.Reason).
			Msg("field degraded")
	}
	log.Warn().
		Str("listing", id).
		Int("warnings", len(diag)).
		Strs("fields", diag.Fields()).
		Msg("listing saved with degraded fields")
}

// publish is best effort: the listing is already persisted.
func (s *SubmitService) publish(ctx context.Context, typ, id string) {
	if s.events == nil {
		return
	}
	ev := domain.ListingEvent{Type: typ, ListingID: id, At: time.Now().UnixMilli()}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("listing", id).Str("type", typ).Msg("event publish failed")
	}
}

/********** drafts **********/

type DraftService struct {
	store    domain.DraftStore
	ttl      time.Duration
	listings domain.ListingRepository
	lookups  LookupSource
	submit   *SubmitService
}

func NewDraftService(st domain.DraftStore, ttl time.Duration, r domain.ListingRepository, lk LookupSource, sub *SubmitService) *DraftService {
	return &DraftService{store: st, ttl: ttl, listings: r, lookups: lk, submit: sub}
}

// Start opens a new draft. With a listingID the draft is seeded from the persisted
// listing and submits as an update.
func (s *DraftService) Start(ctx context.Context, listingID string) (domain.Draft, error) {
	var seed domain.State
	if listingID != "" {
		l, err := s.listings.Get(ctx, listingID)
		if err != nil {
			return domain.Draft{}, err
		}
		lk, err := s.lookups.Current(ctx)
		if err != nil {
			return domain.Draft{}, err
		}
		seed = pipeline.Rehydrate(l, lk)
	}
	d := wizard.New(listingID, seed)
	if err := s.store.Save(ctx, d, s.ttl); err != nil {
		return domain.Draft{}, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

func (s *DraftService) Get(ctx context.Context, id string) (domain.Draft, error) {
	return s.store.Load(ctx, id)
}

// Step folds the patch produced by one wizard step into the draft.
func (s *DraftService) Step(ctx context.Context, id string, step int, patch domain.State) (domain.Draft, error) {
	d, err := s.store.Load(ctx, id)
	if err != nil {
		return domain.Draft{}, err
	}
	next, err := wizard.Reduce(d, step, patch)
	if err != nil {
		return domain.Draft{}, err
	}
	if err := s.store.Save(ctx, next, s.ttl); err != nil {
		return domain.Draft{}, fmt.Errorf("save draft: %w", err)
	}
	return next, nil
}

func (s *DraftService) Discard(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Submit runs the pipeline over a completed draft and discards the draft once the
// listing is persisted. A failed submit keeps the draft so the user can retry.
func (s *DraftService) Submit(ctx context.Context, id string) (Submission, error) {
	d, err := s.store.Load(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if !wizard.Ready(d) {
		return Submission{}, domain.ErrDraftIncomplete
	}
	var sub Submission
	if d.Mode == domain.ModeEdit {
		sub, err = s.submit.Update(ctx, d.ListingID, d.State)
	} else {
		sub, err = s.submit.Create(ctx, d.State)
	}
	if err != nil {
		return Submission{}, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Str("draft", id).Msg("discard draft failed")
	}
	return sub, nil
}

/********** lookup sync **********/

type LookupSyncService struct {
	cms   domain.CMSClient
	repo  domain.LookupRepository
	cache domain.Cache
}

func NewLookupSyncService(c domain.CMSClient, r domain.LookupRepository, cache domain.Cache) *LookupSyncService {
	return &LookupSyncService{cms: c, repo: r, cache: cache}
}

// SyncCollection copies one reference collection from the CMS into the lookup
// table. A collection the CMS does not expose is skipped, not failed.
func (s *LookupSyncService) SyncCollection(ctx context.Context, name string) (int, error) {
	raw, err := s.cms.GetCollection(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Str("collection", name).Msg("collection not exposed by cms, skipped")
			return 0, nil
		}
		return 0, fmt.Errorf("fetch %s: %w", name, err)
	}
	es := mapEntities(name, raw)
	if len(raw) > 0 && len(es) == 0 {
		// never wipe a collection because the CMS changed its record shape
		return 0, fmt.Errorf("sync %s: none of %d records mapped", name, len(raw))
	}
	if err := s.repo.UpsertLookups(ctx, name, es); err != nil {
		return 0, fmt.Errorf("upsert %s: %w", name, err)
	}
	return len(es), nil
}

// InvalidateSnapshot drops the cached snapshot so API instances reload from MySQL.
func (s *LookupSyncService) InvalidateSnapshot(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, LookupsCacheKey)
}
