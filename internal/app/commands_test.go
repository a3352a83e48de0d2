package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"listing_editor/internal/app"
	"listing_editor/internal/domain"
)

func TestSubmit_CreatePersistsAndPublishes(t *testing.T) {
	repo := newFakeListings()
	pub := &fakePublisher{}
	s := app.NewSubmitService(repo, staticLookups{fixtureLookups()}, pub, &fakeCache{})

	sub, err := s.Create(context.Background(), domain.State{
		"propertyType": "id-123",
		"title":        "Ocean View",
		"bedrooms":     "three",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.ID == "" || sub.Payload.ID != sub.ID {
		t.Fatalf("unexpected ids: %q / %q", sub.ID, sub.Payload.ID)
	}
	stored := repo.docs[sub.ID]
	if diff := cmp.Diff(domain.Bilingual{EN: "Villa", VI: "Biệt Thự"}, stored.Information.PropertyType); diff != "" {
		t.Fatalf("stored propertyType (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bedrooms"}, sub.Warnings.Fields()); diff != "" {
		t.Fatalf("warnings (-want +got):\n%s", diff)
	}
	if len(pub.events) != 1 || pub.events[0].Type != domain.EventListingCreated || pub.events[0].ListingID != sub.ID {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestSubmit_PersistenceErrorSurfacesVerbatim(t *testing.T) {
	boom := errors.New("duplicate entry")
	repo := newFakeListings()
	repo.err = boom
	pub := &fakePublisher{}
	s := app.NewSubmitService(repo, staticLookups{fixtureLookups()}, pub, nil)

	if _, err := s.Create(context.Background(), domain.State{"title": "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped persistence error, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
}

func TestSubmit_UpdateInvalidatesCacheAndToleratesBrokerFailure(t *testing.T) {
	repo := newFakeListings()
	repo.docs["l-7"] = domain.Listing{ID: "l-7"}
	cache := &fakeCache{}
	_ = cache.Set(context.Background(), "listing:l-7", domain.Listing{ID: "l-7"}, 60)
	s := app.NewSubmitService(repo, staticLookups{fixtureLookups()}, &fakePublisher{err: errors.New("broker down")}, cache)

	sub, err := s.Update(context.Background(), "l-7", domain.State{"title": "Renamed"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if sub.ID != "l-7" || repo.docs["l-7"].Information.Title != domain.Same("Renamed") {
		t.Fatalf("update not persisted: %+v", repo.docs["l-7"])
	}
	if _, ok := cache.store["listing:l-7"]; ok {
		t.Fatalf("stale listing left in cache")
	}

	if _, err := s.Update(context.Background(), "nope", domain.State{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func newDraftService(repo *fakeListings, drafts *fakeDrafts) *app.DraftService {
	lk := staticLookups{fixtureLookups()}
	sub := app.NewSubmitService(repo, lk, &fakePublisher{}, &fakeCache{})
	return app.NewDraftService(drafts, time.Hour, repo, lk, sub)
}

func TestDrafts_CreateFlow(t *testing.T) {
	repo, drafts := newFakeListings(), newFakeDrafts()
	s := newDraftService(repo, drafts)
	ctx := context.Background()

	d, err := s.Start(ctx, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if drafts.ttl != time.Hour {
		t.Fatalf("ttl = %v", drafts.ttl)
	}
	if _, err := s.Step(ctx, d.ID, 1, domain.State{"unit": "u1", "unitSize": "85.5"}); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if _, err := s.Submit(ctx, d.ID); !errors.Is(err, domain.ErrDraftIncomplete) {
		t.Fatalf("expected ErrDraftIncomplete, got %v", err)
	}
	for step := 2; step <= 4; step++ {
		if _, err := s.Step(ctx, d.ID, step, domain.State{}); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
	}

	sub, err := s.Submit(ctx, d.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Payload.Information.Unit != (domain.Bilingual{EN: "Apt", VI: "CH"}) || sub.Payload.Information.UnitSize != 85.5 {
		t.Fatalf("unexpected payload: %+v", sub.Payload.Information)
	}
	if _, err := s.Get(ctx, d.ID); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("draft should be discarded after submit, got %v", err)
	}
}

func TestDrafts_EditFlowUpdatesListing(t *testing.T) {
	repo, drafts := newFakeListings(), newFakeDrafts()
	repo.docs["l-1"] = domain.Listing{
		ID:          "l-1",
		Information: domain.Information{PropertyType: domain.Bilingual{EN: "Villa", VI: "Biệt Thự"}, Title: domain.Same("Old")},
	}
	s := newDraftService(repo, drafts)
	ctx := context.Background()

	d, err := s.Start(ctx, "l-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if d.Mode != domain.ModeEdit || d.State["propertyType"] != "id-123" {
		t.Fatalf("unexpected edit draft: mode=%s propertyType=%v", d.Mode, d.State["propertyType"])
	}
	if _, err := s.Step(ctx, d.ID, 1, domain.State{"title": "New"}); err != nil {
		t.Fatalf("step: %v", err)
	}

	sub, err := s.Submit(ctx, d.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.ID != "l-1" || len(repo.updated) != 1 {
		t.Fatalf("expected update of l-1, got id=%s updates=%v", sub.ID, repo.updated)
	}
	got := repo.docs["l-1"].Information
	if got.Title != domain.Same("New") || got.PropertyType != (domain.Bilingual{EN: "Villa", VI: "Biệt Thự"}) {
		t.Fatalf("unexpected stored information: %+v", got)
	}
}

func TestDrafts_FailedSubmitKeepsDraft(t *testing.T) {
	repo, drafts := newFakeListings(), newFakeDrafts()
	s := newDraftService(repo, drafts)
	ctx := context.Background()

	d, _ := s.Start(ctx, "")
	for step := 1; step <= 4; step++ {
		_, _ = s.Step(ctx, d.ID, step, domain.State{})
	}
	repo.err = errors.New("db down")

	if _, err := s.Submit(ctx, d.ID); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := s.Get(ctx, d.ID); err != nil {
		t.Fatalf("draft must survive a failed submit: %v", err)
	}
}

func TestDrafts_StartFromMissingListing(t *testing.T) {
	s := newDraftService(newFakeListings(), newFakeDrafts())
	if _, err := s.Start(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLookupSync_MapsAndSkipsMissingCollections(t *testing.T) {
	cms := &fakeCMS{collections: map[string][]map[string]any{
		"units": {
			{"_id": 7, "nameEn": "Square metre", "nameVi": "Mét vuông", "symbol": "m2", "status": "published"},
			{"id": "u2", "name": map[string]any{"en": "Lot"}, "active": false},
			{"id": "", "name": "orphan"},
			{"_id": 7, "name": "duplicate"},
		},
	}}
	repo := &fakeLookupRepo{}
	cache := &fakeCache{}
	s := app.NewLookupSyncService(cms, repo, cache)
	ctx := context.Background()

	n, err := s.SyncCollection(ctx, "units")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	want := []domain.Entity{
		{ID: "7", Name: domain.Bilingual{EN: "Square metre", VI: "Mét vuông"}, Symbol: &domain.Bilingual{EN: "m2", VI: "m2"}, Status: domain.StatusActive},
		{ID: "u2", Name: domain.Same("Lot"), Status: domain.StatusInactive},
	}
	if n != 2 {
		t.Fatalf("n = %d", n)
	}
	if diff := cmp.Diff(want, repo.upserts["units"]); diff != "" {
		t.Fatalf("entities (-want +got):\n%s", diff)
	}

	if n, err := s.SyncCollection(ctx, "zones"); err != nil || n != 0 {
		t.Fatalf("missing collection should be skipped, got n=%d err=%v", n, err)
	}

	if err := s.InvalidateSnapshot(ctx); err != nil || len(cache.dels) != 1 || cache.dels[0] != app.LookupsCacheKey {
		t.Fatalf("snapshot not invalidated: %v %v", err, cache.dels)
	}
}

func TestLookupSync_RefusesToWipeOnShapeChange(t *testing.T) {
	cms := &fakeCMS{collections: map[string][]map[string]any{
		"zones": {{"ref": "z1", "caption": "District 7"}},
	}}
	repo := &fakeLookupRepo{}
	s := app.NewLookupSyncService(cms, repo, nil)

	if _, err := s.SyncCollection(context.Background(), "zones"); err == nil {
		t.Fatalf("expected error when no record maps")
	}
	if _, ok := repo.upserts["zones"]; ok {
		t.Fatalf("collection must not be written")
	}
}

type failingCMS struct{ err error }

func (f failingCMS) GetCollection(context.Context, string) ([]map[string]any, error) {
	return nil, f.err
}

func TestLookupSync_OnlySkipsNotFoundSentinel(t *testing.T) {
	repo := &fakeLookupRepo{}

	skip := app.NewLookupSyncService(failingCMS{fmt.Errorf("cms: %w", domain.ErrNotFound)}, repo, nil)
	if n, err := skip.SyncCollection(context.Background(), "zones"); err != nil || n != 0 {
		t.Fatalf("wrapped ErrNotFound should be skipped, got n=%d err=%v", n, err)
	}

	// an unrelated failure whose text happens to say "not found" must surface
	fail := app.NewLookupSyncService(failingCMS{errors.New("dns: host not found")}, repo, nil)
	if _, err := fail.SyncCollection(context.Background(), "zones"); err == nil {
		t.Fatalf("expected error for a non-sentinel failure")
	}
	if len(repo.upserts) != 0 {
		t.Fatalf("nothing should be written: %+v", repo.upserts)
	}
}
