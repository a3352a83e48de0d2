package redisad_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	redisad "listing_editor/internal/adapters/redis"
	"listing_editor/internal/domain"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redisad.Cache, *redisad.DraftStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redisad.NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = rc.Close() })
	return mr, redisad.New(rc), redisad.NewDraftStore(rc)
}

func TestCache_SetGetDel(t *testing.T) {
	mr, cache, _ := newClient(t)
	ctx := context.Background()

	var lk domain.Lookups
	if ok, err := cache.Get(ctx, "lookups", &lk); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	in := domain.Lookups{Zones: []domain.Entity{{ID: "z1", Name: domain.Same("Quận 7"), Status: domain.StatusActive}}}
	if err := cache.Set(ctx, "lookups", in, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("lookups"); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}
	if ok, err := cache.Get(ctx, "lookups", &lk); !ok || err != nil {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(in, lk); diff != "" {
		t.Fatalf("cached value (-want +got):\n%s", diff)
	}

	if err := cache.Del(ctx, "lookups"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if mr.Exists("lookups") {
		t.Fatalf("key still present after Del")
	}
}

func TestCache_GarbageIsMiss(t *testing.T) {
	mr, cache, _ := newClient(t)
	_ = mr.Set("lookups", "{not json")

	var lk domain.Lookups
	if ok, err := cache.Get(context.Background(), "lookups", &lk); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestDraftStore_RoundTripAndExpiry(t *testing.T) {
	mr, _, drafts := newClient(t)
	ctx := context.Background()

	d := domain.Draft{
		ID:        "d1",
		Mode:      domain.ModeEdit,
		ListingID: "l1",
		Step:      2,
		Completed: []int{1},
		State:     domain.State{"title": "Ocean View", "images": []any{"a.jpg"}},
		UpdatedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := drafts.Save(ctx, d, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := drafts.Load(ctx, "d1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(d, got); diff != "" {
		t.Fatalf("draft (-want +got):\n%s", diff)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := drafts.Load(ctx, "d1"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound after expiry, got %v", err)
	}
}

func TestDraftStore_Delete(t *testing.T) {
	_, _, drafts := newClient(t)
	ctx := context.Background()

	if err := drafts.Save(ctx, domain.Draft{ID: "d2", State: domain.State{}}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := drafts.Delete(ctx, "d2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := drafts.Load(ctx, "d2"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}
