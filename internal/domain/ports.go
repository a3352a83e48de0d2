package domain

import (
	"context"
	"time"
)

// ListingRepository is the persistence API the submission pipeline hands payloads to.
type ListingRepository interface {
	Create(ctx context.Context, l Listing) (string, error)
	Update(ctx context.Context, id string, l Listing) error
	Get(ctx context.Context, id string) (Listing, error)
}

type LookupRepository interface {
	UpsertLookups(ctx context.Context, collection string, es []Entity) error
	LoadLookups(ctx context.Context) (*Lookups, error)
}

// CMSClient fetches raw reference collections from the content management system.
type CMSClient interface {
	GetCollection(ctx context.Context, name string) ([]map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type DraftStore interface {
	Save(ctx context.Context, d Draft, ttl time.Duration) error
	Load(ctx context.Context, id string) (Draft, error)
	Delete(ctx context.Context, id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev ListingEvent) error
}

// Draft is one wizard session: the accumulated state plus where the user is.
type Draft struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"` // create|edit
	ListingID string    `json:"listingId,omitempty"`
	Step      int       `json:"step"`
	Completed []int     `json:"completed"`
	State     State     `json:"state"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const (
	ModeCreate = "create"
	ModeEdit   = "edit"
)
