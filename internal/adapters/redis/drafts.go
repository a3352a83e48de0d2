package redisad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"listing_editor/internal/domain"
)

const draftPrefix = "draft:"

// DraftStore keeps wizard drafts as JSON documents that expire after ttl of
// inactivity; every Save refreshes the expiry.
type DraftStore struct{ c *redis.Client }

func NewDraftStore(c *redis.Client) *DraftStore { return &DraftStore{c: c} }

func (s *DraftStore) Save(ctx context.Context, d domain.Draft, ttl time.Duration) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", d.ID, err)
	}
	return s.c.Set(ctx, draftPrefix+d.ID, b, ttl).Err()
}

func (s *DraftStore) Load(ctx context.Context, id string) (domain.Draft, error) {
	b, err := s.c.Get(ctx, draftPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Draft{}, domain.ErrDraftNotFound
	}
	if err != nil {
		return domain.Draft{}, err
	}
	var d domain.Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Draft{}, fmt.Errorf("decode draft %s: %w", id, err)
	}
	if d.State == nil {
		d.State = domain.State{}
	}
	return d, nil
}

func (s *DraftStore) Delete(ctx context.Context, id string) error {
	return s.c.Del(ctx, draftPrefix+id).Err()
}
