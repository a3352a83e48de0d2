package cms

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"listing_editor/internal/adapters/observability"
	"listing_editor/internal/domain"
)

const (
	pageSize = 100
	maxPages = 50
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- Public API ----

// GetCollection returns every raw record of a lookup collection, following the
// CMS pagination. It tries the lookup namespace first and falls back to the
// collection at the API root.
func (c *Client) GetCollection(ctx context.Context, name string) ([]map[string]any, error) {
	candidates := []string{
		fmt.Sprintf("%s/lookups/%s", c.base, url.PathEscape(name)), // preferred
		fmt.Sprintf("%s/%s", c.base, url.PathEscape(name)),
	}
	var last error
	for _, u := range candidates {
		out, err := c.collect(ctx, name, u)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue
			}
			return nil, err
		}
		return out, nil
	}
	return nil, last
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("cms: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("cms: unauthorized")
	ErrForbidden    = errors.New("cms: forbidden")
)

// page is the envelope the CMS wraps list responses in. Some deployments return a
// bare array instead, which decodeRecords handles.
type page struct {
	Data  []map[string]any `json:"data"`
	Items []map[string]any `json:"items"`
	Meta  struct {
		Pagination struct {
			Page      int `json:"page"`
			PageCount int `json:"pageCount"`
		} `json:"pagination"`
	} `json:"meta"`
}

func (c *Client) collect(ctx context.Context, name, base string) ([]map[string]any, error) {
	var out []map[string]any
	for p := 1; p <= maxPages; p++ {
		u := fmt.Sprintf("%s?page=%d&pageSize=%d", base, p, pageSize)
		var raw json.RawMessage
		if err := c.get(ctx, name, u, &raw); err != nil {
			return nil, err
		}
		recs, more, err := decodeRecords(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s page %d: %w", name, p, err)
		}
		out = append(out, recs...)
		if !more {
			break
		}
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}

func decodeRecords(raw json.RawMessage) ([]map[string]any, bool, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, false, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var recs []map[string]any
		if err := json.Unmarshal(raw, &recs); err != nil {
			return nil, false, err
		}
		return recs, false, nil
	}
	var pg page
	if err := json.Unmarshal(raw, &pg); err != nil {
		return nil, false, err
	}
	recs := pg.Data
	if recs == nil {
		recs = pg.Items
	}
	more := pg.Meta.Pagination.Page > 0 && pg.Meta.Pagination.Page < pg.Meta.Pagination.PageCount
	return recs, more, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "listing-editor/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("cms", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("cms", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
