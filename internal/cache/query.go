package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Entry is a cached query result. Stale is derived at lookup time from
// the resource's invalidation marker; it is never stored.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
	Stale     bool            `json:"-"`
}

// QueryCache layers tenant-scoped query semantics over a byte cache.
// Invalidation is mutation-driven: a successful create/update/delete of
// a resource marks every cached query for that (company, resource)
// stale. Stale entries remain readable so pages can keep rendering them
// while a refetch is in flight, but they never count as fresh.
type QueryCache struct {
	backend Cache
	ttl     time.Duration
}

// NewQueryCache creates a query cache over the given backend. The TTL
// bounds how long entries (and stale markers) survive in the backend.
func NewQueryCache(backend Cache, ttl time.Duration) *QueryCache {
	return &QueryCache{backend: backend, ttl: ttl}
}

// Lookup retrieves the cached result for a query. The returned entry
// has Stale set when a mutation has invalidated the resource since the
// entry was fetched.
func (q *QueryCache) Lookup(ctx context.Context, companyID uuid.UUID, resource string, params url.Values) (*Entry, bool) {
	raw, err := q.backend.Get(ctx, Key(companyID, resource, params))
	if err != nil {
		if err != ErrCacheMiss {
			log.Warn().Err(err).Str("resource", resource).Msg("Cache lookup failed")
		}
		metrics.CacheMisses.WithLabelValues(resource).Inc()
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry, drop it
		_ = q.backend.Delete(ctx, Key(companyID, resource, params))
		metrics.CacheMisses.WithLabelValues(resource).Inc()
		return nil, false
	}

	if marked, at := q.markerTime(ctx, companyID, resource); marked && !entry.FetchedAt.After(at) {
		entry.Stale = true
	}

	metrics.CacheHits.WithLabelValues(resource).Inc()
	return &entry, true
}

// Get retrieves only a fresh cached result; stale entries read as a
// miss.
func (q *QueryCache) Get(ctx context.Context, companyID uuid.UUID, resource string, params url.Values) (*Entry, bool) {
	entry, ok := q.Lookup(ctx, companyID, resource, params)
	if !ok || entry.Stale {
		return nil, false
	}
	return entry, true
}

// Put stores a query result fetched now.
func (q *QueryCache) Put(ctx context.Context, companyID uuid.UUID, resource string, params url.Values, value json.RawMessage) error {
	entry := Entry{Value: value, FetchedAt: time.Now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := q.backend.Set(ctx, Key(companyID, resource, params), raw, q.ttl); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Invalidate marks every cached query for the company's resource stale.
// Called at mutation sites before any refetch is issued.
func (q *QueryCache) Invalidate(ctx context.Context, companyID uuid.UUID, resource string) error {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := q.backend.Set(ctx, markerKey(companyID, resource), []byte(now), q.ttl); err != nil {
		return fmt.Errorf("failed to write invalidation marker: %w", err)
	}
	return nil
}

// InvalidateCompany destroys every cached entry for a company. Used on
// tenant switch and logout so no data leaks across tenants.
func (q *QueryCache) InvalidateCompany(ctx context.Context, companyID uuid.UUID) error {
	if err := q.backend.Clear(ctx, CompanyPrefix(companyID)); err != nil {
		return fmt.Errorf("failed to clear company cache: %w", err)
	}
	return nil
}

// InvalidateAll destroys every cached entry.
func (q *QueryCache) InvalidateAll(ctx context.Context) error {
	if err := q.backend.Clear(ctx, "*"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

func (q *QueryCache) markerTime(ctx context.Context, companyID uuid.UUID, resource string) (bool, time.Time) {
	raw, err := q.backend.Get(ctx, markerKey(companyID, resource))
	if err != nil {
		return false, time.Time{}
	}
	nanos, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return false, time.Time{}
	}
	return true, time.Unix(0, nanos)
}

func markerKey(companyID uuid.UUID, resource string) string {
	return companyID.String() + ":" + resource + ":stale"
}
