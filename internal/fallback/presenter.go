package fallback

import (
	"encoding/json"
	"time"

	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/metrics"
	"github.com/replyhub/admin-gateway/internal/upstream"
)

// State is the render decision for a page
type State string

const (
	// StateLoading: first fetch in flight, nothing to show yet
	StateLoading State = "loading"
	// StateLive: last fetch succeeded
	StateLive State = "live"
	// StateStale: showing a cached value while a refetch is in flight
	// or after a refetch failed
	StateStale State = "stale"
	// StateFallbackDefault: fetch failed, no cache, rendering the
	// page's demo dataset (always marked as such)
	StateFallbackDefault State = "fallback_default"
	// StateError: fetch failed and the page has no sensible default
	StateError State = "error"
)

// Snapshot is what a page renders at one instant
type Snapshot struct {
	State     State              `json:"state"`
	Data      json.RawMessage    `json:"data,omitempty"`
	Demo      bool               `json:"demo,omitempty"`
	FetchedAt time.Time          `json:"fetched_at,omitempty"`
	Err       *upstream.APIError `json:"-"`
}

// Presenter decides, per page, whether to show live data, cached data,
// or the page's default dataset. Transitions are driven solely by
// fetch outcomes; there are no timers and no automatic retry.
type Presenter struct {
	resource    string
	defaultData json.RawMessage
}

// NewPresenter creates a presenter. defaultData may be nil for pages
// with no sensible fallback (write-heavy views surface errors instead).
func NewPresenter(resource string, defaultData json.RawMessage) *Presenter {
	return &Presenter{resource: resource, defaultData: defaultData}
}

// Begin returns the snapshot to render while a fetch is in flight:
// Stale when a cached value exists, Loading otherwise.
func (p *Presenter) Begin(cached *cache.Entry) Snapshot {
	if cached != nil {
		return Snapshot{State: StateStale, Data: cached.Value, FetchedAt: cached.FetchedAt}
	}
	return Snapshot{State: StateLoading}
}

// Complete resolves a finished fetch. A failure falls back to the
// cached value when one exists, then to the default dataset, and only
// then to an error state.
func (p *Presenter) Complete(data json.RawMessage, apiErr *upstream.APIError, cached *cache.Entry) Snapshot {
	if apiErr == nil {
		return Snapshot{State: StateLive, Data: data, FetchedAt: time.Now()}
	}

	if cached != nil {
		return Snapshot{State: StateStale, Data: cached.Value, FetchedAt: cached.FetchedAt, Err: apiErr}
	}

	if p.defaultData != nil {
		metrics.FallbackActivations.WithLabelValues(p.resource).Inc()
		return Snapshot{State: StateFallbackDefault, Data: p.defaultData, Demo: true, Err: apiErr}
	}

	return Snapshot{State: StateError, Err: apiErr}
}

// Fresh returns the snapshot for a fresh cache hit; no fetch needed.
func (p *Presenter) Fresh(cached *cache.Entry) Snapshot {
	return Snapshot{State: StateLive, Data: cached.Value, FetchedAt: cached.FetchedAt}
}
