package fallback

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var netErr = &upstream.APIError{Kind: upstream.KindNetwork, Message: "connection refused"}

func TestBeginWithoutCacheIsLoading(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, json.RawMessage(`[]`))
	snap := p.Begin(nil)
	assert.Equal(t, StateLoading, snap.State)
	assert.Nil(t, snap.Data)
}

func TestBeginWithCacheIsStale(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, nil)
	fetched := time.Now().Add(-time.Minute)
	snap := p.Begin(&cache.Entry{Value: json.RawMessage(`"cached"`), FetchedAt: fetched})

	assert.Equal(t, StateStale, snap.State)
	assert.Equal(t, json.RawMessage(`"cached"`), snap.Data)
	assert.Equal(t, fetched, snap.FetchedAt)
}

func TestCompleteSuccessIsLive(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, json.RawMessage(`[]`))
	snap := p.Complete(json.RawMessage(`"live"`), nil, nil)

	assert.Equal(t, StateLive, snap.State)
	assert.Equal(t, json.RawMessage(`"live"`), snap.Data)
	assert.False(t, snap.Demo)
	assert.Nil(t, snap.Err)
}

func TestCompleteFailurePrefersCacheOverDefault(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, json.RawMessage(`"demo"`))
	snap := p.Complete(nil, netErr, &cache.Entry{Value: json.RawMessage(`"cached"`)})

	assert.Equal(t, StateStale, snap.State)
	assert.Equal(t, json.RawMessage(`"cached"`), snap.Data)
	assert.False(t, snap.Demo)
	assert.Equal(t, netErr, snap.Err)
}

func TestCompleteFailureFallsBackToDefault(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, json.RawMessage(`"demo"`))
	snap := p.Complete(nil, netErr, nil)

	require.Equal(t, StateFallbackDefault, snap.State)
	assert.Equal(t, json.RawMessage(`"demo"`), snap.Data)
	assert.True(t, snap.Demo, "demo data must never pass as live")
	assert.NotEqual(t, StateLive, snap.State)
}

func TestCompleteFailureWithoutDefaultIsError(t *testing.T) {
	p := NewPresenter(models.ResourceOrders, nil)
	snap := p.Complete(nil, netErr, nil)

	assert.Equal(t, StateError, snap.State)
	assert.Nil(t, snap.Data)
	assert.Equal(t, netErr, snap.Err)
}

func TestFreshHit(t *testing.T) {
	p := NewPresenter(models.ResourceProducts, nil)
	fetched := time.Now().Add(-time.Second)
	snap := p.Fresh(&cache.Entry{Value: json.RawMessage(`"fresh"`), FetchedAt: fetched})

	assert.Equal(t, StateLive, snap.State)
	assert.Equal(t, json.RawMessage(`"fresh"`), snap.Data)
	assert.Equal(t, fetched, snap.FetchedAt)
}

func TestSnapshotErrorNotSerialized(t *testing.T) {
	snap := Snapshot{State: StateError, Err: netErr}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "connection refused")
}
