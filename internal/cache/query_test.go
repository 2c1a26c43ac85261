package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQueryCache(t *testing.T) *QueryCache {
	t.Helper()
	mc := NewMemoryCache()
	t.Cleanup(func() { mc.Close() })
	return NewQueryCache(mc, 15*time.Minute)
}

func TestQueryCachePutLookup(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	company := uuid.New()

	value := json.RawMessage(`[{"name":"widget"}]`)
	require.NoError(t, qc.Put(ctx, company, models.ResourceProducts, nil, value))

	entry, ok := qc.Lookup(ctx, company, models.ResourceProducts, nil)
	require.True(t, ok)
	assert.False(t, entry.Stale)
	assert.Equal(t, value, entry.Value)
	assert.WithinDuration(t, time.Now(), entry.FetchedAt, time.Second)
}

func TestQueryCacheParamsKeying(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	company := uuid.New()

	paged := url.Values{"limit": {"10"}}
	require.NoError(t, qc.Put(ctx, company, models.ResourceOrders, paged, json.RawMessage(`"paged"`)))

	_, ok := qc.Lookup(ctx, company, models.ResourceOrders, nil)
	assert.False(t, ok, "different params must not share an entry")

	entry, ok := qc.Lookup(ctx, company, models.ResourceOrders, paged)
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`"paged"`), entry.Value)
}

func TestQueryCacheInvalidateMarksStale(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	company := uuid.New()

	require.NoError(t, qc.Put(ctx, company, models.ResourceProducts, nil, json.RawMessage(`"v1"`)))
	require.NoError(t, qc.Invalidate(ctx, company, models.ResourceProducts))

	// After a mutation the entry survives for stale rendering but never
	// reads as fresh
	entry, ok := qc.Lookup(ctx, company, models.ResourceProducts, nil)
	require.True(t, ok)
	assert.True(t, entry.Stale)

	_, ok = qc.Get(ctx, company, models.ResourceProducts, nil)
	assert.False(t, ok, "stale entry must read as a miss for freshness")

	// A value fetched after the mutation is fresh again
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, qc.Put(ctx, company, models.ResourceProducts, nil, json.RawMessage(`"v2"`)))

	entry, ok = qc.Get(ctx, company, models.ResourceProducts, nil)
	require.True(t, ok)
	assert.False(t, entry.Stale)
	assert.Equal(t, json.RawMessage(`"v2"`), entry.Value)
}

func TestQueryCacheInvalidateScopedToResource(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	company := uuid.New()

	require.NoError(t, qc.Put(ctx, company, models.ResourceProducts, nil, json.RawMessage(`"p"`)))
	require.NoError(t, qc.Put(ctx, company, models.ResourceOrders, nil, json.RawMessage(`"o"`)))
	require.NoError(t, qc.Invalidate(ctx, company, models.ResourceProducts))

	entry, ok := qc.Lookup(ctx, company, models.ResourceOrders, nil)
	require.True(t, ok)
	assert.False(t, entry.Stale, "other resources must stay fresh")
}

func TestQueryCacheCompanyIsolation(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	companyA := uuid.New()
	companyB := uuid.New()

	for _, resource := range []string{models.ResourceProducts, models.ResourceOrders, models.ResourceConversations} {
		require.NoError(t, qc.Put(ctx, companyA, resource, nil, json.RawMessage(`"a"`)))
		require.NoError(t, qc.Put(ctx, companyB, resource, nil, json.RawMessage(`"b"`)))
	}

	require.NoError(t, qc.InvalidateCompany(ctx, companyA))

	for _, resource := range []string{models.ResourceProducts, models.ResourceOrders, models.ResourceConversations} {
		_, ok := qc.Lookup(ctx, companyA, resource, nil)
		assert.False(t, ok, "company A entries must be destroyed")

		entry, ok := qc.Lookup(ctx, companyB, resource, nil)
		require.True(t, ok)
		assert.Equal(t, json.RawMessage(`"b"`), entry.Value)
	}
}

func TestQueryCacheInvalidateAll(t *testing.T) {
	qc := newQueryCache(t)
	ctx := context.Background()
	companyA := uuid.New()
	companyB := uuid.New()

	require.NoError(t, qc.Put(ctx, companyA, models.ResourceProducts, nil, json.RawMessage(`"a"`)))
	require.NoError(t, qc.Put(ctx, companyB, models.ResourcePlans, nil, json.RawMessage(`"b"`)))

	require.NoError(t, qc.InvalidateAll(ctx))

	_, ok := qc.Lookup(ctx, companyA, models.ResourceProducts, nil)
	assert.False(t, ok)
	_, ok = qc.Lookup(ctx, companyB, models.ResourcePlans, nil)
	assert.False(t, ok)
}
