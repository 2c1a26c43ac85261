package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/fallback"
	"github.com/replyhub/admin-gateway/internal/form"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAuditor struct {
	entries []*models.AuditLog
}

func (a *recordingAuditor) Create(ctx context.Context, entry *models.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

type fixture struct {
	session *session.Store
	qcache  *cache.QueryCache
	company models.Company
	auditor *recordingAuditor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { mc.Close() })
	qc := cache.NewQueryCache(mc, 15*time.Minute)

	store := session.NewStore(session.NewMemoryStore(), []byte("0123456789abcdef0123456789abcdef"), time.Hour, qc)
	company := models.Company{
		ID:     uuid.New(),
		Name:   "Acme Replies",
		Email:  "owner@acme.test",
		Status: models.CompanyStatusActive,
	}
	require.NoError(t, store.SetCurrent(context.Background(), company))

	return &fixture{
		session: store,
		qcache:  qc,
		company: company,
		auditor: &recordingAuditor{},
	}
}

// countingFetcher serves version-stamped payloads and counts upstream calls
func countingFetcher(calls *int64, version *int64) Fetcher {
	return func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
		atomic.AddInt64(calls, 1)
		v := atomic.LoadInt64(version)
		return json.RawMessage(fmt.Sprintf(`{"version":%d}`, v)), nil
	}
}

func (f *fixture) page(fetch Fetcher, defaultData json.RawMessage) *Page {
	presenter := fallback.NewPresenter(models.ResourceProducts, defaultData)
	return NewPage(models.ResourceProducts, f.session, f.qcache, presenter, fetch, f.auditor)
}

func TestViewRequiresSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Clear(context.Background()))

	page := f.page(countingFetcher(new(int64), new(int64)), nil)
	_, err := page.View(context.Background(), models.ListParams{})
	assert.Equal(t, ErrLoggedOut, err)
}

func TestViewFetchesThenServesFromCache(t *testing.T) {
	f := newFixture(t)
	var calls, version int64
	page := f.page(countingFetcher(&calls, &version), nil)
	ctx := context.Background()

	snap, err := page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, fallback.StateLive, snap.State)
	assert.JSONEq(t, `{"version":0}`, string(snap.Data))
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))

	// A fresh cache hit must not reach the platform again
	snap, err = page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, fallback.StateLive, snap.State)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestViewKeysCacheByParams(t *testing.T) {
	f := newFixture(t)
	var calls, version int64
	page := f.page(countingFetcher(&calls, &version), nil)
	ctx := context.Background()

	_, err := page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	_, err = page.View(ctx, models.ListParams{Limit: 10})
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt64(&calls), "distinct params are distinct queries")
}

func TestMutateInvalidatesBeforeNextRead(t *testing.T) {
	f := newFixture(t)
	var calls, version int64
	page := f.page(countingFetcher(&calls, &version), nil)
	ctx := context.Background()

	snap, err := page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":0}`, string(snap.Data))

	time.Sleep(2 * time.Millisecond)
	atomic.StoreInt64(&version, 1)

	fc := form.New(nil)
	result, err := page.Mutate(ctx, "update_product", fc, func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		return json.RawMessage(`{"id":"1"}`), nil
	})
	require.NoError(t, err)
	require.Nil(t, result.Err)

	time.Sleep(2 * time.Millisecond)

	// The read after the mutation must not see the pre-mutation value
	snap, err = page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, fallback.StateLive, snap.State)
	assert.JSONEq(t, `{"version":1}`, string(snap.Data))
	assert.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestViewFallsBackToDefaultOnFailure(t *testing.T) {
	f := newFixture(t)
	failing := func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
		return nil, &upstream.APIError{Kind: upstream.KindNetwork, Message: "connection refused"}
	}
	page := f.page(failing, json.RawMessage(`[{"name":"Sample product"}]`))

	snap, err := page.View(context.Background(), models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, fallback.StateFallbackDefault, snap.State)
	assert.True(t, snap.Demo)
	assert.JSONEq(t, `[{"name":"Sample product"}]`, string(snap.Data))
}

func TestViewServesStaleWhenRefetchFails(t *testing.T) {
	f := newFixture(t)
	var calls, version int64
	var fail int64
	fetch := func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
		if atomic.LoadInt64(&fail) == 1 {
			return nil, &upstream.APIError{Kind: upstream.KindNetwork, Message: "connection refused"}
		}
		return countingFetcher(&calls, &version)(ctx, companyID, params)
	}
	page := f.page(fetch, json.RawMessage(`"demo"`))
	ctx := context.Background()

	_, err := page.View(ctx, models.ListParams{})
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, f.qcache.Invalidate(ctx, f.company.ID, models.ResourceProducts))
	atomic.StoreInt64(&fail, 1)

	// Cached data beats the demo dataset when a refetch fails
	snap, err := page.View(ctx, models.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, fallback.StateStale, snap.State)
	assert.JSONEq(t, `{"version":0}`, string(snap.Data))
	assert.False(t, snap.Demo)
}

func TestViewCompanyNotFoundClearsSession(t *testing.T) {
	f := newFixture(t)
	fetch := func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
		return nil, &upstream.APIError{Kind: upstream.KindBusiness, Message: "Company not found"}
	}
	page := f.page(fetch, nil)

	_, err := page.View(context.Background(), models.ListParams{})
	assert.Equal(t, ErrLoggedOut, err)
	assert.Nil(t, f.session.Current())
}

func TestCloseDiscardsInFlightFetch(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	fetch := func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError) {
		<-release
		return json.RawMessage(`{"late":true}`), nil
	}
	page := f.page(fetch, nil)
	ctx := context.Background()

	type viewResult struct {
		snap fallback.Snapshot
		err  error
	}
	done := make(chan viewResult, 1)
	go func() {
		snap, err := page.View(ctx, models.ListParams{})
		done <- viewResult{snap, err}
	}()

	page.Close()
	close(release)
	result := <-done

	require.NoError(t, result.err)
	assert.Equal(t, fallback.StateLoading, result.snap.State, "a closed page renders nothing new")
	assert.NotContains(t, string(result.snap.Data), "late")

	// The discarded result must not land in the cache either
	_, ok := f.qcache.Lookup(ctx, f.company.ID, models.ResourceProducts, nil)
	assert.False(t, ok)
}

func TestMutateValidationShortCircuits(t *testing.T) {
	f := newFixture(t)
	var calls int64
	page := f.page(countingFetcher(&calls, new(int64)), nil)

	fc := form.New(nil, form.Required("name"))
	result, err := page.Mutate(context.Background(), "create_product", fc, func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		atomic.AddInt64(&calls, 1)
		return json.RawMessage(`{}`), nil
	})
	require.NoError(t, err)
	assert.Contains(t, result.FieldErrors, "name")
	assert.EqualValues(t, 0, atomic.LoadInt64(&calls), "invalid forms never reach the platform")
	assert.Empty(t, f.auditor.entries)
}

func TestMutateBusinessErrorIsAudited(t *testing.T) {
	f := newFixture(t)
	page := f.page(countingFetcher(new(int64), new(int64)), nil)

	fc := form.New(nil)
	result, err := page.Mutate(context.Background(), "create_product", fc, func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		return nil, &upstream.APIError{Kind: upstream.KindBusiness, Message: "insufficient stock"}
	})
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	assert.Equal(t, upstream.KindBusiness, result.Err.Kind)

	require.Len(t, f.auditor.entries, 1)
	entry := f.auditor.entries[0]
	assert.Equal(t, "failure", entry.Status)
	assert.Equal(t, "create_product", entry.Action)
	assert.Equal(t, models.ResourceProducts, entry.ResourceType)
	assert.Equal(t, f.company.ID, entry.CompanyID)
}

func TestMutateSuccessIsAudited(t *testing.T) {
	f := newFixture(t)
	page := f.page(countingFetcher(new(int64), new(int64)), nil)

	fc := form.New(nil)
	result, err := page.Mutate(context.Background(), "delete_product", fc, func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		return json.RawMessage(`{"deleted":true}`), nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":true}`, string(result.Data))

	require.Len(t, f.auditor.entries, 1)
	assert.Equal(t, "success", f.auditor.entries[0].Status)
}

func TestMutateCompanyNotFoundClearsSession(t *testing.T) {
	f := newFixture(t)
	page := f.page(countingFetcher(new(int64), new(int64)), nil)

	fc := form.New(nil)
	_, err := page.Mutate(context.Background(), "create_product", fc, func(ctx context.Context, values map[string]string) (json.RawMessage, *upstream.APIError) {
		return nil, &upstream.APIError{Kind: upstream.KindHTTPStatus, Status: 404, Message: "company not found"}
	})
	assert.Equal(t, ErrLoggedOut, err)
	assert.Nil(t, f.session.Current())
}
