package session

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type countingInvalidator struct {
	invalidateAll int64
}

func (c *countingInvalidator) InvalidateAll(ctx context.Context) error {
	atomic.AddInt64(&c.invalidateAll, 1)
	return nil
}

func testCompany() models.Company {
	return models.Company{
		ID:     uuid.New(),
		Name:   "Acme Replies",
		Email:  "owner@acme.test",
		Status: models.CompanyStatusActive,
	}
}

func TestStoreStartsLoggedOut(t *testing.T) {
	store := NewStore(NewMemoryStore(), testSecret, time.Hour, nil)
	store.Init()
	assert.Nil(t, store.Current())
}

func TestSetCurrentAndCurrent(t *testing.T) {
	store := NewStore(NewMemoryStore(), testSecret, time.Hour, nil)
	company := testCompany()

	require.NoError(t, store.SetCurrent(context.Background(), company))

	current := store.Current()
	require.NotNil(t, current)
	assert.Equal(t, company.ID, current.ID)
	assert.Equal(t, company.Name, current.Name)

	// Current returns a copy, mutating it must not touch the store
	current.Name = "changed"
	assert.Equal(t, company.Name, store.Current().Name)
}

func TestSessionSurvivesRestart(t *testing.T) {
	tickets := NewMemoryStore()
	company := testCompany()

	store := NewStore(tickets, testSecret, time.Hour, nil)
	require.NoError(t, store.SetCurrent(context.Background(), company))

	restarted := NewStore(tickets, testSecret, time.Hour, nil)
	restarted.Init()

	current := restarted.Current()
	require.NotNil(t, current)
	assert.Equal(t, company.ID, current.ID)
	assert.Equal(t, company.Email, current.Email)
	assert.Equal(t, company.Status, current.Status)
}

func TestCorruptedTicketReadsAsLoggedOut(t *testing.T) {
	tickets := NewMemoryStore()
	require.NoError(t, tickets.Save([]byte(`{not valid`)))

	store := NewStore(tickets, testSecret, time.Hour, nil)
	store.Init()

	assert.Nil(t, store.Current())

	// The unusable ticket is dropped
	_, err := tickets.Load()
	assert.Equal(t, ErrNoTicket, err)
}

func TestTamperedTicketReadsAsLoggedOut(t *testing.T) {
	tickets := NewMemoryStore()
	company := testCompany()

	store := NewStore(tickets, testSecret, time.Hour, nil)
	require.NoError(t, store.SetCurrent(context.Background(), company))

	restarted := NewStore(tickets, []byte("another-secret-another-secret!!!"), time.Hour, nil)
	restarted.Init()
	assert.Nil(t, restarted.Current())
}

func TestSetCurrentInvalidatesCache(t *testing.T) {
	inv := &countingInvalidator{}
	store := NewStore(NewMemoryStore(), testSecret, time.Hour, inv)

	require.NoError(t, store.SetCurrent(context.Background(), testCompany()))
	assert.EqualValues(t, 1, atomic.LoadInt64(&inv.invalidateAll))

	// Switching tenants purges again so nothing leaks across
	require.NoError(t, store.SetCurrent(context.Background(), testCompany()))
	assert.EqualValues(t, 2, atomic.LoadInt64(&inv.invalidateAll))
}

func TestClear(t *testing.T) {
	inv := &countingInvalidator{}
	tickets := NewMemoryStore()
	store := NewStore(tickets, testSecret, time.Hour, inv)

	require.NoError(t, store.SetCurrent(context.Background(), testCompany()))
	require.NoError(t, store.Clear(context.Background()))

	assert.Nil(t, store.Current())
	_, err := tickets.Load()
	assert.Equal(t, ErrNoTicket, err)
	assert.EqualValues(t, 2, atomic.LoadInt64(&inv.invalidateAll))
}

func TestSetCurrentRejectsEmptyCompany(t *testing.T) {
	store := NewStore(NewMemoryStore(), testSecret, time.Hour, nil)
	err := store.SetCurrent(context.Background(), models.Company{})
	assert.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", ".session")
	fs := NewFileStore(path)

	_, err := fs.Load()
	assert.Equal(t, ErrNoTicket, err)

	require.NoError(t, fs.Save([]byte("ticket")))
	raw, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("ticket"), raw)

	require.NoError(t, fs.Clear())
	_, err = fs.Load()
	assert.Equal(t, ErrNoTicket, err)

	// Clearing twice is fine
	require.NoError(t, fs.Clear())
}

func TestExpiredTicketReadsAsLoggedOut(t *testing.T) {
	tickets := NewMemoryStore()
	store := NewStore(tickets, testSecret, -time.Minute, nil)
	require.NoError(t, store.SetCurrent(context.Background(), testCompany()))

	restarted := NewStore(tickets, testSecret, time.Hour, nil)
	restarted.Init()
	assert.Nil(t, restarted.Current())
}
