package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/rs/zerolog/log"
)

// Invalidator is notified when the active company changes so no cached
// data survives a tenant switch. Satisfied by cache.QueryCache.
type Invalidator interface {
	InvalidateAll(ctx context.Context) error
}

// Store holds the active company for the session. Reads are
// synchronous and never touch I/O; writes go through the ticket store
// so the session survives a restart. Persisted identity is treated as
// untrusted: it is verified on load and re-validated by the platform on
// every request.
type Store struct {
	mu          sync.RWMutex
	current     *models.Company
	tickets     TicketStore
	secret      []byte
	ttl         time.Duration
	invalidator Invalidator
}

// NewStore creates a session store. The invalidator may be nil (tests
// that do not care about cache coupling).
func NewStore(tickets TicketStore, secret []byte, ttl time.Duration, invalidator Invalidator) *Store {
	return &Store{
		tickets:     tickets,
		secret:      secret,
		ttl:         ttl,
		invalidator: invalidator,
	}
}

// Init restores a persisted session. A missing, malformed, or tampered
// ticket is not an error: the session simply starts logged out.
func (s *Store) Init() {
	raw, err := s.tickets.Load()
	if err != nil {
		if err != ErrNoTicket {
			log.Warn().Err(err).Msg("Failed to load session ticket")
		}
		return
	}

	company, err := decodeTicket(raw, s.secret)
	if err != nil {
		log.Warn().Err(err).Msg("Discarding unusable session ticket")
		_ = s.tickets.Clear()
		return
	}

	s.mu.Lock()
	s.current = company
	s.mu.Unlock()
	log.Info().Str("company_id", company.ID.String()).Msg("Session restored")
}

// Current returns the active company, or nil when logged out. The
// returned value is a copy; callers never share session state.
func (s *Store) Current() *models.Company {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	company := *s.current
	return &company
}

// SetCurrent replaces the active company, persists it write-through,
// and invalidates the whole query cache so nothing leaks across the
// tenant switch.
func (s *Store) SetCurrent(ctx context.Context, company models.Company) error {
	if company.ID == uuid.Nil {
		return fmt.Errorf("company id is required")
	}

	ticket, err := encodeTicket(&company, s.secret, s.ttl)
	if err != nil {
		return err
	}
	if err := s.tickets.Save(ticket); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = &company
	s.mu.Unlock()

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate cache on session change")
		}
	}

	log.Info().Str("company_id", company.ID.String()).Str("company", company.Name).Msg("Session started")
	return nil
}

// Clear ends the session: the ticket is removed, the cache is purged,
// and Current() reads nil until the next login.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	if err := s.tickets.Clear(); err != nil {
		return err
	}

	if s.invalidator != nil {
		if err := s.invalidator.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate cache on logout")
		}
	}

	log.Info().Msg("Session cleared")
	return nil
}
