package shell

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/fallback"
	"github.com/replyhub/admin-gateway/internal/form"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/rs/zerolog/log"
)

// ErrLoggedOut is returned when no company session is active; callers
// redirect to authentication.
var ErrLoggedOut = errors.New("no active session")

// Fetcher loads one page's data from the platform
type Fetcher func(ctx context.Context, companyID uuid.UUID, params models.ListParams) (json.RawMessage, *upstream.APIError)

// Auditor records mutations. Satisfied by repository.AuditRepository.
type Auditor interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}

// Page wires one admin view together: session resolution, the cached
// fetch path, fallback policy, and mutation bookkeeping. Pages hold no
// domain state of their own; the query cache is the only shared state.
type Page struct {
	resource  string
	session   *session.Store
	qcache    *cache.QueryCache
	presenter *fallback.Presenter
	fetch     Fetcher
	auditor   Auditor

	mu     sync.Mutex
	closed bool
}

// NewPage creates a page shell. auditor may be nil.
func NewPage(resource string, sess *session.Store, qcache *cache.QueryCache, presenter *fallback.Presenter, fetch Fetcher, auditor Auditor) *Page {
	return &Page{
		resource:  resource,
		session:   sess,
		qcache:    qcache,
		presenter: presenter,
		fetch:     fetch,
		auditor:   auditor,
	}
}

// Resource returns the resource this page renders
func (p *Page) Resource() string {
	return p.resource
}

// Close marks the page unmounted. In-flight fetch results are
// discarded after this; no snapshot reflecting them is produced.
func (p *Page) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// View resolves what the page should render right now. A fresh cache
// hit short-circuits the fetch; a stale hit is rendered while the
// refetch runs; otherwise the fetch outcome drives the fallback policy.
func (p *Page) View(ctx context.Context, params models.ListParams) (fallback.Snapshot, error) {
	company := p.session.Current()
	if company == nil {
		return fallback.Snapshot{}, ErrLoggedOut
	}

	values := params.Values()
	cached, ok := p.qcache.Lookup(ctx, company.ID, p.resource, values)
	if ok && !cached.Stale {
		return p.presenter.Fresh(cached), nil
	}
	if !ok {
		cached = nil
	}

	data, apiErr := p.fetch(ctx, company.ID, params)

	if p.isClosed() {
		// Unmounted while the fetch was in flight: discard the result
		return p.presenter.Begin(cached), nil
	}

	if apiErr != nil {
		if apiErr.CompanyNotFound() {
			// The persisted company is stale or forged; the session is
			// unusable
			log.Warn().Str("resource", p.resource).Msg("Platform rejected session company, clearing session")
			if err := p.session.Clear(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clear session")
			}
			return fallback.Snapshot{}, ErrLoggedOut
		}
		log.Warn().Err(apiErr).Str("resource", p.resource).Msg("Fetch failed")
		return p.presenter.Complete(nil, apiErr, cached), nil
	}

	if err := p.qcache.Put(ctx, company.ID, p.resource, values, data); err != nil {
		log.Warn().Err(err).Str("resource", p.resource).Msg("Failed to cache fetch result")
	}
	return p.presenter.Complete(data, nil, cached), nil
}

// MutationResult is the outcome of a form submit through the page
type MutationResult struct {
	Data        json.RawMessage
	FieldErrors map[string]string
	Err         *upstream.APIError
	NoOp        bool // a submit was already in flight
}

// Mutate validates the form and runs the mutation. On success the
// resource's cache entries are invalidated synchronously, before any
// caller-issued refetch can race ahead of the invalidation.
func (p *Page) Mutate(ctx context.Context, action string, fc *form.Controller, op form.SubmitFunc) (*MutationResult, error) {
	company := p.session.Current()
	if company == nil {
		return nil, ErrLoggedOut
	}

	if violations := fc.Validate(); len(violations) > 0 {
		return &MutationResult{FieldErrors: violations}, nil
	}

	start := time.Now()
	data, apiErr := fc.Submit(ctx, op)
	if data == nil && apiErr == nil {
		return &MutationResult{NoOp: true}, nil
	}

	if apiErr != nil {
		if apiErr.CompanyNotFound() {
			log.Warn().Str("resource", p.resource).Msg("Platform rejected session company, clearing session")
			if err := p.session.Clear(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to clear session")
			}
			return nil, ErrLoggedOut
		}
		p.audit(ctx, company.ID, action, "failure", apiErr.Error(), time.Since(start))
		return &MutationResult{Err: apiErr}, nil
	}

	// Invalidation happens in-line so the next read cannot observe the
	// pre-mutation value as fresh
	if err := p.qcache.Invalidate(ctx, company.ID, p.resource); err != nil {
		log.Error().Err(err).Str("resource", p.resource).Msg("Failed to invalidate cache after mutation")
	}

	p.audit(ctx, company.ID, action, "success", "", time.Since(start))
	return &MutationResult{Data: data}, nil
}

func (p *Page) audit(ctx context.Context, companyID uuid.UUID, action, status, errMsg string, elapsed time.Duration) {
	if p.auditor == nil {
		return
	}
	entry := &models.AuditLog{
		CompanyID:    companyID,
		Action:       action,
		ResourceType: p.resource,
		Status:       status,
		ErrorMessage: errMsg,
		Duration:     elapsed.Milliseconds(),
	}
	if err := p.auditor.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("Failed to write audit log")
	}
}
