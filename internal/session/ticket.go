package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/models"
)

// TicketStore persists the session ticket across restarts. It is a
// durability layer, not a security boundary: whatever it returns is
// re-verified before use.
type TicketStore interface {
	Load() ([]byte, error)
	Save(ticket []byte) error
	Clear() error
}

// ErrNoTicket is returned when no ticket has been persisted
var ErrNoTicket = errors.New("no session ticket")

// FileStore persists the ticket to a single file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed ticket store
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted ticket
func (f *FileStore) Load() ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNoTicket
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session ticket: %w", err)
	}
	return raw, nil
}

// Save writes the ticket, creating parent directories as needed
func (f *FileStore) Save(ticket []byte) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create ticket directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, ticket, 0o600); err != nil {
		return fmt.Errorf("failed to write session ticket: %w", err)
	}
	return nil
}

// Clear removes the persisted ticket
func (f *FileStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session ticket: %w", err)
	}
	return nil
}

// MemoryStore keeps the ticket in memory; used by tests
type MemoryStore struct {
	mu     sync.Mutex
	ticket []byte
}

// NewMemoryStore creates an in-memory ticket store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored ticket
func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticket == nil {
		return nil, ErrNoTicket
	}
	out := make([]byte, len(m.ticket))
	copy(out, m.ticket)
	return out, nil
}

// Save stores the ticket
func (m *MemoryStore) Save(ticket []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = make([]byte, len(ticket))
	copy(m.ticket, ticket)
	return nil
}

// Clear removes the ticket
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = nil
	return nil
}

// encodeTicket signs the company into a ticket
func encodeTicket(company *models.Company, secret []byte, ttl time.Duration) ([]byte, error) {
	now := time.Now()
	claims := models.SessionClaims{
		CompanyID:     company.ID,
		CompanyName:   company.Name,
		CompanyEmail:  company.Email,
		CompanyStatus: company.Status,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session ticket: %w", err)
	}
	return []byte(signed), nil
}

// decodeTicket verifies a ticket and rebuilds the company. Any failure
// (bad signature, malformed token, missing company id, expiry) reads as
// no session.
func decodeTicket(raw []byte, secret []byte) (*models.Company, error) {
	var claims models.SessionClaims
	_, err := jwt.ParseWithClaims(string(raw), &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session ticket: %w", err)
	}
	if claims.CompanyID == uuid.Nil {
		return nil, errors.New("session ticket carries no company id")
	}

	return &models.Company{
		ID:     claims.CompanyID,
		Name:   claims.CompanyName,
		Email:  claims.CompanyEmail,
		Status: claims.CompanyStatus,
	}, nil
}
