package cache

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Cache defines the byte-level cache interface
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, pattern string) error
	Close() error
}

// ErrCacheMiss is returned when a key is not found in cache
var ErrCacheMiss = fmt.Errorf("cache miss")

// Key generates a query cache key scoped by company and resource.
// The params hash keeps distinct list queries apart under one prefix
// so a whole resource can be cleared with a single pattern.
func Key(companyID uuid.UUID, resource string, params url.Values) string {
	return companyID.String() + ":" + resource + ":" + hashParams(params)
}

// KeyPrefix returns the pattern matching every entry for a company's
// resource.
func KeyPrefix(companyID uuid.UUID, resource string) string {
	return companyID.String() + ":" + resource + ":*"
}

// CompanyPrefix returns the pattern matching every entry for a company.
func CompanyPrefix(companyID uuid.UUID) string {
	return companyID.String() + ":*"
}

func hashParams(params url.Values) string {
	h := fnv.New64a()
	// url.Values.Encode sorts keys, so the hash is deterministic
	h.Write([]byte(params.Encode()))
	return fmt.Sprintf("%016x", h.Sum64())
}
