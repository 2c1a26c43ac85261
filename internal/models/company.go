package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompanyStatus represents the lifecycle state of a company account
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusInactive  CompanyStatus = "inactive"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company represents a tenant (merchant account) on the platform.
// The gateway keeps a local registry of companies seen at login; the
// platform API remains the authority on company identity.
type Company struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Email     string         `gorm:"type:varchar(254);not null;index" json:"email"`
	Status    CompanyStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastSeen  time.Time      `gorm:"index" json:"last_seen,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Company) TableName() string {
	return "companies"
}

// BeforeCreate hook
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the company may use the dashboard.
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

// SessionClaims is the signed payload persisted by the session store.
// It is a convenience cache of the active company, not an authorization
// token: the platform re-validates the company id on every request.
type SessionClaims struct {
	CompanyID     uuid.UUID     `json:"company_id"`
	CompanyName   string        `json:"company_name"`
	CompanyEmail  string        `json:"company_email"`
	CompanyStatus CompanyStatus `json:"company_status"`
	jwt.RegisteredClaims
}
