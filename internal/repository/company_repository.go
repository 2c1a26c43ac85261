package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/replyhub/admin-gateway/internal/database"
	"github.com/replyhub/admin-gateway/internal/models"
	"gorm.io/gorm/clause"
)

// CompanyRepository maintains the local registry of companies seen at
// login. The platform stays authoritative; this registry exists for
// audit joins and operator tooling.
type CompanyRepository struct{}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository() *CompanyRepository {
	return &CompanyRepository{}
}

// Upsert records a company at login, refreshing its details
func (r *CompanyRepository) Upsert(ctx context.Context, company *models.Company) error {
	company.LastSeen = time.Now()
	err := database.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "status", "last_seen", "updated_at"}),
		}).
		Create(company).Error
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// GetByID retrieves a company from the registry
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := database.DB.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// List retrieves registered companies, most recently seen first
func (r *CompanyRepository) List(ctx context.Context, limit int) ([]models.Company, error) {
	var companies []models.Company
	query := database.DB.WithContext(ctx).Order("last_seen DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// SetStatus updates a company's lifecycle status
func (r *CompanyRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.CompanyStatus) error {
	if err := database.DB.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update company status: %w", err)
	}
	return nil
}
