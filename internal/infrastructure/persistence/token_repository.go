package persistence

import (
	"context"
	"errors"

	"github.com/shopsync/backend/internal/domain/integration"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTokenRepository implements TokenRepository using GORM
type GormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GormTokenRepository
func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Find returns the stored credential for a vendor
func (r *GormTokenRepository) Find(ctx context.Context, vendorID string) (*integration.Credential, error) {
	var model models.CredentialModel
	if err := r.db.WithContext(ctx).First(&model, "vendor_id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotAuthorized
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the credential for its vendor
func (r *GormTokenRepository) Save(ctx context.Context, cred *integration.Credential) error {
	model := models.CredentialModelFromDomain(cred)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vendor_id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Delete removes the credential for a vendor
func (r *GormTokenRepository) Delete(ctx context.Context, vendorID string) error {
	return r.db.WithContext(ctx).
		Delete(&models.CredentialModel{}, "vendor_id = ?", vendorID).Error
}

// Ensure GormTokenRepository implements TokenRepository
var _ integration.TokenRepository = (*GormTokenRepository)(nil)
