package offers

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
)

// Repository encapsulates offer persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an offer repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByCode fetches an offer by its upper-cased code. Returns nil when
// no offer matches.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Offer, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, nil
	}
	var offer models.Offer
	err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&offer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListActive returns active offers currently inside their validity window,
// newest first.
func (r *Repository) ListActive(ctx context.Context, now time.Time) ([]models.Offer, error) {
	var offers []models.Offer
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("valid_from <= ? AND valid_until >= ?", now, now).
		Order("created_at DESC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}
	return offers, nil
}

// Create inserts a new offer.
func (r *Repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	offer.Code = strings.ToUpper(strings.TrimSpace(offer.Code))
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

// Update applies column updates to an offer by id.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Offer{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Deactivate soft-deletes an offer.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	return r.Update(ctx, id, map[string]any{"is_active": false})
}

// IncrementUsage bumps used_count only while the usage limit holds. The
// conditional update keeps concurrent checkouts from oversubscribing a
// coupon; callers must treat zero rows affected as a conflict.
func (r *Repository) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE offers SET used_count = used_count + 1, updated_at = ? WHERE id = ? AND (usage_limit = 0 OR used_count < usage_limit)`,
		time.Now(), id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
