package banners

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
)

// Repository encapsulates banner persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a banner repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListLive returns active banners whose display window covers now,
// ordered for the storefront carousel.
func (r *Repository) ListLive(ctx context.Context, now time.Time) ([]models.Banner, error) {
	var banners []models.Banner
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("display_order ASC, id ASC").
		Find(&banners).Error
	if err != nil {
		return nil, err
	}
	return banners, nil
}

// FindByID fetches a banner regardless of window or active flag.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Banner, error) {
	var banner models.Banner
	err := r.db.WithContext(ctx).First(&banner, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &banner, nil
}

// Create inserts a new banner.
func (r *Repository) Create(ctx context.Context, banner *models.Banner) (*models.Banner, error) {
	if err := r.db.WithContext(ctx).Create(banner).Error; err != nil {
		return nil, err
	}
	return banner, nil
}

// Update applies column updates to a banner by id.
func (r *Repository) Update(ctx context.Context, id int64, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Banner{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a banner row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Banner{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
