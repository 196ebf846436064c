package addresses

import (
	"context"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
)

// Repository encapsulates saved-address persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUser returns a user's addresses, default first then newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.UserAddress, error) {
	var rows []models.UserAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByUser loads one address scoped to its owner.
func (r *Repository) FindByUser(ctx context.Context, userID, addressID int64) (*models.UserAddress, error) {
	var row models.UserAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts an address. A user's first address always becomes the
// default; a later default insert clears the previous one.
func (r *Repository) Create(ctx context.Context, address *models.UserAddress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.UserAddress{}).
			Where("user_id = ?", address.UserID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			address.IsDefault = true
		} else if address.IsDefault {
			if err := clearDefault(tx, address.UserID); err != nil {
				return err
			}
		}
		return tx.Create(address).Error
	})
}

// Update applies column updates to one address, clearing the previous
// default first when the update promotes this one.
func (r *Repository) Update(ctx context.Context, userID, addressID int64, updates map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if isDefault, ok := updates["is_default"].(bool); ok && isDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		result := tx.Model(&models.UserAddress{}).
			Where("id = ? AND user_id = ?", addressID, userID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Delete removes one address scoped to its owner.
func (r *Repository) Delete(ctx context.Context, userID, addressID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.UserAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID int64) error {
	return tx.Model(&models.UserAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}
