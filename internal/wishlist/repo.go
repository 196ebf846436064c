package wishlist

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
)

// Entry pairs a wishlist row with the product it points at. Product is
// nil when the product has been deactivated since it was saved.
type Entry struct {
	Item    models.WishlistItem
	Product *models.Product
}

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListEntries loads a user's wishlist rows together with live product data.
func (r *Repository) ListEntries(ctx context.Context, userID int64) ([]Entry, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	err = r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entry := Entry{Item: item}
		if product, ok := byID[item.ProductID]; ok {
			p := product
			entry.Product = &p
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Add inserts a wishlist row, silently keeping an existing one.
func (r *Repository) Add(ctx context.Context, userID, productID int64) error {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(&item).Error
}

// Remove deletes a wishlist row.
func (r *Repository) Remove(ctx context.Context, userID, productID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
