package models

import "time"

// WishlistItem marks a product a user wants to revisit later.
type WishlistItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:idx_wishlist_user_product"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
