package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

const testUserID int64 = 11

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.WishlistItem{}))

	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: 1,
		Name:       name,
		Price:      decimal.RequireFromString("30"),
		MRP:        decimal.RequireFromString("35"),
		Unit:       "1 pc",
		Stock:      stock,
		IsActive:   active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestAddIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", 10, true)

	require.NoError(t, svc.Add(context.Background(), testUserID, banana.ID))
	require.NoError(t, svc.Add(context.Background(), testUserID, banana.ID))

	entries, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Available)
	require.True(t, entries[0].InStock)
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Add(context.Background(), testUserID, 9999)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListMarksDeactivatedProducts(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", 10, true)
	require.NoError(t, svc.Add(context.Background(), testUserID, banana.ID))

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", banana.ID).Update("is_active", false).Error)

	entries, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].Available)
}

func TestRemove(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", 10, true)
	require.NoError(t, svc.Add(context.Background(), testUserID, banana.ID))

	require.NoError(t, svc.Remove(context.Background(), testUserID, banana.ID))
	entries, err := svc.List(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, entries)

	err = svc.Remove(context.Background(), testUserID, banana.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
