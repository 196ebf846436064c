package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

const testUserID int64 = 7

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.CartItem{}))
	return db
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(ServiceParams{
		Repo: NewRepository(db),
		Pricing: config.PricingConfig{
			FreeDeliveryThreshold: "99",
			DefaultDeliveryFee:    "20",
			DefaultHandlingFee:    "0",
		},
	})
	require.NoError(t, err)
	return svc, db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: 1,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		MRP:        decimal.RequireFromString(price),
		Unit:       "1 pc",
		Stock:      stock,
		IsActive:   active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestAddUpsertsQuantity(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", "30", 10, true)

	resp, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, 2, resp.Items[0].Quantity)

	resp, err = svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 5})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, 5, resp.Items[0].Quantity)
	require.Equal(t, "150", resp.Quote.Subtotal.String())
}

func TestAddRejectsBadInput(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", "30", 10, true)
	soldOut := seedProduct(t, db, "Mango", "90", 0, true)
	retired := seedProduct(t, db, "Retired", "10", 10, false)

	t.Run("quantity out of range", func(t *testing.T) {
		_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 51})
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: 9999, Quantity: 1})
		require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("inactive product", func(t *testing.T) {
		_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: retired.ID, Quantity: 1})
		require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("out of stock", func(t *testing.T) {
		_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: soldOut.ID, Quantity: 1})
		require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	})
}

func TestQuoteAppliesFreeDeliveryThreshold(t *testing.T) {
	svc, db := newTestService(t)
	cheap := seedProduct(t, db, "Gum", "10", 50, true)

	resp, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: cheap.ID, Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, "30", resp.Quote.Subtotal.String())
	require.Equal(t, "20", resp.Quote.DeliveryFee.String())
	require.Equal(t, "50", resp.Quote.Total.String())

	resp, err = svc.SetQuantity(context.Background(), testUserID, cheap.ID, 10)
	require.NoError(t, err)
	require.Equal(t, "100", resp.Quote.Subtotal.String())
	require.True(t, resp.Quote.DeliveryFee.IsZero())
	require.Equal(t, "100", resp.Quote.Total.String())
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", "30", 10, true)

	_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 2})
	require.NoError(t, err)

	resp, err := svc.SetQuantity(context.Background(), testUserID, banana.ID, 0)
	require.NoError(t, err)
	require.Empty(t, resp.Items)
	require.True(t, resp.Quote.Total.IsZero())
}

func TestSetQuantityUnknownLine(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SetQuantity(context.Background(), testUserID, 9999, 2)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDeactivatedProductExcludedFromQuote(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", "30", 10, true)
	milk := seedProduct(t, db, "Milk", "55", 10, true)

	_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), testUserID, AddItemInput{ProductID: milk.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", milk.ID).Update("is_active", false).Error)

	resp, err := svc.Get(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	require.Equal(t, "30", resp.Quote.Subtotal.String())
	for _, item := range resp.Items {
		if item.ProductID == milk.ID {
			require.False(t, item.Available)
		}
	}
}

func TestClearEmptiesCart(t *testing.T) {
	svc, db := newTestService(t)
	banana := seedProduct(t, db, "Banana", "30", 10, true)

	_, err := svc.Add(context.Background(), testUserID, AddItemInput{ProductID: banana.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background(), testUserID))
	resp, err := svc.Get(context.Background(), testUserID)
	require.NoError(t, err)
	require.Empty(t, resp.Items)
}
