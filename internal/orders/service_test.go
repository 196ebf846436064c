package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/internal/cart"
	"github.com/quickcart/quickcart-backend/internal/catalog"
	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
	"github.com/quickcart/quickcart-backend/pkg/pagination"
)

const (
	buyerID int64 = 21
	otherID int64 = 22
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db  *gorm.DB
	svc Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{}, &models.CartItem{}, &models.Offer{},
		&models.Order{}, &models.OrderItem{}, &models.OrderTimeline{},
	))

	calc, err := NewCalculator(config.PricingConfig{
		FreeDeliveryThreshold: "99",
		DefaultDeliveryFee:    "20",
		DefaultHandlingFee:    "0",
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(db),
		CatalogRepo: catalog.NewRepository(db),
		OfferRepo:   offers.NewRepository(db),
		CartRepo:    cart.NewRepository(db),
		Tx:          gormTxRunner{db: db},
		Calculator:  calc,
		Policy:      DefaultTransitionPolicy(false),
		Orders:      config.OrdersConfig{EstimatedDeliveryWindow: 30 * time.Minute},
	})
	require.NoError(t, err)
	return &fixture{db: db, svc: svc}
}

func (f *fixture) seedProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID: 1,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		MRP:        decimal.RequireFromString(price),
		Unit:       "1 pc",
		Stock:      stock,
		IsActive:   true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *fixture) seedOffer(t *testing.T, code string, discountType enums.DiscountType, value string, usageLimit int) *models.Offer {
	t.Helper()
	now := time.Now()
	offer := &models.Offer{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		UsageLimit:    usageLimit,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(offer).Error)
	return offer
}

func (f *fixture) stockOf(t *testing.T, productID int64) int {
	t.Helper()
	var product models.Product
	require.NoError(t, f.db.First(&product, productID).Error)
	return product.Stock
}

func testAddress() AddressInput {
	return AddressInput{
		Name:    "Asha Rao",
		Phone:   "+919876543210",
		Line1:   "14 MG Road",
		City:    "Bengaluru",
		Pincode: "560001",
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)
	require.NoError(t, f.db.Create(&models.CartItem{UserID: buyerID, ProductID: banana.ID, Quantity: 2}).Error)

	order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("80"),
	})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(order.ID, "QC"))
	require.Equal(t, "pending", order.Status)
	require.Equal(t, "60.00", order.Subtotal.StringFixed(2))
	require.Equal(t, "20.00", order.DeliveryFee.StringFixed(2))
	require.Equal(t, "80.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 1)
	require.Equal(t, "Banana", order.Items[0].ProductName)
	require.Len(t, order.Timeline, 1)
	require.Equal(t, "Order Placed", order.Timeline[0].Label)
	require.True(t, order.Timeline[0].Completed)
	require.WithinDuration(t, time.Now().Add(30*time.Minute), order.EstimatedDelivery, 5*time.Second)

	require.Equal(t, 8, f.stockOf(t, banana.ID))

	var cartCount int64
	require.NoError(t, f.db.Model(&models.CartItem{}).Where("user_id = ?", buyerID).Count(&cartCount).Error)
	require.Zero(t, cartCount)
}

func TestCreateOrderPriceMismatch(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)

	_, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("60"),
	})
	require.Equal(t, pkgerrors.CodePriceMismatch, pkgerrors.As(err).Code())
	require.Equal(t, 10, f.stockOf(t, banana.ID))
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)
	milk := f.seedProduct(t, "Milk", "55", 1)

	// The milk line passes the quote with quantity 1, then the stock is
	// taken by a concurrent buyer before the decrement runs.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", milk.ID).Update("stock", 0).Error)

	_, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items: []ItemInput{
			{ProductID: banana.ID, Quantity: 2},
			{ProductID: milk.ID, Quantity: 1},
		},
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("115"),
	})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	require.Equal(t, 10, f.stockOf(t, banana.ID))

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.Zero(t, orderCount)
}

func TestCreateOrderCouponLifecycle(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "50", 100)
	offer := f.seedOffer(t, "SAVE10", enums.DiscountTypeFixed, "10", 1)

	order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		CouponCode:    "save10",
		PaymentMethod: "upi",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("90"),
	})
	require.NoError(t, err)
	require.Equal(t, "10.00", order.Discount.StringFixed(2))
	require.Equal(t, "SAVE10", order.CouponCode)

	var reloaded models.Offer
	require.NoError(t, f.db.First(&reloaded, offer.ID).Error)
	require.Equal(t, 1, reloaded.UsedCount)

	// The limit is spent, so the coupon is dropped for the next order.
	// A client still claiming the discounted total trips the tamper
	// check and stock is left untouched.
	stockBefore := f.stockOf(t, banana.ID)
	_, err = f.svc.Create(context.Background(), otherID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		CouponCode:    "SAVE10",
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("90"),
	})
	require.Equal(t, pkgerrors.CodePriceMismatch, pkgerrors.As(err).Code())
	require.Equal(t, stockBefore, f.stockOf(t, banana.ID))
}

func TestCreateOrderDropsIneligibleCoupon(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "50", 100)

	expired := &models.Offer{
		Code:          "OLD10",
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.RequireFromString("10"),
		ValidFrom:     time.Now().Add(-2 * time.Hour),
		ValidUntil:    time.Now().Add(-time.Hour),
		UsageLimit:    5,
		IsActive:      true,
	}
	require.NoError(t, f.db.Create(expired).Error)

	// The expired code does not block the order; it simply is not
	// applied, and the quote matches the undiscounted total.
	order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		CouponCode:    "OLD10",
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("100"),
	})
	require.NoError(t, err)
	require.Equal(t, "0.00", order.Discount.StringFixed(2))
	require.Empty(t, order.CouponCode)

	var reloaded models.Offer
	require.NoError(t, f.db.First(&reloaded, expired.ID).Error)
	require.Zero(t, reloaded.UsedCount)
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)

	input := CreateInput{
		Items:          []ItemInput{{ProductID: banana.ID, Quantity: 2}},
		PaymentMethod:  "cod",
		Address:        testAddress(),
		Total:          decimal.RequireFromString("80"),
		IdempotencyKey: "retry-123",
	}

	first, err := f.svc.Create(context.Background(), buyerID, input)
	require.NoError(t, err)
	require.False(t, first.Replayed)
	second, err := f.svc.Create(context.Background(), buyerID, input)
	require.NoError(t, err)
	require.True(t, second.Replayed)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 8, f.stockOf(t, banana.ID))

	var orderCount int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.EqualValues(t, 1, orderCount)
}

func TestGetByIDOwnership(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)
	order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 1}},
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("50"),
	})
	require.NoError(t, err)

	_, err = f.svc.GetByID(context.Background(), otherID, false, order.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	fromAdmin, err := f.svc.GetByID(context.Background(), otherID, true, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, fromAdmin.ID)

	_, err = f.svc.GetByID(context.Background(), buyerID, false, "QC0UNKNOWN")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateStatusFollowsPolicy(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)
	order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 1}},
		PaymentMethod: "cod",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("50"),
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "delivered"})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	for _, status := range []string{"confirmed", "preparing", "out_for_delivery", "delivered"} {
		_, err = f.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: status})
		require.NoError(t, err, "transition to %s", status)
	}

	final, err := f.svc.GetByID(context.Background(), buyerID, false, order.ID)
	require.NoError(t, err)
	require.Equal(t, "delivered", final.Status)
	require.NotNil(t, final.ActualDelivery)
	require.Len(t, final.Timeline, 5)
	require.Equal(t, "Delivered", final.Timeline[4].Label)
	for _, entry := range final.Timeline {
		require.True(t, entry.Completed)
	}
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 10)

	place := func(t *testing.T) *OrderResponse {
		order, err := f.svc.Create(context.Background(), buyerID, CreateInput{
			Items:         []ItemInput{{ProductID: banana.ID, Quantity: 1}},
			PaymentMethod: "cod",
			Address:       testAddress(),
			Total:         decimal.RequireFromString("50"),
		})
		require.NoError(t, err)
		return order
	}

	t.Run("owner can cancel while pending", func(t *testing.T) {
		order := place(t)
		stockBefore := f.stockOf(t, banana.ID)

		cancelled, err := f.svc.Cancel(context.Background(), buyerID, order.ID)
		require.NoError(t, err)
		require.Equal(t, "cancelled", cancelled.Status)
		require.Equal(t, "Cancelled", cancelled.Timeline[len(cancelled.Timeline)-1].Label)

		// Stock is not restored on cancellation.
		require.Equal(t, stockBefore, f.stockOf(t, banana.ID))
	})

	t.Run("other users cannot cancel", func(t *testing.T) {
		order := place(t)
		_, err := f.svc.Cancel(context.Background(), otherID, order.ID)
		require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	})

	t.Run("too late once preparing", func(t *testing.T) {
		order := place(t)
		_, err := f.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "confirmed"})
		require.NoError(t, err)
		_, err = f.svc.UpdateStatus(context.Background(), order.ID, UpdateStatusInput{Status: "preparing"})
		require.NoError(t, err)

		_, err = f.svc.Cancel(context.Background(), buyerID, order.ID)
		require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	})
}

func TestListMineAndListAll(t *testing.T) {
	f := newFixture(t)
	banana := f.seedProduct(t, "Banana", "30", 100)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), buyerID, CreateInput{
			Items:         []ItemInput{{ProductID: banana.ID, Quantity: 1}},
			PaymentMethod: "cod",
			Address:       testAddress(),
			Total:         decimal.RequireFromString("50"),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(context.Background(), otherID, CreateInput{
		Items:         []ItemInput{{ProductID: banana.ID, Quantity: 1}},
		PaymentMethod: "upi",
		Address:       testAddress(),
		Total:         decimal.RequireFromString("50"),
	})
	require.NoError(t, err)

	mine, err := f.svc.ListMine(context.Background(), buyerID, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, mine.Orders, 2)
	require.EqualValues(t, 3, mine.Meta.TotalCount)

	all, err := f.svc.ListAll(context.Background(), ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 4, all.Meta.TotalCount)

	pending, err := f.svc.ListAll(context.Background(), ListFilters{Status: enums.OrderStatusPending}, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 4, pending.Meta.TotalCount)

	byPhone, err := f.svc.ListAll(context.Background(), ListFilters{Phone: "+919876543210"}, pagination.Params{})
	require.NoError(t, err)
	require.EqualValues(t, 4, byPhone.Meta.TotalCount)
}
