package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
)

func newTestEnv(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:analytics_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Category{}, &models.Product{},
		&models.Order{}, &models.OrderItem{},
	))

	svc, err := NewService(ServiceParams{Repo: NewRepository(db)})
	require.NoError(t, err)
	return svc, db
}

func seedOrder(t *testing.T, db *gorm.DB, id string, status enums.OrderStatus, total string, createdAt time.Time) {
	t.Helper()
	order := &models.Order{
		ID:                id,
		UserID:            1,
		Status:            status,
		PaymentMethod:     enums.PaymentMethodCOD,
		PaymentStatus:     enums.PaymentStatusPending,
		Subtotal:          decimal.RequireFromString(total),
		DeliveryFee:       decimal.Zero,
		HandlingFee:       decimal.Zero,
		Discount:          decimal.Zero,
		Total:             decimal.RequireFromString(total),
		AddressName:       "Asha",
		AddressPhone:      "9876543210",
		AddressLine1:      "14 MG Road",
		AddressCity:       "Bengaluru",
		AddressPincode:    "560001",
		EstimatedDelivery: createdAt.Add(30 * time.Minute),
	}
	require.NoError(t, db.Create(order).Error)
	// autoCreateTime fills created_at on insert; pin it explicitly.
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", id).Update("created_at", createdAt).Error)
}

func TestDashboard(t *testing.T) {
	svc, db := newTestEnv(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.User{Phone: "9876543210", Role: enums.UserRoleCustomer}).Error)
	require.NoError(t, db.Create(&models.User{Phone: "9000000001", Role: enums.UserRoleAdmin}).Error)
	require.NoError(t, db.Create(&models.Product{CategoryID: 1, Name: "Banana", Price: decimal.RequireFromString("30"), MRP: decimal.RequireFromString("30"), Stock: 10, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{CategoryID: 1, Name: "Retired", Price: decimal.RequireFromString("10"), MRP: decimal.RequireFromString("10"), Stock: 0, IsActive: false}).Error)

	seedOrder(t, db, "QC1A", enums.OrderStatusDelivered, "100", now.Add(-48*time.Hour))
	seedOrder(t, db, "QC1B", enums.OrderStatusDelivered, "50", now)
	seedOrder(t, db, "QC1C", enums.OrderStatusPending, "75", now)

	require.NoError(t, db.Create(&models.OrderItem{OrderID: "QC1A", ProductID: 1, ProductName: "Banana", Price: decimal.RequireFromString("30"), Quantity: 3, Total: decimal.RequireFromString("90")}).Error)
	require.NoError(t, db.Create(&models.OrderItem{OrderID: "QC1B", ProductID: 2, ProductName: "Milk", Price: decimal.RequireFromString("50"), Quantity: 1, Total: decimal.RequireFromString("50")}).Error)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 3, dashboard.TotalOrders)
	require.Equal(t, "150.00", dashboard.TotalRevenue.StringFixed(2))
	require.EqualValues(t, 1, dashboard.TotalCustomers)
	require.EqualValues(t, 1, dashboard.TotalProducts)
	require.EqualValues(t, 2, dashboard.TodayOrders)
	require.Equal(t, "50.00", dashboard.TodayRevenue.StringFixed(2))
	require.EqualValues(t, 1, dashboard.PendingOrders)

	require.Len(t, dashboard.TopProducts, 2)
	require.Equal(t, "Banana", dashboard.TopProducts[0].ProductName)
	require.EqualValues(t, 3, dashboard.TopProducts[0].QuantitySold)
}

func TestRevenueChartZeroFillsDays(t *testing.T) {
	svc, db := newTestEnv(t)
	now := time.Now()

	seedOrder(t, db, "QC2A", enums.OrderStatusDelivered, "100", now.Add(-24*time.Hour))
	seedOrder(t, db, "QC2B", enums.OrderStatusDelivered, "40", now)
	seedOrder(t, db, "QC2C", enums.OrderStatusDelivered, "60", now)
	seedOrder(t, db, "QC2D", enums.OrderStatusPending, "999", now)
	seedOrder(t, db, "QC2E", enums.OrderStatusDelivered, "500", now.Add(-10*24*time.Hour))

	points, err := svc.RevenueChart(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, points, 7)

	today := points[6]
	require.Equal(t, now.Format("2006-01-02"), today.Date)
	require.EqualValues(t, 2, today.Orders)
	require.Equal(t, "100.00", today.Revenue.StringFixed(2))

	yesterday := points[5]
	require.EqualValues(t, 1, yesterday.Orders)
	require.Equal(t, "100.00", yesterday.Revenue.StringFixed(2))

	// Empty days are present with zeros.
	require.Zero(t, points[0].Orders)
	require.True(t, points[0].Revenue.IsZero())
}

func TestProductAndCategoryPerformance(t *testing.T) {
	svc, db := newTestEnv(t)
	now := time.Now()

	require.NoError(t, db.Create(&models.Category{Name: "Fruits", Slug: "fruits", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Category{Name: "Dairy", Slug: "dairy", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Category{Name: "Empty", Slug: "empty", IsActive: true}).Error)

	require.NoError(t, db.Create(&models.Product{CategoryID: 1, Name: "Banana", Price: decimal.RequireFromString("30"), MRP: decimal.RequireFromString("30"), Stock: 10, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{CategoryID: 2, Name: "Milk", Price: decimal.RequireFromString("50"), MRP: decimal.RequireFromString("50"), Stock: 5, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{CategoryID: 2, Name: "Paneer", Price: decimal.RequireFromString("80"), MRP: decimal.RequireFromString("90"), Stock: 3, IsActive: true}).Error)

	seedOrder(t, db, "QC3A", enums.OrderStatusDelivered, "140", now)
	seedOrder(t, db, "QC3B", enums.OrderStatusCancelled, "300", now)

	require.NoError(t, db.Create(&models.OrderItem{OrderID: "QC3A", ProductID: 1, ProductName: "Banana", Price: decimal.RequireFromString("30"), Quantity: 3, Total: decimal.RequireFromString("90")}).Error)
	require.NoError(t, db.Create(&models.OrderItem{OrderID: "QC3A", ProductID: 2, ProductName: "Milk", Price: decimal.RequireFromString("50"), Quantity: 1, Total: decimal.RequireFromString("50")}).Error)
	require.NoError(t, db.Create(&models.OrderItem{OrderID: "QC3B", ProductID: 2, ProductName: "Milk", Price: decimal.RequireFromString("50"), Quantity: 6, Total: decimal.RequireFromString("300")}).Error)

	products, err := svc.ProductPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	// Product history keeps cancelled lines, so Milk out-earns Banana.
	require.Equal(t, "Milk", products[0].Name)
	require.Equal(t, "Dairy", products[0].Category)
	require.EqualValues(t, 2, products[0].TimesOrdered)
	require.EqualValues(t, 7, products[0].UnitsSold)
	require.Equal(t, "350.00", products[0].Revenue.StringFixed(2))

	require.Equal(t, "Banana", products[1].Name)
	require.Equal(t, "Paneer", products[2].Name)
	require.True(t, products[2].Revenue.IsZero())

	categories, err := svc.CategoryPerformance(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)

	// Category revenue skips the cancelled order entirely.
	require.Equal(t, "Fruits", categories[0].Name)
	require.Equal(t, "90.00", categories[0].Revenue.StringFixed(2))
	require.EqualValues(t, 1, categories[0].ProductCount)

	require.Equal(t, "Dairy", categories[1].Name)
	require.Equal(t, "50.00", categories[1].Revenue.StringFixed(2))
	require.EqualValues(t, 2, categories[1].ProductCount)
	require.EqualValues(t, 1, categories[1].Orders)
	require.EqualValues(t, 1, categories[1].UnitsSold)
}

func TestRevenueChartClampsDays(t *testing.T) {
	svc, _ := newTestEnv(t)

	points, err := svc.RevenueChart(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, points, 7)

	points, err = svc.RevenueChart(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, points, 90)
}
