package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// OrderTotalsRow aggregates order count and delivered revenue.
type OrderTotalsRow struct {
	Orders  int64
	Revenue decimal.Decimal
}

// RevenueRow is one delivered order contributing to the chart.
type RevenueRow struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

// Repository runs the dashboard aggregations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an analytics repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// OrderTotals counts all orders and sums revenue over delivered ones.
func (r *Repository) OrderTotals(ctx context.Context) (*OrderTotalsRow, error) {
	return r.orderTotals(ctx, nil)
}

// OrderTotalsSince restricts the totals to orders created at or after
// the cutoff.
func (r *Repository) OrderTotalsSince(ctx context.Context, since time.Time) (*OrderTotalsRow, error) {
	return r.orderTotals(ctx, &since)
}

func (r *Repository) orderTotals(ctx context.Context, since *time.Time) (*OrderTotalsRow, error) {
	countQuery := r.db.WithContext(ctx).Model(&models.Order{})
	revenueQuery := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusDelivered)
	if since != nil {
		countQuery = countQuery.Where("created_at >= ?", *since)
		revenueQuery = revenueQuery.Where("created_at >= ?", *since)
	}

	row := &OrderTotalsRow{Revenue: decimal.Zero}
	if err := countQuery.Count(&row.Orders).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := revenueQuery.Select("SUM(total)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue.Valid {
		row.Revenue = revenue.Decimal.Round(2)
	}
	return row, nil
}

// CountCustomers counts non-admin accounts.
func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", enums.UserRoleCustomer).
		Count(&count).Error
	return count, err
}

// CountActiveProducts counts products currently on sale.
func (r *Repository) CountActiveProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// CountOrdersByStatus counts orders in one status.
func (r *Repository) CountOrdersByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// TopProducts ranks products by quantity sold across all orders.
func (r *Repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("product_id, product_name, SUM(quantity) AS quantity_sold, SUM(total) AS revenue").
		Group("product_id, product_name").
		Order("quantity_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ProductSalesRow aggregates lifetime sales for one product.
type ProductSalesRow struct {
	ProductID    int64
	TimesOrdered int64
	UnitsSold    int64
	Revenue      decimal.Decimal
}

// CategorySalesRow aggregates non-cancelled sales for one category.
type CategorySalesRow struct {
	CategoryID int64
	OrderCount int64
	UnitsSold  int64
	Revenue    decimal.Decimal
}

// CategoryProductCountRow counts live products in one category.
type CategoryProductCountRow struct {
	CategoryID   int64
	ProductCount int64
}

// ListProducts returns every product, active or not.
func (r *Repository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error
	return products, err
}

// ListCategories returns every category, active or not.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("id ASC").Find(&categories).Error
	return categories, err
}

// ProductSales aggregates order line history per product.
func (r *Repository) ProductSales(ctx context.Context) ([]ProductSalesRow, error) {
	var rows []ProductSalesRow
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("product_id, COUNT(DISTINCT order_id) AS times_ordered, SUM(quantity) AS units_sold, SUM(total) AS revenue").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CategorySales aggregates order line history per category, skipping
// cancelled orders.
func (r *Repository) CategorySales(ctx context.Context) ([]CategorySalesRow, error) {
	var rows []CategorySalesRow
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("products.category_id AS category_id, COUNT(DISTINCT order_items.order_id) AS order_count, SUM(order_items.quantity) AS units_sold, SUM(order_items.total) AS revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ?", enums.OrderStatusCancelled).
		Group("products.category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ActiveProductCounts counts live products grouped by category.
func (r *Repository) ActiveProductCounts(ctx context.Context) ([]CategoryProductCountRow, error) {
	var rows []CategoryProductCountRow
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("category_id, COUNT(*) AS product_count").
		Where("is_active = ?", true).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeliveredOrdersSince returns the delivered orders created at or after
// the cutoff, for day bucketing in Go.
func (r *Repository) DeliveredOrdersSince(ctx context.Context, since time.Time) ([]RevenueRow, error) {
	var rows []RevenueRow
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total").
		Where("status = ?", enums.OrderStatusDelivered).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
