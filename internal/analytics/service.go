package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

const (
	defaultRevenueDays = 7
	maxRevenueDays     = 90
)

// DashboardResponse is the admin overview.
type DashboardResponse struct {
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalCustomers int64           `json:"total_customers"`
	TotalProducts  int64           `json:"total_products"`
	TodayOrders    int64           `json:"today_orders"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	PendingOrders  int64           `json:"pending_orders"`
	TopProducts    []TopProduct    `json:"top_products"`
}

// TopProduct is a best seller ranked by quantity sold.
type TopProduct struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// RevenuePoint is one day in the revenue chart. Days without orders are
// present with zeros.
type RevenuePoint struct {
	Date    string          `json:"date"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductPerformance is one product's lifetime sales record.
type ProductPerformance struct {
	ProductID    int64           `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	ImageURL     string          `json:"image_url,omitempty"`
	TimesOrdered int64           `json:"times_ordered"`
	UnitsSold    int64           `json:"units_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// CategoryPerformance is one category's sales record. Categories with
// no non-cancelled sales are omitted.
type CategoryPerformance struct {
	CategoryID   int64           `json:"category_id"`
	Name         string          `json:"name"`
	ImageURL     string          `json:"image_url,omitempty"`
	ProductCount int64           `json:"product_count"`
	Orders       int64           `json:"orders"`
	UnitsSold    int64           `json:"units_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// ServiceParams carries the dependencies for the analytics service.
type ServiceParams struct {
	Repo *Repository
}

// Service serves the admin dashboards straight from the database.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardResponse, error)
	RevenueChart(ctx context.Context, days int) ([]RevenuePoint, error)
	ProductPerformance(ctx context.Context) ([]ProductPerformance, error)
	CategoryPerformance(ctx context.Context) ([]CategoryPerformance, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs the analytics service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "analytics repo is required")
	}
	return &service{repo: params.Repo, now: time.Now}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardResponse, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	totals, err := s.repo.OrderTotals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order totals")
	}
	today, err := s.repo.OrderTotalsSince(ctx, startOfDay)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading today totals")
	}
	customers, err := s.repo.CountCustomers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting customers")
	}
	products, err := s.repo.CountActiveProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting products")
	}
	pending, err := s.repo.CountOrdersByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting pending orders")
	}
	top, err := s.repo.TopProducts(ctx, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading top products")
	}

	return &DashboardResponse{
		TotalOrders:    totals.Orders,
		TotalRevenue:   totals.Revenue,
		TotalCustomers: customers,
		TotalProducts:  products,
		TodayOrders:    today.Orders,
		TodayRevenue:   today.Revenue,
		PendingOrders:  pending,
		TopProducts:    top,
	}, nil
}

// ProductPerformance lists every product with its lifetime sales,
// best earner first. The join is done in Go over three portable
// queries, same as the rest of this package.
func (s *service) ProductPerformance(ctx context.Context) ([]ProductPerformance, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading categories")
	}
	sales, err := s.repo.ProductSales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product sales")
	}

	categoryNames := make(map[int64]string, len(categories))
	for _, category := range categories {
		categoryNames[category.ID] = category.Name
	}
	salesByProduct := make(map[int64]ProductSalesRow, len(sales))
	for _, row := range sales {
		salesByProduct[row.ProductID] = row
	}

	out := make([]ProductPerformance, 0, len(products))
	for _, product := range products {
		entry := ProductPerformance{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  categoryNames[product.CategoryID],
			Price:     product.Price,
			Stock:     product.Stock,
			ImageURL:  product.ImageURL,
			Revenue:   decimal.Zero,
		}
		if row, ok := salesByProduct[product.ID]; ok {
			entry.TimesOrdered = row.TimesOrdered
			entry.UnitsSold = row.UnitsSold
			entry.Revenue = row.Revenue.Round(2)
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	return out, nil
}

// CategoryPerformance lists the categories that have sold anything,
// highest revenue first.
func (s *service) CategoryPerformance(ctx context.Context) ([]CategoryPerformance, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading categories")
	}
	counts, err := s.repo.ActiveProductCounts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting products")
	}
	sales, err := s.repo.CategorySales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category sales")
	}

	countByCategory := make(map[int64]int64, len(counts))
	for _, row := range counts {
		countByCategory[row.CategoryID] = row.ProductCount
	}
	salesByCategory := make(map[int64]CategorySalesRow, len(sales))
	for _, row := range sales {
		salesByCategory[row.CategoryID] = row
	}

	out := make([]CategoryPerformance, 0, len(sales))
	for _, category := range categories {
		row, ok := salesByCategory[category.ID]
		if !ok {
			continue
		}
		out = append(out, CategoryPerformance{
			CategoryID:   category.ID,
			Name:         category.Name,
			ImageURL:     category.ImageURL,
			ProductCount: countByCategory[category.ID],
			Orders:       row.OrderCount,
			UnitsSold:    row.UnitsSold,
			Revenue:      row.Revenue.Round(2),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	return out, nil
}

// RevenueChart returns one point per day for the trailing window,
// oldest first. The day buckets are computed in Go so the SQL stays
// portable between Postgres and the sqlite test databases.
func (s *service) RevenueChart(ctx context.Context, days int) ([]RevenuePoint, error) {
	if days <= 0 {
		days = defaultRevenueDays
	}
	if days > maxRevenueDays {
		days = maxRevenueDays
	}

	now := s.now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowStart := startOfToday.AddDate(0, 0, -(days - 1))

	rows, err := s.repo.DeliveredOrdersSince(ctx, windowStart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading revenue rows")
	}

	type bucket struct {
		orders  int64
		revenue decimal.Decimal
	}
	buckets := make(map[string]*bucket, days)
	for _, row := range rows {
		day := row.CreatedAt.In(now.Location()).Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{revenue: decimal.Zero}
			buckets[day] = b
		}
		b.orders++
		b.revenue = b.revenue.Add(row.Total)
	}

	points := make([]RevenuePoint, 0, days)
	for i := 0; i < days; i++ {
		day := windowStart.AddDate(0, 0, i).Format("2006-01-02")
		point := RevenuePoint{Date: day, Revenue: decimal.Zero}
		if b, ok := buckets[day]; ok {
			point.Orders = b.orders
			point.Revenue = b.revenue.Round(2)
		}
		points = append(points, point)
	}
	return points, nil
}
