package orders

import (
	"context"
	goerrors "errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/internal/cart"
	"github.com/quickcart/quickcart-backend/internal/catalog"
	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
	"github.com/quickcart/quickcart-backend/pkg/logger"
	"github.com/quickcart/quickcart-backend/pkg/metrics"
	"github.com/quickcart/quickcart-backend/pkg/pagination"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
)

// errIdempotentReplay aborts the transaction when another request with
// the same idempotency key committed first.
var errIdempotentReplay = goerrors.New("idempotent replay")

// TxRunner executes a function inside a database transaction, rolling
// back on error or panic. *db.Client satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams carries the dependencies for the order service.
type ServiceParams struct {
	Repo        *Repository
	CatalogRepo *catalog.Repository
	OfferRepo   *offers.Repository
	CartRepo    *cart.Repository
	Tx          TxRunner
	Calculator  *Calculator
	Policy      TransitionPolicy
	Orders      config.OrdersConfig
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// Service exposes order creation, reads, and the status state machine.
type Service interface {
	Create(ctx context.Context, userID int64, input CreateInput) (*OrderResponse, error)
	GetByID(ctx context.Context, userID int64, isAdmin bool, orderID string) (*OrderResponse, error)
	ListMine(ctx context.Context, userID int64, params pagination.Params) (*ListResponse, error)
	ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResponse, error)
	UpdateStatus(ctx context.Context, orderID string, input UpdateStatusInput) (*OrderResponse, error)
	Cancel(ctx context.Context, userID int64, orderID string) (*OrderResponse, error)
}

type service struct {
	repo        *Repository
	catalogRepo *catalog.Repository
	offerRepo   *offers.Repository
	cartRepo    *cart.Repository
	tx          TxRunner
	calculator  *Calculator
	policy      TransitionPolicy
	window      time.Duration
	metrics     *metrics.Metrics
	logg        *logger.Logger
	now         func() time.Time
	newID       func(now time.Time) string
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repo is required")
	case params.CatalogRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	case params.OfferRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer repo is required")
	case params.CartRepo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	case params.Calculator == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "calculator is required")
	}
	window := params.Orders.EstimatedDeliveryWindow
	if window <= 0 {
		window = 30 * time.Minute
	}
	return &service{
		repo:        params.Repo,
		catalogRepo: params.CatalogRepo,
		offerRepo:   params.OfferRepo,
		cartRepo:    params.CartRepo,
		tx:          params.Tx,
		calculator:  params.Calculator,
		policy:      params.Policy,
		window:      window,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         time.Now,
		newID:       newOrderID,
	}, nil
}

// Create places an order. Pricing, stock decrement, coupon usage, the
// order insert, and the cart clear all commit or roll back together.
func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (*OrderResponse, error) {
	paymentMethod, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method must be cod or upi")
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, userID, idempotencyKey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking idempotency key")
		}
		if existing != nil {
			resp := toOrderResponse(*existing)
			resp.Replayed = true
			return &resp, nil
		}
	}

	var created *models.Order
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		catalogRepo := s.catalogRepo.WithTx(tx)
		offerRepo := s.offerRepo.WithTx(tx)

		lines := make([]QuoteLine, 0, len(input.Items))
		for _, item := range input.Items {
			lines = append(lines, QuoteLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		clientTotal := input.Total
		quote, err := s.calculator.Quote(ctx, catalogRepo, offerRepo, QuoteInput{
			Lines:       lines,
			CouponCode:  input.CouponCode,
			ClientTotal: &clientTotal,
		})
		if err != nil {
			if pkgErr := pkgerrors.As(err); pkgErr != nil && pkgErr.Code() == pkgerrors.CodePriceMismatch {
				s.metrics.IncPriceMismatch()
			}
			return err
		}

		for _, line := range quote.Lines {
			ok, err := catalogRepo.DecrementStock(ctx, line.Product.ID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
					WithDetails(map[string]any{"product_id": line.Product.ID})
			}
		}

		if quote.Offer != nil {
			ok, err := offerRepo.IncrementUsage(ctx, quote.Offer.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing coupon usage")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "coupon usage limit reached")
			}
		}

		now := s.now()
		order := &models.Order{
			ID:                s.newID(now),
			UserID:            userID,
			Status:            enums.OrderStatusPending,
			PaymentMethod:     paymentMethod,
			PaymentStatus:     enums.PaymentStatusPending,
			Subtotal:          quote.Subtotal,
			DeliveryFee:       quote.DeliveryFee,
			HandlingFee:       quote.HandlingFee,
			Discount:          quote.Discount,
			Total:             quote.Total,
			AddressName:       input.Address.Name,
			AddressPhone:      input.Address.Phone,
			AddressLine1:      input.Address.Line1,
			AddressLine2:      input.Address.Line2,
			AddressCity:       input.Address.City,
			AddressPincode:    input.Address.Pincode,
			EstimatedDelivery: now.Add(s.window),
		}
		if quote.Offer != nil {
			code := quote.Offer.Code
			order.CouponCode = &code
		}
		if idempotencyKey != "" {
			order.IdempotencyKey = &idempotencyKey
		}
		for _, line := range quote.Lines {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   line.Product.ID,
				ProductName: line.Product.Name,
				Unit:        line.Product.Unit,
				Price:       line.Product.Price,
				Quantity:    line.Quantity,
				Total:       line.Total,
			})
		}
		order.Timeline = append(order.Timeline, models.OrderTimeline{
			Status:    enums.OrderStatusPending,
			Label:     enums.OrderStatusPending.Label(),
			Completed: true,
		})

		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if idempotencyKey != "" && db.IsUniqueViolation(err, "idx_orders_user_idem") {
				return errIdempotentReplay
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting order")
		}
		if err := s.cartRepo.WithTx(tx).Clear(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}
		created = order
		return nil
	})
	if goerrors.Is(txErr, errIdempotentReplay) {
		// A concurrent request with the same key won the insert.
		existing, err := s.repo.FindByIdempotencyKey(ctx, userID, idempotencyKey)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading replayed order")
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order already in progress")
		}
		resp := toOrderResponse(*existing)
		resp.Replayed = true
		return &resp, nil
	}
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.IncOrdersCreated(paymentMethod.String())
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, created.ID)
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"user_id": userID,
			"total":   created.Total.StringFixed(2),
		})
		s.logg.Info(logCtx, "order placed")
	}

	resp := toOrderResponse(*created)
	return &resp, nil
}

func (s *service) GetByID(ctx context.Context, userID int64, isAdmin bool, orderID string) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	resp := toOrderResponse(*order)
	return &resp, nil
}

func (s *service) ListMine(ctx context.Context, userID int64, params pagination.Params) (*ListResponse, error) {
	params = params.Normalize()
	orders, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return buildListResponse(orders, total, params), nil
}

func (s *service) ListAll(ctx context.Context, filters ListFilters, params pagination.Params) (*ListResponse, error) {
	params = params.Normalize()
	orders, total, err := s.repo.ListAll(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return buildListResponse(orders, total, params), nil
}

// UpdateStatus applies an admin transition under the configured policy.
func (s *service) UpdateStatus(ctx context.Context, orderID string, input UpdateStatusInput) (*OrderResponse, error) {
	target, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}
	if err := s.transition(ctx, orderID, target, input.Note, nil); err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

// Cancel lets the owner cancel while the order is still pending or
// confirmed. Stock is not restored.
func (s *service) Cancel(ctx context.Context, userID int64, orderID string) (*OrderResponse, error) {
	guard := func(order *models.Order) error {
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
		}
		return nil
	}
	if err := s.transition(ctx, orderID, enums.OrderStatusCancelled, "cancelled by customer", guard); err != nil {
		return nil, err
	}
	return s.reload(ctx, orderID)
}

func (s *service) transition(ctx context.Context, orderID string, target enums.OrderStatus, note string, guard func(*models.Order) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}
		if !s.policy.CanTransition(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal status transition").
				WithDetails(map[string]any{
					"from": order.Status.String(),
					"to":   target.String(),
				})
		}
		extra := map[string]any{}
		if target == enums.OrderStatusDelivered {
			extra["actual_delivery"] = s.now()
		}
		if err := repo.UpdateStatus(ctx, orderID, target, extra, note); err != nil {
			if goerrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
		}
		return nil
	})
}

func (s *service) reload(ctx context.Context, orderID string) (*OrderResponse, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil || order == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading order")
	}
	resp := toOrderResponse(*order)
	return &resp, nil
}

func buildListResponse(orders []models.Order, total int64, params pagination.Params) *ListResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderResponse(order))
	}
	return &ListResponse{
		Orders: out,
		Meta: pagination.Meta{
			Page:       params.Page,
			Limit:      params.Limit,
			TotalCount: total,
		},
	}
}

// newOrderID builds a customer-visible order number. The unix-seconds
// prefix keeps ids roughly sortable; the hex suffix breaks same-second
// collisions.
func newOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return "QC" + strconv.FormatInt(now.Unix(), 10) + suffix
}
