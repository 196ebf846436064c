package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quickcart/quickcart-backend/internal/orders"
	"github.com/quickcart/quickcart-backend/pkg/logger"
	"github.com/quickcart/quickcart-backend/pkg/pagination"
)

type fakeOrdersService struct {
	replayed bool
}

func (f fakeOrdersService) Create(ctx context.Context, userID int64, input orders.CreateInput) (*orders.OrderResponse, error) {
	return &orders.OrderResponse{ID: "QC1TEST", Replayed: f.replayed}, nil
}

func (fakeOrdersService) GetByID(ctx context.Context, userID int64, isAdmin bool, orderID string) (*orders.OrderResponse, error) {
	panic("unimplemented")
}

func (fakeOrdersService) ListMine(ctx context.Context, userID int64, params pagination.Params) (*orders.ListResponse, error) {
	panic("unimplemented")
}

func (fakeOrdersService) ListAll(ctx context.Context, filters orders.ListFilters, params pagination.Params) (*orders.ListResponse, error) {
	panic("unimplemented")
}

func (fakeOrdersService) UpdateStatus(ctx context.Context, orderID string, input orders.UpdateStatusInput) (*orders.OrderResponse, error) {
	panic("unimplemented")
}

func (fakeOrdersService) Cancel(ctx context.Context, userID int64, orderID string) (*orders.OrderResponse, error) {
	panic("unimplemented")
}

const createOrderBody = `{
	"items": [{"product_id": 1, "quantity": 2}],
	"payment_method": "cod",
	"address": {
		"name": "Asha",
		"phone": "+919876543210",
		"line1": "14 MG Road",
		"city": "Bengaluru",
		"pincode": "560001"
	},
	"total": "60.00"
}`

func postOrder(t *testing.T, svc orders.Service) *httptest.ResponseRecorder {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "controllers-test", Output: io.Discard})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(createOrderBody))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	OrderCreate(svc, logg).ServeHTTP(resp, req)
	return resp
}

func TestOrderCreateWritesCreated(t *testing.T) {
	resp := postOrder(t, fakeOrdersService{})
	require.Equal(t, http.StatusCreated, resp.Code)
}

func TestOrderCreateReplayWritesOK(t *testing.T) {
	resp := postOrder(t, fakeOrdersService{replayed: true})
	require.Equal(t, http.StatusOK, resp.Code)
}
