package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/api/responses"
	"github.com/quickcart/quickcart-backend/api/validators"
	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
	"github.com/quickcart/quickcart-backend/pkg/logger"
)

// OffersList returns the currently running coupons.
func OffersList(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		active, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]offerResponse, 0, len(active))
		for i := range active {
			out = append(out, newOfferResponse(&active[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// OffersValidate checks a coupon against a subtotal and reports the discount.
func OffersValidate(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		var payload validateOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), offers.ValidateInput{
			Code:     payload.Code,
			Subtotal: payload.Subtotal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := validateOfferResponse{
			Discount:     result.Discount,
			FreeDelivery: result.FreeDelivery,
		}
		if result.Offer != nil {
			offer := newOfferResponse(result.Offer)
			resp.Offer = &offer
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminOfferCreate registers a new coupon.
func AdminOfferCreate(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		var payload adminOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferResponse(offer))
	}
}

// AdminOfferUpdate replaces a coupon's definition.
func AdminOfferUpdate(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		id, err := urlParamInt64(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminOfferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

// AdminOfferDelete retires a coupon.
func AdminOfferDelete(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offers service unavailable"))
			return
		}

		id, err := urlParamInt64(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type validateOfferRequest struct {
	Code     string          `json:"code" validate:"required,max=40"`
	Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
}

type validateOfferResponse struct {
	Offer        *offerResponse  `json:"offer,omitempty"`
	Discount     decimal.Decimal `json:"discount"`
	FreeDelivery bool            `json:"free_delivery"`
}

type adminOfferRequest struct {
	Code          string           `json:"code" validate:"required,max=40"`
	Description   string           `json:"description" validate:"max=500"`
	DiscountType  string           `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	MinOrderValue decimal.Decimal  `json:"min_order_value"`
	ValidFrom     time.Time        `json:"valid_from" validate:"required"`
	ValidUntil    time.Time        `json:"valid_until" validate:"required"`
	UsageLimit    int              `json:"usage_limit" validate:"gte=0"`
	IsActive      *bool            `json:"is_active"`
}

func (r adminOfferRequest) toInput() (offers.UpsertInput, error) {
	discountType, err := enums.ParseDiscountType(r.DiscountType)
	if err != nil {
		return offers.UpsertInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
	}
	return offers.UpsertInput{
		Code:          r.Code,
		Description:   r.Description,
		DiscountType:  discountType,
		DiscountValue: r.DiscountValue,
		MaxDiscount:   r.MaxDiscount,
		MinOrderValue: r.MinOrderValue,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
		UsageLimit:    r.UsageLimit,
		IsActive:      r.IsActive,
	}, nil
}

type offerResponse struct {
	ID            int64            `json:"id"`
	Code          string           `json:"code"`
	Description   string           `json:"description,omitempty"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty"`
	MinOrderValue decimal.Decimal  `json:"min_order_value"`
	ValidFrom     time.Time        `json:"valid_from"`
	ValidUntil    time.Time        `json:"valid_until"`
	UsageLimit    int              `json:"usage_limit"`
	UsedCount     int              `json:"used_count"`
	IsActive      bool             `json:"is_active"`
}

func newOfferResponse(offer *models.Offer) offerResponse {
	return offerResponse{
		ID:            offer.ID,
		Code:          offer.Code,
		Description:   offer.Description,
		DiscountType:  string(offer.DiscountType),
		DiscountValue: offer.DiscountValue,
		MaxDiscount:   offer.MaxDiscount,
		MinOrderValue: offer.MinOrderValue,
		ValidFrom:     offer.ValidFrom,
		ValidUntil:    offer.ValidUntil,
		UsageLimit:    offer.UsageLimit,
		UsedCount:     offer.UsedCount,
		IsActive:      offer.IsActive,
	}
}
