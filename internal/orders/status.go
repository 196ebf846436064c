package orders

import (
	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// TransitionPolicy decides which order status moves are legal. The
// zero value permits nothing; build one with DefaultTransitionPolicy.
type TransitionPolicy struct {
	// AllowAny bypasses the table entirely. Meant for support tooling,
	// never for the storefront path.
	AllowAny bool

	allowed map[enums.OrderStatus][]enums.OrderStatus
}

// DefaultTransitionPolicy returns the fulfillment state machine:
// pending to confirmed to preparing to out_for_delivery to delivered,
// with cancellation possible from any non-terminal status.
func DefaultTransitionPolicy(allowAny bool) TransitionPolicy {
	return TransitionPolicy{
		AllowAny: allowAny,
		allowed: map[enums.OrderStatus][]enums.OrderStatus{
			enums.OrderStatusPending:        {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
			enums.OrderStatusConfirmed:      {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
			enums.OrderStatusPreparing:      {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
			enums.OrderStatusOutForDelivery: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		},
	}
}

// CanTransition reports whether moving from one status to the next is
// legal under this policy.
func (p TransitionPolicy) CanTransition(from, to enums.OrderStatus) bool {
	if !from.IsValid() || !to.IsValid() || from == to {
		return false
	}
	if p.AllowAny {
		return true
	}
	for _, next := range p.allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}
