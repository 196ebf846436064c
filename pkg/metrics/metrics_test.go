package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncOrdersCreated("cod")
	m.IncOrdersCreated("cod")
	m.IncOrdersCreated("")
	m.IncPriceMismatch()
	m.IncOTPSent()
	m.ObserveHTTPRequest("GET", "/api/products", "200", 25*time.Millisecond)

	if got := testutil.ToFloat64(m.ordersCreated.WithLabelValues("cod")); got != 2 {
		t.Fatalf("expected 2 cod orders, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersCreated.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected empty method to count as unknown, got %v", got)
	}
	if got := testutil.ToFloat64(m.priceMismatch); got != 1 {
		t.Fatalf("expected 1 price mismatch, got %v", got)
	}
	if got := testutil.ToFloat64(m.otpSent); got != 1 {
		t.Fatalf("expected 1 otp sent, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncOrdersCreated("cod")
	m.IncPriceMismatch()
	m.IncOTPSent()
	m.ObserveHTTPRequest("GET", "/", "200", time.Millisecond)

	noop := New(nil)
	noop.IncOrdersCreated("upi")
	noop.IncPriceMismatch()
}
