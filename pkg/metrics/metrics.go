package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records the counters and histograms the API exposes.
type Metrics struct {
	httpDuration  *prometheus.HistogramVec
	ordersCreated *prometheus.CounterVec
	priceMismatch prometheus.Counter
	otpSent       prometheus.Counter
}

// New registers the API metrics on the provided registerer. A nil
// registerer yields a no-op instance, which keeps tests quiet.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quickcart_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickcart_orders_created_total",
		Help: "Orders created, labeled by payment method.",
	}, []string{"payment_method"})
	priceMismatch := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quickcart_price_mismatch_total",
		Help: "Order submissions rejected because the client total diverged from the server total.",
	})
	otpSent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quickcart_otp_sent_total",
		Help: "One-time passwords dispatched.",
	})
	reg.MustRegister(httpDuration, ordersCreated, priceMismatch, otpSent)
	return &Metrics{
		httpDuration:  httpDuration,
		ordersCreated: ordersCreated,
		priceMismatch: priceMismatch,
		otpSent:       otpSent,
	}
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// IncOrdersCreated increments the created order counter.
func (m *Metrics) IncOrdersCreated(paymentMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	if paymentMethod == "" {
		paymentMethod = "unknown"
	}
	m.ordersCreated.WithLabelValues(paymentMethod).Inc()
}

// IncPriceMismatch increments the tamper rejection counter.
func (m *Metrics) IncPriceMismatch() {
	if m == nil || m.priceMismatch == nil {
		return
	}
	m.priceMismatch.Inc()
}

// IncOTPSent increments the OTP dispatch counter.
func (m *Metrics) IncOTPSent() {
	if m == nil || m.otpSent == nil {
		return
	}
	m.otpSent.Inc()
}
