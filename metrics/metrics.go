package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeApplied = "applied"
	OutcomeClamped = "clamped"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	StockAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_stock_adjustments_total",
			Help: "Stock ledger adjustments by reason and outcome",
		},
		[]string{"reason", "outcome"},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Order status transitions won by compare-and-set",
		},
		[]string{"from", "to"},
	)

	OrdersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders placed by payment method",
		},
		[]string{"payment_method"},
	)

	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_side_effect_failures_total",
			Help: "Best-effort side effects that failed",
		},
		[]string{"effect"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func RecordStockAdjustment(reason, outcome string) {
	StockAdjustments.WithLabelValues(reason, outcome).Inc()
}

func RecordTransition(from, to string) {
	OrderTransitions.WithLabelValues(from, to).Inc()
}

func RecordOrderPlaced(paymentMethod string) {
	OrdersPlaced.WithLabelValues(paymentMethod).Inc()
}

func RecordSideEffectFailure(effect string) {
	SideEffectFailures.WithLabelValues(effect).Inc()
}

func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
