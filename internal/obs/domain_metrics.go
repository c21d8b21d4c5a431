package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts committed orders.
	OrdersPlacedTotal prometheus.Counter
	// CouponRejectionsTotal counts coupon validations rejected by rule code.
	CouponRejectionsTotal *prometheus.CounterVec
	// StockConflictsTotal counts checkouts rejected for insufficient stock.
	StockConflictsTotal prometheus.Counter
	// OrderTransitionsTotal counts applied order status transitions.
	OrderTransitionsTotal *prometheus.CounterVec
	// BulkOperationsTotal counts bulk maintenance items by operation and outcome.
	BulkOperationsTotal *prometheus.CounterVec
	// NotificationsTotal counts notification deliveries by kind and outcome.
	NotificationsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Number of orders committed by checkout.",
		})
		CouponRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_rejections_total",
			Help:      "Coupon validations rejected, by rejection code.",
		}, []string{"code"})
		StockConflictsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_conflicts_total",
			Help:      "Checkouts rejected because a variant lacked stock.",
		})
		OrderTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Applied order status transitions.",
		}, []string{"from", "to"})
		BulkOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_operations_total",
			Help:      "Variants touched by bulk maintenance, by operation and result.",
		}, []string{"op", "result"})
		NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by kind and result.",
		}, []string{"kind", "result"})

		OrdersPlacedTotal = register(reg, OrdersPlacedTotal)
		CouponRejectionsTotal = register(reg, CouponRejectionsTotal)
		StockConflictsTotal = register(reg, StockConflictsTotal)
		OrderTransitionsTotal = register(reg, OrderTransitionsTotal)
		BulkOperationsTotal = register(reg, BulkOperationsTotal)
		NotificationsTotal = register(reg, NotificationsTotal)
	})
}

// CountOrderPlaced records a committed order.
func CountOrderPlaced() {
	if OrdersPlacedTotal != nil {
		OrdersPlacedTotal.Inc()
	}
}

// CountCouponRejection records a coupon rejection code.
func CountCouponRejection(code string) {
	if CouponRejectionsTotal != nil && code != "" {
		CouponRejectionsTotal.WithLabelValues(code).Inc()
	}
}

// CountStockConflict records a checkout that ran out of stock.
func CountStockConflict() {
	if StockConflictsTotal != nil {
		StockConflictsTotal.Inc()
	}
}

// CountOrderTransition records an applied status change.
func CountOrderTransition(from, to string) {
	if OrderTransitionsTotal != nil {
		OrderTransitionsTotal.WithLabelValues(from, to).Inc()
	}
}

// CountBulkItems records bulk maintenance outcomes.
func CountBulkItems(op string, succeeded, failed int) {
	if BulkOperationsTotal == nil {
		return
	}
	if succeeded > 0 {
		BulkOperationsTotal.WithLabelValues(op, "ok").Add(float64(succeeded))
	}
	if failed > 0 {
		BulkOperationsTotal.WithLabelValues(op, "failed").Add(float64(failed))
	}
}

// CountNotification records a notification delivery outcome.
func CountNotification(kind, result string) {
	if NotificationsTotal != nil {
		NotificationsTotal.WithLabelValues(kind, result).Inc()
	}
}
