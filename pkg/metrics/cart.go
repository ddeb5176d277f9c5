package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "ebookshop"

// CartMetrics tracks cart activity and placed orders.
type CartMetrics struct {
	mutations  *prometheus.CounterVec
	orders     prometheus.Counter
	orderValue prometheus.Histogram
	orderUnits prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Effective cart mutations by operation.",
	}, []string{"op"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_placed_total",
		Help:      "Orders placed through checkout.",
	})
	orderValue := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_value",
		Help:      "Order totals in shop currency.",
		Buckets:   []float64{5, 10, 20, 50, 100, 200, 500},
	})
	orderUnits := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_units",
		Help:      "Units per placed order.",
		Buckets:   prometheus.LinearBuckets(1, 2, 8),
	})
	reg.MustRegister(mutations, orders, orderValue, orderUnits)
	return &CartMetrics{
		mutations:  mutations,
		orders:     orders,
		orderValue: orderValue,
		orderUnits: orderUnits,
	}
}

// IncMutation counts one cart mutation of the given operation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveOrder records a placed order.
func (c *CartMetrics) ObserveOrder(total decimal.Decimal, units int) {
	if c == nil || c.orders == nil {
		return
	}
	c.orders.Inc()
	c.orderValue.Observe(total.InexactFloat64())
	c.orderUnits.Observe(float64(units))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
