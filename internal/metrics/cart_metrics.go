package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics holds storefront counters. A nil *CartMetrics is valid and
// records nothing.
type CartMetrics struct {
	itemsAdded        prometheus.Counter
	itemsRemoved      prometheus.Counter
	quantityUpdates   prometheus.Counter
	checkoutCompleted prometheus.Counter
	checkoutRejected  *prometheus.CounterVec
	checkoutTotal     prometheus.Histogram
	filterApplied     prometheus.Counter
}

// NewCartMetrics registers the storefront metrics on registerer, falling back
// to the default registerer when nil.
func NewCartMetrics(registerer prometheus.Registerer) *CartMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CartMetrics{
		itemsAdded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "etalase_cart_items_added_total",
			Help: "Total number of add-to-cart operations",
		}),
		itemsRemoved: registerCounter(registerer, prometheus.CounterOpts{
			Name: "etalase_cart_items_removed_total",
			Help: "Total number of cart items removed, explicitly or by a non-positive quantity",
		}),
		quantityUpdates: registerCounter(registerer, prometheus.CounterOpts{
			Name: "etalase_cart_quantity_updates_total",
			Help: "Total number of quantity changes that kept the item in the cart",
		}),
		checkoutCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "etalase_checkout_completed_total",
			Help: "Total number of successful checkouts",
		}),
		checkoutRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "etalase_checkout_rejected_total",
			Help: "Total number of rejected checkouts by reason",
		}, []string{"reason"}),
		checkoutTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "etalase_checkout_total_amount",
			Help:    "Order total of successful checkouts",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		filterApplied: registerCounter(registerer, prometheus.CounterOpts{
			Name: "etalase_product_filter_applied_total",
			Help: "Total number of product grid filter evaluations",
		}),
	}
}

// ItemAdded records an add-to-cart.
func (m *CartMetrics) ItemAdded() {
	if m == nil {
		return
	}
	m.itemsAdded.Inc()
}

// ItemRemoved records a removal.
func (m *CartMetrics) ItemRemoved() {
	if m == nil {
		return
	}
	m.itemsRemoved.Inc()
}

// QuantityUpdated records a quantity change.
func (m *CartMetrics) QuantityUpdated() {
	if m == nil {
		return
	}
	m.quantityUpdates.Inc()
}

// CheckoutCompleted records a successful checkout and its total.
func (m *CartMetrics) CheckoutCompleted(total float64) {
	if m == nil {
		return
	}
	m.checkoutCompleted.Inc()
	m.checkoutTotal.Observe(total)
}

// CheckoutRejected records a refused checkout.
func (m *CartMetrics) CheckoutRejected(reason string) {
	if m == nil {
		return
	}
	m.checkoutRejected.WithLabelValues(reason).Inc()
}

// FilterApplied records one evaluation of the product grid filter.
func (m *CartMetrics) FilterApplied() {
	if m == nil {
		return
	}
	m.filterApplied.Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
