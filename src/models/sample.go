package models

import "time"

// Metric family keys. These name the three pipelines the monitor watches and
// key every per-family map in the system (history, baselines, counters).
const (
	DomainOrders    = "order_volume"
	DomainPayments  = "payment_processing"
	DomainInventory = "inventory_updates"
)

// Domains lists the metric families in collection order.
func Domains() []string {
	return []string{DomainOrders, DomainPayments, DomainInventory}
}

// MetricSample is implemented by every per-family metrics struct that flows
// through the samples channel.
type MetricSample interface {
	// Domain returns the metric family key.
	Domain() string
	// Observed returns the collection time the sample was taken at.
	Observed() time.Time
	// HistoryRow flattens the sample into a fixed feature vector for the
	// rolling history buffers.
	HistoryRow() [RB_NUM_FEATURES]float64
}
