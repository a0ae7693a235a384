package models

import "time"

// MOrderMetrics aggregates the shop orders table over the trailing window.
type MOrderMetrics struct {
	OrderCount      int       `json:"order_count"`
	AvgOrderValue   float64   `json:"avg_order_value"`
	UniqueCustomers int       `json:"unique_customers"`
	ObservedAt      time.Time `json:"observed_at"`
}

func (m MOrderMetrics) Domain() string { return DomainOrders }

func (m MOrderMetrics) Observed() time.Time { return m.ObservedAt }

func (m MOrderMetrics) HistoryRow() [RB_NUM_FEATURES]float64 {
	return [RB_NUM_FEATURES]float64{
		RB_IDX_TIMESTAMP:   float64(m.ObservedAt.Unix()),
		RB_IDX_ORDER_COUNT: float64(m.OrderCount),
		RB_IDX_ORDER_VALUE: m.AvgOrderValue,
		RB_IDX_CUSTOMERS:   float64(m.UniqueCustomers),
	}
}
