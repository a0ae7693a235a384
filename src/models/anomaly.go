package models

import "time"

// Severity levels, least to most urgent.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityRank maps a severity to its position in the escalation order.
// Unknown strings rank below low.
func SeverityRank(s string) int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return -1
	}
}

// Anomaly kinds emitted by the detector.
const (
	KindOrderVolume         = "order_volume"
	KindOrderValue          = "order_value"
	KindUniqueCustomers     = "unique_customers"
	KindVolumeDeviation     = "volume_deviation"
	KindProcessingTime      = "processing_time"
	KindTransactionFailures = "transaction_failures"
	KindInventorySync       = "inventory_sync"
	KindSyncDelay           = "sync_delay"
)

// MAnomaly is one detected deviation in a metric family.
type MAnomaly struct {
	Domain     string    `json:"domain"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	Value      float64   `json:"value"`
	Threshold  float64   `json:"threshold"`
	ObservedAt time.Time `json:"observed_at"`
}
