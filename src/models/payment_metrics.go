package models

import "time"

// MPaymentMetrics aggregates the shop transactions table over the trailing
// window. Processing time covers completed transactions only.
type MPaymentMetrics struct {
	AvgProcessingSeconds float64   `json:"avg_processing_seconds"`
	FailedCount          int       `json:"failed_count"`
	SucceededCount       int       `json:"succeeded_count"`
	ObservedAt           time.Time `json:"observed_at"`
}

func (m MPaymentMetrics) Domain() string { return DomainPayments }

func (m MPaymentMetrics) Observed() time.Time { return m.ObservedAt }

func (m MPaymentMetrics) HistoryRow() [RB_NUM_FEATURES]float64 {
	return [RB_NUM_FEATURES]float64{
		RB_IDX_TIMESTAMP:    float64(m.ObservedAt.Unix()),
		RB_IDX_PROC_SECONDS: m.AvgProcessingSeconds,
		RB_IDX_FAILED:       float64(m.FailedCount),
		RB_IDX_SUCCEEDED:    float64(m.SucceededCount),
	}
}

// FailureRate returns failed/(failed+succeeded), or 0 when the window saw no
// finished transactions.
func (m MPaymentMetrics) FailureRate() float64 {
	total := m.FailedCount + m.SucceededCount
	if total == 0 {
		return 0
	}
	return float64(m.FailedCount) / float64(total)
}
