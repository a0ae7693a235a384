package models

import "time"

// MAlert wraps an anomaly that passed the alerting policy. Fingerprint
// identifies the domain+kind pair for cooldown bookkeeping.
type MAlert struct {
	ID            string    `json:"id"`
	Anomaly       MAnomaly  `json:"anomaly"`
	Fingerprint   uint64    `json:"fingerprint"`
	CreatedAt     time.Time `json:"created_at"`
	Delivered     bool      `json:"delivered"`
	DeliveryError string    `json:"delivery_error,omitempty"`
}
