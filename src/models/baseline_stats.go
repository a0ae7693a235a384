package models

import "time"

// MBaselineStats stores rolling statistics for one feature of a metric
// family, computed over the in-memory history window.
type MBaselineStats struct {
	Domain      string    `json:"domain"`
	Feature     string    `json:"feature"`
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	Count       int       `json:"count"`
	WindowHours int       `json:"window_hours"`
	ComputedAt  time.Time `json:"computed_at"`
}
