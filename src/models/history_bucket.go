package models

// -----------------------------------------------------------------------------
// Downsampled history served by the API
// -----------------------------------------------------------------------------

// MFeatureSummary condenses one feature over a bucket.
type MFeatureSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// MHistoryBucket is one aligned window of downsampled history, keyed by the
// family's feature names.
type MHistoryBucket struct {
	StartTime  int64                      `json:"start_time"`
	EndTime    int64                      `json:"end_time"`
	DataPoints int                        `json:"data_points"`
	Features   map[string]MFeatureSummary `json:"features"`
}
