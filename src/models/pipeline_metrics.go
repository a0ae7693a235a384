package models

// MPipelineMetrics represents throughput counters for the collect, detect and
// alert stages.
type MPipelineMetrics struct {
	SamplesCollected  map[string]int64 `json:"samples_collected"`
	AnomaliesFound    map[string]int64 `json:"anomalies_found"`
	AlertsSent        int64            `json:"alerts_sent"`
	AlertsFailed      int64            `json:"alerts_failed"`
	AlertsSuppressed  int64            `json:"alerts_suppressed"`
	DetectTimeSeconds float64          `json:"detect_time_seconds"`
	MemoryRSSMB       float64          `json:"memory_rss_mb"`
}
