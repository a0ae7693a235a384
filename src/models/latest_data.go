package models

// -----------------------------------------------------------------------------
// Server State Structure
// -----------------------------------------------------------------------------

type MLatestData struct {
	Type      string                      `json:"type"` // "INITIAL" or "UPDATE"
	Orders    *MOrderMetrics              `json:"orders,omitempty"`
	Payments  *MPaymentMetrics            `json:"payments,omitempty"`
	Inventory *MInventoryMetrics          `json:"inventory,omitempty"`
	Anomalies []MAnomaly                  `json:"anomalies,omitempty"`
	Baselines map[string][]MBaselineStats `json:"baselines,omitempty"`
	Timestamp int64                       `json:"timestamp"`
	Pipeline  MPipelineMetrics            `json:"pipeline_metrics"`
}

// -----------------------------------------------------------------------------
// SubscribeCommand for client messages
// -----------------------------------------------------------------------------

type MSubscribeCommand struct {
	Command string   `json:"command"`
	Domains []string `json:"domains"`
}
