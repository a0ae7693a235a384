package models

import "time"

// MInventoryMetrics is a point-in-time scan of the inventory_status table.
// LatestSync is the zero time when the table is empty.
type MInventoryMetrics struct {
	TotalProducts int       `json:"total_products"`
	StaleItems    int       `json:"stale_items"`
	LatestSync    time.Time `json:"latest_sync"`
	ObservedAt    time.Time `json:"observed_at"`
}

func (m MInventoryMetrics) Domain() string { return DomainInventory }

func (m MInventoryMetrics) Observed() time.Time { return m.ObservedAt }

func (m MInventoryMetrics) HistoryRow() [RB_NUM_FEATURES]float64 {
	return [RB_NUM_FEATURES]float64{
		RB_IDX_TIMESTAMP:   float64(m.ObservedAt.Unix()),
		RB_IDX_TOTAL_ITEMS: float64(m.TotalProducts),
		RB_IDX_STALE_ITEMS: float64(m.StaleItems),
		RB_IDX_SYNC_DELAY:  m.SyncDelaySeconds(),
	}
}

// StaleRatio returns stale/total, or 0 for an empty inventory.
func (m MInventoryMetrics) StaleRatio() float64 {
	if m.TotalProducts == 0 {
		return 0
	}
	return float64(m.StaleItems) / float64(m.TotalProducts)
}

// SyncDelaySeconds measures how far behind the newest sync was at observation
// time. Returns 0 when LatestSync is unknown.
func (m MInventoryMetrics) SyncDelaySeconds() float64 {
	if m.LatestSync.IsZero() {
		return 0
	}
	d := m.ObservedAt.Sub(m.LatestSync).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
