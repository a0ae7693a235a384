package collector

import (
	"context"
	"fmt"
	"time"

	"pipeline-monitor/src/models"
	"pipeline-monitor/src/storage"
)

// InventoryCollector scans inventory_status: total products, items
// whose last sync predates the staleness cutoff, and the newest sync.
type InventoryCollector struct {
	baseCollector
	Shop      *storage.ShopDB
	Staleness time.Duration
}

// -----------------------------------------------------------------------------

func NewInventoryCollector(config *models.MConfig, shop *storage.ShopDB) *InventoryCollector {
	collector := &InventoryCollector{
		Shop:      shop,
		Staleness: time.Duration(config.Collect.InventoryStaleAfterSeconds) * time.Second,
	}
	collector.initBase(
		"inventory",
		models.DomainInventory,
		time.Duration(config.Collect.IntervalSeconds)*time.Second,
		config.LogLevel,
	)
	collector.collect = collector.CollectOnce
	return collector
}

// -----------------------------------------------------------------------------

func (c *InventoryCollector) CollectOnce(ctx context.Context) (models.MetricSample, error) {
	now := time.Now().UTC()
	metrics, err := c.Shop.InventoryMetrics(ctx, now.Add(-c.Staleness))
	if err != nil {
		return nil, fmt.Errorf("inventory collection failed: %w", err)
	}
	metrics.ObservedAt = now
	return metrics, nil
}
