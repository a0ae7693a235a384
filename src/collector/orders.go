package collector

import (
	"context"
	"fmt"
	"time"

	"pipeline-monitor/src/models"
	"pipeline-monitor/src/storage"
)

// OrdersCollector aggregates the orders table over a trailing window:
// order count, average order value and distinct customers.
type OrdersCollector struct {
	baseCollector
	Shop   *storage.ShopDB
	Window time.Duration
}

// -----------------------------------------------------------------------------

func NewOrdersCollector(config *models.MConfig, shop *storage.ShopDB) *OrdersCollector {
	collector := &OrdersCollector{
		Shop:   shop,
		Window: time.Duration(config.Collect.OrderWindowMinutes) * time.Minute,
	}
	collector.initBase(
		"orders",
		models.DomainOrders,
		time.Duration(config.Collect.IntervalSeconds)*time.Second,
		config.LogLevel,
	)
	collector.collect = collector.CollectOnce
	return collector
}

// -----------------------------------------------------------------------------

// CollectOnce runs a single aggregation. The sample is stamped with
// the collection time, not the window cutoff.
func (c *OrdersCollector) CollectOnce(ctx context.Context) (models.MetricSample, error) {
	now := time.Now().UTC()
	metrics, err := c.Shop.OrderMetrics(ctx, now.Add(-c.Window))
	if err != nil {
		return nil, fmt.Errorf("orders collection failed: %w", err)
	}
	metrics.ObservedAt = now
	return metrics, nil
}
