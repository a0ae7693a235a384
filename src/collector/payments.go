package collector

import (
	"context"
	"fmt"
	"time"

	"pipeline-monitor/src/models"
	"pipeline-monitor/src/storage"
)

// PaymentsCollector aggregates the transactions table over a trailing
// window: average completion time plus failed and succeeded counts.
type PaymentsCollector struct {
	baseCollector
	Shop   *storage.ShopDB
	Window time.Duration
}

// -----------------------------------------------------------------------------

func NewPaymentsCollector(config *models.MConfig, shop *storage.ShopDB) *PaymentsCollector {
	collector := &PaymentsCollector{
		Shop:   shop,
		Window: time.Duration(config.Collect.PaymentWindowMinutes) * time.Minute,
	}
	collector.initBase(
		"payments",
		models.DomainPayments,
		time.Duration(config.Collect.IntervalSeconds)*time.Second,
		config.LogLevel,
	)
	collector.collect = collector.CollectOnce
	return collector
}

// -----------------------------------------------------------------------------

func (c *PaymentsCollector) CollectOnce(ctx context.Context) (models.MetricSample, error) {
	now := time.Now().UTC()
	metrics, err := c.Shop.PaymentMetrics(ctx, now.Add(-c.Window))
	if err != nil {
		return nil, fmt.Errorf("payments collection failed: %w", err)
	}
	metrics.ObservedAt = now
	return metrics, nil
}
