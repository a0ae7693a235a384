package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"pipeline-monitor/src/models"
)

// Every spikeEvery-th sample carries an obvious anomaly.
const spikeEvery = 12

// SyntheticCollector fabricates plausible shop metrics without touching a
// database. The smoke harness runs the full pipeline on it, with periodic
// spikes so detection and alerting can be watched end to end.
type SyntheticCollector struct {
	baseCollector

	rng  *rand.Rand
	rmu  sync.Mutex
	tick int
}

// -----------------------------------------------------------------------------

func NewSyntheticCollector(config *models.MConfig, domain string, seed int64) *SyntheticCollector {
	collector := &SyntheticCollector{rng: rand.New(rand.NewSource(seed))}
	collector.initBase(
		"synthetic-"+domain,
		domain,
		time.Duration(config.Collect.IntervalSeconds)*time.Second,
		config.LogLevel,
	)
	collector.collect = collector.CollectOnce
	return collector
}

// -----------------------------------------------------------------------------

func (c *SyntheticCollector) CollectOnce(ctx context.Context) (models.MetricSample, error) {
	return c.Sample(time.Now().UTC()), nil
}

// -----------------------------------------------------------------------------

// Sample fabricates one observation stamped with the given time. Exposed so
// the harness can backfill history with past points before going live.
func (c *SyntheticCollector) Sample(at time.Time) models.MetricSample {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	c.tick++
	spike := c.tick%spikeEvery == 0

	switch c.domain {
	case models.DomainPayments:
		return c.paymentSample(at, spike)
	case models.DomainInventory:
		return c.inventorySample(at, spike)
	default:
		return c.orderSample(at, spike)
	}
}

// -----------------------------------------------------------------------------

func (c *SyntheticCollector) orderSample(at time.Time, spike bool) models.MOrderMetrics {
	m := models.MOrderMetrics{
		OrderCount:      110 + c.rng.Intn(21),
		AvgOrderValue:   54 + c.rng.Float64()*8,
		UniqueCustomers: 73 + c.rng.Intn(15),
		ObservedAt:      at,
	}
	if spike {
		m.OrderCount = 3
		m.UniqueCustomers = 2
	}
	return m
}

// -----------------------------------------------------------------------------

func (c *SyntheticCollector) paymentSample(at time.Time, spike bool) models.MPaymentMetrics {
	m := models.MPaymentMetrics{
		AvgProcessingSeconds: 2 + c.rng.Float64(),
		FailedCount:          c.rng.Intn(4),
		SucceededCount:       102 + c.rng.Intn(17),
		ObservedAt:           at,
	}
	if spike {
		m.AvgProcessingSeconds = 45
		m.FailedCount = 40
	}
	return m
}

// -----------------------------------------------------------------------------

func (c *SyntheticCollector) inventorySample(at time.Time, spike bool) models.MInventoryMetrics {
	m := models.MInventoryMetrics{
		TotalProducts: 5000,
		StaleItems:    20 + c.rng.Intn(41),
		LatestSync:    at.Add(-5 * time.Second),
		ObservedAt:    at,
	}
	if spike {
		m.StaleItems = 1200
		m.LatestSync = at.Add(-15 * time.Minute)
	}
	return m
}
