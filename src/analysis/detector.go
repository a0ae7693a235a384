package analysis

import (
	"fmt"
	"math"
	"sync"
	"time"

	"pipeline-monitor/src/analysis/core"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/utils"
)

// Detector screens every sample against the configured thresholds and the
// rolling baselines held in history. Thresholds can be swapped at runtime
// from the admin API; checks read a consistent copy per sample.
type Detector struct {
	History          *utils.HistoryManager
	MinBaselineCount int
	WindowHours      int
	Logger           *logger.Logger

	thresholds models.MThresholds
	mu         sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewDetector(config *models.MConfig, history *utils.HistoryManager) *Detector {
	return &Detector{
		History:          history,
		MinBaselineCount: config.Detect.MinBaselineCount,
		WindowHours:      config.Collect.HistoryHours,
		Logger:           logger.NewLogger(config.LogLevel, "detector"),
		thresholds:       config.Detect.Thresholds,
	}
}

// -----------------------------------------------------------------------------

// Thresholds returns the active threshold set.
func (d *Detector) Thresholds() models.MThresholds {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.thresholds
}

// -----------------------------------------------------------------------------

// UpdateThresholds validates and swaps the active threshold set.
func (d *Detector) UpdateThresholds(t models.MThresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	d.thresholds = t
	d.mu.Unlock()

	d.Logger.Info("Detection thresholds updated")
	return nil
}

// -----------------------------------------------------------------------------

// Check evaluates one sample and returns every anomaly it trips, in a fixed
// per-family order. The sample and history are never mutated.
func (d *Detector) Check(sample models.MetricSample) []models.MAnomaly {
	d.mu.RLock()
	t := d.thresholds
	d.mu.RUnlock()

	switch m := sample.(type) {
	case models.MOrderMetrics:
		return d.checkOrders(m, t)
	case models.MPaymentMetrics:
		return d.checkPayments(m, t)
	case models.MInventoryMetrics:
		return d.checkInventory(m, t)
	default:
		d.Logger.Warning("No checks registered for domain %s", sample.Domain())
		return nil
	}
}

// -----------------------------------------------------------------------------

func (d *Detector) checkOrders(m models.MOrderMetrics, t models.MThresholds) []models.MAnomaly {
	var anomalies []models.MAnomaly

	// 1. Absolute order volume floor
	if t.MinHourlyOrders > 0 && m.OrderCount < t.MinHourlyOrders {
		anomalies = append(anomalies, models.MAnomaly{
			Domain:     models.DomainOrders,
			Kind:       models.KindOrderVolume,
			Severity:   models.SeverityHigh,
			Message:    fmt.Sprintf("Order volume below threshold: %d orders", m.OrderCount),
			Value:      float64(m.OrderCount),
			Threshold:  float64(t.MinHourlyOrders),
			ObservedAt: m.ObservedAt,
		})
	}

	// 2. Average order value drift against the rolling mean. Skipped until
	// the baseline carries enough points to mean something.
	if t.MaxOrderValueChange > 0 {
		mean, _, count := d.baseline(models.DomainOrders, models.RB_IDX_ORDER_VALUE)
		if count >= d.MinBaselineCount && mean != 0 {
			change := core.CalculateAbsChange(m.AvgOrderValue, mean)
			if change > t.MaxOrderValueChange {
				anomalies = append(anomalies, models.MAnomaly{
					Domain:     models.DomainOrders,
					Kind:       models.KindOrderValue,
					Severity:   models.SeverityMedium,
					Message:    fmt.Sprintf("Unusual change in average order value: %.2f%%", change*100),
					Value:      change,
					Threshold:  t.MaxOrderValueChange,
					ObservedAt: m.ObservedAt,
				})
			}
		}
	}

	// 3. Distinct customer floor
	if t.MinUniqueCustomers > 0 && m.UniqueCustomers < t.MinUniqueCustomers {
		anomalies = append(anomalies, models.MAnomaly{
			Domain:     models.DomainOrders,
			Kind:       models.KindUniqueCustomers,
			Severity:   models.SeverityMedium,
			Message:    fmt.Sprintf("Unique customer count below threshold: %d customers", m.UniqueCustomers),
			Value:      float64(m.UniqueCustomers),
			Threshold:  float64(t.MinUniqueCustomers),
			ObservedAt: m.ObservedAt,
		})
	}

	// 4. Volume deviation from baseline, both directions
	if t.VolumeZScore > 0 {
		mean, std, count := d.baseline(models.DomainOrders, models.RB_IDX_ORDER_COUNT)
		if count >= d.MinBaselineCount {
			z := core.CalculateZScore(float64(m.OrderCount), mean, std)
			if math.Abs(z) > t.VolumeZScore {
				anomalies = append(anomalies, models.MAnomaly{
					Domain:     models.DomainOrders,
					Kind:       models.KindVolumeDeviation,
					Severity:   models.SeverityMedium,
					Message:    fmt.Sprintf("Order volume deviates from baseline: z=%.2f", z),
					Value:      z,
					Threshold:  t.VolumeZScore,
					ObservedAt: m.ObservedAt,
				})
			}
		}
	}

	return anomalies
}

// -----------------------------------------------------------------------------

func (d *Detector) checkPayments(m models.MPaymentMetrics, t models.MThresholds) []models.MAnomaly {
	var anomalies []models.MAnomaly

	// 1. Processing time ceiling
	if t.MaxProcessingTimeSeconds > 0 && m.AvgProcessingSeconds > t.MaxProcessingTimeSeconds {
		anomalies = append(anomalies, models.MAnomaly{
			Domain:     models.DomainPayments,
			Kind:       models.KindProcessingTime,
			Severity:   models.SeverityHigh,
			Message:    fmt.Sprintf("High transaction processing time: %.1fs", m.AvgProcessingSeconds),
			Value:      m.AvgProcessingSeconds,
			Threshold:  t.MaxProcessingTimeSeconds,
			ObservedAt: m.ObservedAt,
		})
	}

	// 2. Failure rate ceiling. FailureRate is 0 for an empty window, so an
	// idle shop never trips this.
	if t.MaxFailureRate > 0 {
		rate := m.FailureRate()
		if rate > t.MaxFailureRate {
			anomalies = append(anomalies, models.MAnomaly{
				Domain:     models.DomainPayments,
				Kind:       models.KindTransactionFailures,
				Severity:   models.SeverityCritical,
				Message:    fmt.Sprintf("High transaction failure rate: %.1f%%", rate*100),
				Value:      rate,
				Threshold:  t.MaxFailureRate,
				ObservedAt: m.ObservedAt,
			})
		}
	}

	return anomalies
}

// -----------------------------------------------------------------------------

func (d *Detector) checkInventory(m models.MInventoryMetrics, t models.MThresholds) []models.MAnomaly {
	var anomalies []models.MAnomaly

	// 1. Stale item ratio ceiling
	if t.MaxStaleRatio > 0 {
		ratio := m.StaleRatio()
		if ratio > t.MaxStaleRatio {
			anomalies = append(anomalies, models.MAnomaly{
				Domain:     models.DomainInventory,
				Kind:       models.KindInventorySync,
				Severity:   models.SeverityMedium,
				Message:    fmt.Sprintf("High ratio of stale inventory items: %.1f%%", ratio*100),
				Value:      ratio,
				Threshold:  t.MaxStaleRatio,
				ObservedAt: m.ObservedAt,
			})
		}
	}

	// 2. Sync delay ceiling, measured at observation time. Skipped when the
	// table held no sync timestamp at all.
	if t.MaxSyncDelaySeconds > 0 && !m.LatestSync.IsZero() {
		delay := m.SyncDelaySeconds()
		if delay > t.MaxSyncDelaySeconds {
			anomalies = append(anomalies, models.MAnomaly{
				Domain:     models.DomainInventory,
				Kind:       models.KindSyncDelay,
				Severity:   models.SeverityHigh,
				Message:    fmt.Sprintf("Inventory sync delayed by %.0fs", delay),
				Value:      delay,
				Threshold:  t.MaxSyncDelaySeconds,
				ObservedAt: m.ObservedAt,
			})
		}
	}

	return anomalies
}

// -----------------------------------------------------------------------------

// baseline computes mean/std over one feature column of a domain's history.
func (d *Detector) baseline(domain string, feature int) (mean, std float64, count int) {
	col := d.History.Column(domain, feature)
	mean, std = core.CalculateMeanStd(col)
	return mean, std, len(col)
}

// -----------------------------------------------------------------------------

// Baselines snapshots the rolling statistics for every feature of a domain.
// Features with no history yet are omitted.
func (d *Detector) Baselines(domain string) []models.MBaselineStats {
	names := models.FeatureNames(domain)
	now := time.Now().UTC()

	stats := make([]models.MBaselineStats, 0, len(names))
	for i, name := range names {
		col := d.History.Column(domain, i+1)
		if len(col) == 0 {
			continue
		}
		mean, std := core.CalculateMeanStd(col)
		stats = append(stats, models.MBaselineStats{
			Domain:      domain,
			Feature:     name,
			Mean:        mean,
			Std:         std,
			Count:       len(col),
			WindowHours: d.WindowHours,
			ComputedAt:  now,
		})
	}
	return stats
}

// -----------------------------------------------------------------------------

// AllBaselines maps every domain to its current baseline snapshot.
func (d *Detector) AllBaselines() map[string][]models.MBaselineStats {
	out := make(map[string][]models.MBaselineStats)
	for _, domain := range models.Domains() {
		if stats := d.Baselines(domain); len(stats) > 0 {
			out[domain] = stats
		}
	}
	return out
}
