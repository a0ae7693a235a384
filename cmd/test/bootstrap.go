package main

import (
	"time"

	"pipeline-monitor/src/analysis"
	"pipeline-monitor/src/collector"
	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/utils"
)

// backfillPoints is how many historical samples each generator contributes
// before the live loop starts. Enough to clear min_baseline_count so the
// deviation checks are armed from the first tick.
const backfillPoints = 60

// -----------------------------------------------------------------------------

// performInitialFill seeds the history and the archive with synthetic samples
// spaced one collection interval apart, then verifies the archive round trip
// and persists the resulting baselines. The returned payload is what new
// WebSocket clients see before the first live update.
func performInitialFill(generators []*collector.SyntheticCollector, history *utils.HistoryManager, detector *analysis.Detector, archive interfaces.IArchive, cfg *models.MConfig, appLogger *logger.Logger) (*models.MLatestData, error) {
	interval := time.Duration(cfg.Collect.IntervalSeconds) * time.Second
	now := time.Now().UTC()

	batch := make([]models.MetricSample, 0, backfillPoints*len(generators))
	for i := backfillPoints; i >= 1; i-- {
		at := now.Add(-time.Duration(i) * interval)
		for _, gen := range generators {
			sample := gen.Sample(at)
			history.Add(sample)
			batch = append(batch, sample)
		}
	}
	appLogger.Info("Backfilled %d samples across %d families", len(batch), len(generators))

	var fillErr error
	if err := archive.SaveSamples(batch); err != nil {
		appLogger.Error("Failed to archive backfill: %v", err)
		fillErr = err
	} else {
		since := now.Add(-time.Duration(backfillPoints+1) * interval)
		for _, domain := range models.Domains() {
			rows, err := archive.RecentRows(domain, since)
			if err != nil {
				appLogger.Error("Archive round trip failed for %s: %v", domain, err)
				fillErr = err
				continue
			}
			appLogger.Info("Archive round trip: %d rows for %s", len(rows), domain)
		}
	}

	persistBaselines(detector, archive, appLogger)

	pipeline := models.MPipelineMetrics{
		SamplesCollected: make(map[string]int64),
		AnomaliesFound:   make(map[string]int64),
	}
	for _, domain := range models.Domains() {
		pipeline.SamplesCollected[domain] = backfillPoints
	}

	return &models.MLatestData{
		Type:      "INITIAL",
		Baselines: detector.AllBaselines(),
		Timestamp: now.Unix(),
		Pipeline:  pipeline,
	}, fillErr
}

// -----------------------------------------------------------------------------

func persistBaselines(detector *analysis.Detector, archive interfaces.IArchive, log *logger.Logger) {
	var all []models.MBaselineStats
	for _, domain := range models.Domains() {
		all = append(all, detector.Baselines(domain)...)
	}
	if len(all) == 0 {
		return
	}
	if err := archive.SaveBaselines(all); err != nil {
		log.Error("Failed to persist baselines: %v", err)
		return
	}
	log.Debug("Persisted %d baseline rows", len(all))
}
