package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline-monitor/src/analysis"
	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/notify"
	"pipeline-monitor/src/utils"
)

// Smoke runs compress the production cadence so every maintenance path fires
// within a short session.
const (
	baselineEvery = 30 * time.Second
	cleanupEvery  = 5 * time.Minute
	watchdogEvery = 30 * time.Second
)

// -----------------------------------------------------------------------------

// runDataLoop consumes samples until SIGINT or SIGTERM, in the same order as
// the production loop: history first, then detection, archival, alerting and
// the WebSocket broadcast.
func runDataLoop(samples <-chan models.MetricSample, history *utils.HistoryManager, detector *analysis.Detector, sink *notify.AlertSink, archive interfaces.IArchive, srv interfaces.IDataExchanger, appLogger *logger.Logger) {
	ctx := context.Background()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	baselineTicker := time.NewTicker(baselineEvery)
	defer baselineTicker.Stop()
	cleanupTicker := time.NewTicker(cleanupEvery)
	defer cleanupTicker.Stop()
	watchdogTicker := time.NewTicker(watchdogEvery)
	defer watchdogTicker.Stop()

	pipeline := models.MPipelineMetrics{
		SamplesCollected: make(map[string]int64),
		AnomaliesFound:   make(map[string]int64),
	}

	for {
		select {
		case sample, ok := <-samples:
			if !ok {
				appLogger.Info("Samples channel closed")
				return
			}

			start := time.Now()
			history.Add(sample)
			anomalies := detector.Check(sample)

			domain := sample.Domain()
			pipeline.SamplesCollected[domain]++
			pipeline.AnomaliesFound[domain] += int64(len(anomalies))
			pipeline.DetectTimeSeconds = time.Since(start).Seconds()
			pipeline.MemoryRSSMB = history.GetProcessMemoryMB()

			if err := archive.SaveSamples([]models.MetricSample{sample}); err != nil {
				appLogger.Error("Failed to archive %s sample: %v", domain, err)
			}

			for _, anomaly := range anomalies {
				appLogger.Warning("Anomaly [%s/%s] %s", anomaly.Domain, anomaly.Kind, anomaly.Message)
				alert := sink.Process(ctx, anomaly)
				if alert == nil {
					appLogger.Info("Alert suppressed for %s/%s", anomaly.Domain, anomaly.Kind)
					continue
				}
				appLogger.Info("Alert %s (severity %s, delivered %v)", alert.ID, alert.Anomaly.Severity, alert.Delivered)
				if err := archive.SaveAlert(*alert); err != nil {
					appLogger.Error("Failed to archive alert %s: %v", alert.ID, err)
				}
			}
			pipeline.AlertsSent, pipeline.AlertsFailed, pipeline.AlertsSuppressed = sink.Counters()

			update := &models.MLatestData{
				Type:      "UPDATE",
				Anomalies: anomalies,
				Timestamp: time.Now().Unix(),
				Pipeline:  snapshotPipeline(pipeline),
			}
			switch m := sample.(type) {
			case models.MOrderMetrics:
				update.Orders = &m
			case models.MPaymentMetrics:
				update.Payments = &m
			case models.MInventoryMetrics:
				update.Inventory = &m
			}
			srv.Broadcast(update)

		case <-baselineTicker.C:
			persistBaselines(detector, archive, appLogger)
			srv.Broadcast(&models.MLatestData{
				Type:      "UPDATE",
				Baselines: detector.AllBaselines(),
				Timestamp: time.Now().Unix(),
				Pipeline:  snapshotPipeline(pipeline),
			})

		case <-cleanupTicker.C:
			if err := archive.CleanupOldData(); err != nil {
				appLogger.Error("Retention cleanup failed: %v", err)
			}

		case <-watchdogTicker.C:
			history.CheckMemoryLimits()

		case <-quit:
			appLogger.Info("Shutting down...")
			persistBaselines(detector, archive, appLogger)
			return
		}
	}
}

// -----------------------------------------------------------------------------

// snapshotPipeline deep-copies the counters so served state never shares
// maps with the loop that keeps counting.
func snapshotPipeline(p models.MPipelineMetrics) models.MPipelineMetrics {
	out := p
	out.SamplesCollected = make(map[string]int64, len(p.SamplesCollected))
	for k, v := range p.SamplesCollected {
		out.SamplesCollected[k] = v
	}
	out.AnomaliesFound = make(map[string]int64, len(p.AnomaliesFound))
	for k, v := range p.AnomaliesFound {
		out.AnomaliesFound[k] = v
	}
	return out
}
