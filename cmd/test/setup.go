package main

import (
	"fmt"
	"os"
	"path/filepath"

	"pipeline-monitor/src/analysis"
	"pipeline-monitor/src/collector"
	"pipeline-monitor/src/helpers"
	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/notify"
	"pipeline-monitor/src/storage"
	"pipeline-monitor/src/utils"
)

// -----------------------------------------------------------------------------

// setupArchive opens a throwaway SQLite archive under the OS temp dir so a
// smoke run never needs Postgres and never touches a real archive.
func setupArchive(cfg *models.MConfig, appLogger *logger.Logger) (interfaces.IArchive, error) {
	cfg.Archive.DBType = "sqlite"
	cfg.Archive.DBPath = filepath.Join(os.TempDir(), fmt.Sprintf("pipeline-monitor-smoke-%d.db", os.Getpid()))

	archive, err := storage.NewSQLiteArchive(cfg, logger.NewLogger(cfg.LogLevel, "archive"))
	if err != nil {
		appLogger.Critical("Failed to open archive: %v", err)
		return nil, err
	}
	if err := archive.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate archive: %v", err)
		return nil, err
	}
	appLogger.Info("Archive at %s", cfg.Archive.DBPath)
	return archive, nil
}

// -----------------------------------------------------------------------------

// setupAnalysis initializes the rolling history and the detector over it. The
// harness sizes memory to the machine it runs on, not to the config.
func setupAnalysis(cfg *models.MConfig, appLogger *logger.Logger) (*utils.HistoryManager, *analysis.Detector) {
	maxPoints := utils.CalculateMaxDataPoints(cfg.Collect.HistoryHours, cfg.Collect.IntervalSeconds)
	memLimit := helpers.GetRecommendedMemoryLimit()
	appLogger.Info("Memory limit set to %d MB", memLimit)

	history := utils.NewHistoryManager(memLimit, maxPoints, cfg.LogLevel)
	return history, analysis.NewDetector(cfg, history)
}

// -----------------------------------------------------------------------------

// setupAlerting wires the policy to the log notifier. A smoke run never posts
// to Slack, whatever the config says.
func setupAlerting(cfg *models.MConfig) *notify.AlertSink {
	return notify.NewAlertSink(notify.NewPolicy(cfg), notify.NewLogNotifier(cfg.LogLevel), cfg.LogLevel)
}

// -----------------------------------------------------------------------------

// setupCollectors registers one synthetic generator per metric family. The
// generators are returned separately so the bootstrap can backfill from them.
func setupCollectors(cfg *models.MConfig, appLogger *logger.Logger) (*collector.CollectorManager, []*collector.SyntheticCollector) {
	manager := collector.NewCollectorManager(cfg.LogLevel)

	var generators []*collector.SyntheticCollector
	for i, domain := range models.Domains() {
		gen := collector.NewSyntheticCollector(cfg, domain, int64(i+1))
		if err := manager.AddCollector(gen); err != nil {
			appLogger.Critical("Failed to register collector: %v", err)
		}
		generators = append(generators, gen)
	}
	return manager, generators
}
