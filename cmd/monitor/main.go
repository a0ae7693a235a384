package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pipeline-monitor/src/analysis"
	"pipeline-monitor/src/collector"
	"pipeline-monitor/src/config"
	"pipeline-monitor/src/helpers"
	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/notify"
	"pipeline-monitor/src/server"
	"pipeline-monitor/src/storage"
	"pipeline-monitor/src/utils"
)

const version = "1.0.0"

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "", "path to config file (default config/default.yaml, or MONITOR_CONFIG)")
	logLevel := flag.String("log-level", "", "override the configured log level")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pipeline-monitor %s\n", version)
		return
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("MONITOR_CONFIG")
	}
	if path == "" {
		path = "config/default.yaml"
	}

	// Load config from YAML file
	cfg, err := config.NewConfig(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Shop database (read side). The shop may come up after us, so ping
	// with backoff before declaring it unreachable.
	shop, err := storage.NewShopDB(cfg.ShopDSN(), logger.NewLogger(cfg.LogLevel, "shop-db"))
	if err != nil {
		appLogger.Critical("Failed to open shop database: %v", err)
	}
	_, err = helpers.RetryWithBackoff(ctx, "shop database ping", 5, 2*time.Second, func() (interface{}, error) {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		return nil, shop.Ping(pingCtx)
	})
	if err != nil {
		appLogger.Critical("Shop database unreachable: %v", err)
	}

	// 3. Archive (write side)
	var archive interfaces.IArchive
	switch cfg.Archive.DBType {
	case "postgres":
		archive, err = storage.NewPostgresArchive(cfg.MConfig, logger.NewLogger(cfg.LogLevel, "archive"))
	default:
		archive, err = storage.NewSQLiteArchive(cfg.MConfig, logger.NewLogger(cfg.LogLevel, "archive"))
	}
	if err != nil {
		appLogger.Critical("Failed to init archive: %v", err)
	}
	if err := archive.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate archive: %v", err)
	}

	// 4. History, warm-started from the archive so baselines survive restarts
	maxPoints := utils.CalculateMaxDataPoints(cfg.Collect.HistoryHours, cfg.Collect.IntervalSeconds)
	history := utils.NewHistoryManager(cfg.Limits.MaxMemoryMB, maxPoints, cfg.LogLevel)

	since := time.Now().UTC().Add(-time.Duration(cfg.Collect.HistoryHours) * time.Hour)
	for _, domain := range models.Domains() {
		rows, err := archive.RecentRows(domain, since)
		if err != nil {
			appLogger.Warning("Warm start skipped for %s: %v", domain, err)
			continue
		}
		for _, row := range rows {
			history.AddRow(domain, row)
		}
		appLogger.Info("Warm start loaded %d rows for %s", len(rows), domain)
	}

	// 5. Detection and alerting
	detector := analysis.NewDetector(cfg.MConfig, history)

	var notifier interfaces.INotifier
	if cfg.Alerting.SlackToken != "" {
		notifier = notify.NewSlackNotifier(cfg.Alerting.SlackToken, cfg.Alerting.SlackChannel, cfg.LogLevel)
	} else {
		appLogger.Warning("No Slack token configured, alerts go to the log")
		notifier = notify.NewLogNotifier(cfg.LogLevel)
	}
	sink := notify.NewAlertSink(notify.NewPolicy(cfg.MConfig), notifier, cfg.LogLevel)

	// 6. Collectors
	manager := collector.NewCollectorManager(cfg.LogLevel)
	for _, col := range []interfaces.ICollector{
		collector.NewOrdersCollector(cfg.MConfig, shop),
		collector.NewPaymentsCollector(cfg.MConfig, shop),
		collector.NewInventoryCollector(cfg.MConfig, shop),
	} {
		if err := manager.AddCollector(col); err != nil {
			appLogger.Critical("Failed to register collector: %v", err)
		}
	}

	// 7. Server
	var exchanger interfaces.IDataExchanger = server.NewServer(cfg, path, manager, detector, history, archive)

	pipeline := models.MPipelineMetrics{
		SamplesCollected: make(map[string]int64),
		AnomaliesFound:   make(map[string]int64),
	}

	exchanger.UpdateState(&models.MLatestData{
		Type:      "INITIAL",
		Baselines: detector.AllBaselines(),
		Timestamp: time.Now().Unix(),
		Pipeline:  snapshotPipeline(pipeline),
	})

	go func() {
		if err := exchanger.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 8. Start the pipeline
	wg := &sync.WaitGroup{}
	samples := make(chan models.MetricSample, cfg.Limits.SamplesBuffer)

	if err := manager.Start(ctx, samples, wg); err != nil {
		appLogger.Critical("Failed to start collectors: %v", err)
	}

	// First fill so the API serves data before the first tick
	fillCtx, fillCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := manager.TriggerAll(fillCtx); err != nil {
		appLogger.Warning("Initial collection failed: %v", err)
	}
	fillCancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	baselineTicker := time.NewTicker(time.Hour)
	defer baselineTicker.Stop()
	cleanupTicker := time.NewTicker(24 * time.Hour)
	defer cleanupTicker.Stop()
	watchdogTicker := time.NewTicker(time.Minute)
	defer watchdogTicker.Stop()

	appLogger.Info("Pipeline monitor running (interval %ds)", cfg.Collect.IntervalSeconds)

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
					continue
				}
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
			exchanger.Broadcast(update)

		case <-baselineTicker.C:
			persistBaselines(detector, archive, appLogger)
			exchanger.Broadcast(&models.MLatestData{
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

			if err := manager.Stop(); err != nil {
				appLogger.Warning("Collector shutdown: %v", err)
			}
			cancel()
			wg.Wait()

			persistBaselines(detector, archive, appLogger)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := exchanger.Stop(shutdownCtx); err != nil {
				appLogger.Warning("Server shutdown: %v", err)
			}
			shutdownCancel()

			if err := archive.Close(); err != nil {
				appLogger.Warning("Archive close: %v", err)
			}
			appLogger.Info("Shutdown complete")
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
