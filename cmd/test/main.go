package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pipeline-monitor/src/config"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/server"
)

// Smoke harness: drives the full pipeline with synthetic shop metrics, no
// Postgres and no Slack required. Useful for dashboard development and for
// watching detection, alerting and the WebSocket feed behave end to end.
func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	interval := flag.Int("interval", 2, "synthetic collection interval in seconds")
	flag.Parse()

	if *interval <= 0 {
		*interval = 2
	}

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// The harness runs hot and keeps config edits away from the real file
	conf.Collect.IntervalSeconds = *interval
	savePath := filepath.Join(os.TempDir(), fmt.Sprintf("pipeline-monitor-smoke-%d.yaml", os.Getpid()))

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, "smoke")
	defer appLogger.Sync()

	// 4. Setup Components
	archive, err := setupArchive(conf.MConfig, appLogger)
	if err != nil {
		os.Exit(1)
	}
	defer archive.Close()

	history, detector := setupAnalysis(conf.MConfig, appLogger)
	sink := setupAlerting(conf.MConfig)
	manager, generators := setupCollectors(conf.MConfig, appLogger)

	srv := server.NewServer(conf, savePath, manager, detector, history, archive)

	// 5. Bootstrap (backfilled history, seeded baselines)
	initialPayload, err := performInitialFill(generators, history, detector, archive, conf.MConfig, appLogger)
	if err != nil {
		appLogger.Warning("Bootstrap completed with warnings: %v", err)
	}
	srv.UpdateState(initialPayload)

	// 6. Start Servers
	startServers(srv, conf.MConfig, appLogger)
	defer stopServers(srv, appLogger)

	// 7. Run Main Processing Loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	samples := make(chan models.MetricSample, conf.Limits.SamplesBuffer)

	if err := manager.Start(ctx, samples, &wg); err != nil {
		appLogger.Critical("Failed to start collectors: %v", err)
	}

	// First fill so the API answers before the first tick
	fillCtx, fillCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := manager.TriggerAll(fillCtx); err != nil {
		appLogger.Warning("First collection failed: %v", err)
	}
	fillCancel()

	// Wait for cleanup on exit
	defer func() {
		appLogger.Info("Waiting for collectors to stop...")
		cancel()
		wg.Wait()
		appLogger.Info("Shutdown complete.")
	}()

	// Run Loop (Blocking)
	runDataLoop(samples, history, detector, sink, archive, srv, appLogger)
}
