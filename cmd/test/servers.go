package main

import (
	"context"
	"time"

	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------

// startServers launches the HTTP and WebSocket server in the background.
func startServers(srv interfaces.IDataExchanger, cfg *models.MConfig, appLogger *logger.Logger) {
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()
	appLogger.Info("API at http://%s:%d/api/health", cfg.Host, cfg.Port)
	appLogger.Info("Live feed at ws://%s:%d/ws", cfg.Host, cfg.Port)
}

// -----------------------------------------------------------------------------

// stopServers shuts the server down, bounded so a stuck client cannot hold
// the smoke run open.
func stopServers(srv interfaces.IDataExchanger, appLogger *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		appLogger.Warning("Server shutdown: %v", err)
	}
}
