package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"pipeline-monitor/src/analysis"
	"pipeline-monitor/src/collector"
	"pipeline-monitor/src/config"
	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/utils"
)

// Recent anomalies kept in memory for /api/anomalies.
const anomalyRingSize = 500

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

type Server struct {
	Config     *config.Config
	ConfigPath string
	Logger     *logger.Logger
	engine     *gin.Engine
	httpServer *http.Server

	Collectors *collector.CollectorManager
	Detector   *analysis.Detector
	History    *utils.HistoryManager
	Aggregator *analysis.HistoryAggregator
	Archive    interfaces.IArchive

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan *models.MLatestData
	register    chan *Client
	unregister  chan *Client
	done        chan struct{}

	// Served state
	latestState *models.MLatestData
	anomalyRing []models.MAnomaly
	stateMutex  sync.RWMutex

	startedAt time.Time
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(cfg *config.Config, configPath string, collectors *collector.CollectorManager,
	detector *analysis.Detector, history *utils.HistoryManager, archive interfaces.IArchive) *Server {

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger.NewLogger(cfg.LogLevel, "server"),
		engine:     gin.Default(),
		Collectors: collectors,
		Detector:   detector,
		History:    history,
		Aggregator: analysis.NewHistoryAggregator(cfg.LogLevel, history),
		Archive:    archive,
		clients:    make(map[*Client]struct{}),
		// Buffered queue so the pipeline never waits on slow fan-out
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latestState: &models.MLatestData{
			Type:      "INITIAL",
			Timestamp: 0,
		},
		startedAt: time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.engine,
	}

	// CORS for local dashboards
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/snapshot", s.getSnapshot)
	s.engine.GET("/api/history", s.getHistory)
	s.engine.GET("/api/anomalies", s.getAnomalies)
	s.engine.GET("/api/alerts", s.getAlerts)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/thresholds", s.getThresholds)
	s.engine.PUT("/api/thresholds", s.putThresholds)

	// Collector control
	s.engine.GET("/api/collectors", s.listCollectors)
	s.engine.POST("/api/collectors/:name/start", s.startCollector)
	s.engine.POST("/api/collectors/:name/stop", s.stopCollector)
	s.engine.POST("/api/collect", s.triggerCollect)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	go s.runHub()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *Server) Stop(ctx context.Context) error {
	close(s.done)
	return s.httpServer.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"connections":    s.clientCount.Load(),
		"latest_update":  timestamp,
		"collectors":     s.Collectors.States(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	pipeline := s.latestState.Pipeline
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"pipeline":       pipeline,
		"history_points": s.History.Sizes(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getSnapshot(c *gin.Context) {
	s.stateMutex.RLock()
	orders := s.latestState.Orders
	payments := s.latestState.Payments
	inventory := s.latestState.Inventory
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"orders":    orders,
		"payments":  payments,
		"inventory": inventory,
		"baselines": s.Detector.AllBaselines(),
		"timestamp": timestamp,
	})
}

// -----------------------------------------------------------------------------

// getHistory serves downsampled history for one family. Dashboards use it to
// backfill charts before the live WebSocket feed takes over.
func (s *Server) getHistory(c *gin.Context) {
	domain := c.Query("domain")
	if !validDomain(domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown domain %q", domain)})
		return
	}

	window, err := time.ParseDuration(c.DefaultQuery("window", "5m"))
	if err != nil || window < time.Minute {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a duration of at least 1m"})
		return
	}

	buckets := s.Aggregator.Aggregate(domain, int64(window.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"domain":         domain,
		"window_seconds": int64(window.Seconds()),
		"buckets":        buckets,
		"count":          len(buckets),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getAnomalies(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "50"))

	s.stateMutex.RLock()
	ring := s.anomalyRing
	if limit > len(ring) {
		limit = len(ring)
	}
	// Ring is stored oldest first, serve newest first
	anomalies := make([]models.MAnomaly, 0, limit)
	for i := len(ring) - 1; i >= len(ring)-limit; i-- {
		anomalies = append(anomalies, ring[i])
	}
	s.stateMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"anomalies": anomalies,
		"count":     len(anomalies),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getAlerts(c *gin.Context) {
	limit := parseLimit(c.DefaultQuery("limit", "50"))

	alerts, err := s.Archive.RecentAlerts(limit)
	if err != nil {
		s.Logger.Error("Failed to read alerts from archive: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "archive read failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.Config.Redacted())
}

// -----------------------------------------------------------------------------

func (s *Server) getThresholds(c *gin.Context) {
	c.JSON(http.StatusOK, s.Detector.Thresholds())
}

// -----------------------------------------------------------------------------

// putThresholds replaces the whole threshold set. Fields missing from the
// body become zero, which disables their check.
func (s *Server) putThresholds(c *gin.Context) {
	var thresholds models.MThresholds
	if err := c.ShouldBindJSON(&thresholds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid thresholds payload: %v", err)})
		return
	}

	if err := s.Detector.UpdateThresholds(thresholds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Persist so a restart keeps the new limits
	s.Config.Detect.Thresholds = thresholds
	if err := s.Config.Save(s.ConfigPath); err != nil {
		s.Logger.Warning("Thresholds applied but config save failed: %v", err)
	}

	c.JSON(http.StatusOK, s.Detector.Thresholds())
}

// -----------------------------------------------------------------------------

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}
