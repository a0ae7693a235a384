package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Collector control endpoints. Responses carry success/message/current_state
// so callers can script against them.

const triggerTimeout = 30 * time.Second

// -----------------------------------------------------------------------------

type collectorStatus struct {
	Name    string `json:"name"`
	Domain  string `json:"domain"`
	Running bool   `json:"running"`
}

// -----------------------------------------------------------------------------

func (s *Server) listCollectors(c *gin.Context) {
	names := s.Collectors.Names()
	statuses := make([]collectorStatus, 0, len(names))

	for _, name := range names {
		col, ok := s.Collectors.GetCollector(name)
		if !ok {
			continue
		}
		statuses = append(statuses, collectorStatus{
			Name:    col.Name(),
			Domain:  col.Domain(),
			Running: col.IsRunning(),
		})
	}

	c.JSON(http.StatusOK, gin.H{"collectors": statuses})
}

// -----------------------------------------------------------------------------

func (s *Server) startCollector(c *gin.Context) {
	name := c.Param("name")

	if err := s.Collectors.StartCollector(name); err != nil {
		c.JSON(controlErrorStatus(err), gin.H{
			"success":       false,
			"message":       err.Error(),
			"current_state": "stopped",
		})
		return
	}

	s.Logger.Info("Collector %s started via API", name)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("collector %s started", name),
		"current_state": "running",
	})
}

// -----------------------------------------------------------------------------

func (s *Server) stopCollector(c *gin.Context) {
	name := c.Param("name")

	if err := s.Collectors.StopCollector(name); err != nil {
		c.JSON(controlErrorStatus(err), gin.H{
			"success":       false,
			"message":       err.Error(),
			"current_state": "unknown",
		})
		return
	}

	s.Logger.Info("Collector %s stopped via API", name)
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("collector %s stopped", name),
		"current_state": "stopped",
	})
}

// -----------------------------------------------------------------------------

// triggerCollect forces one collection round on every collector. Samples go
// through the regular pipeline, so the response only confirms the trigger.
func (s *Server) triggerCollect(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), triggerTimeout)
	defer cancel()

	if err := s.Collectors.TriggerAll(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "collection triggered",
	})
}

// -----------------------------------------------------------------------------

// controlErrorStatus maps manager errors onto HTTP: unknown names are 404,
// wrong-state transitions are 409.
func controlErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "already running"), strings.Contains(msg, "not running"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
