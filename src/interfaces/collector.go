package interfaces

import (
	"context"
	"sync"

	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// ICollector interface for gathering metrics from the shop database.
// -----------------------------------------------------------------------------

type ICollector interface {

	// Name returns the unique identifier of the collector
	Name() string

	// -----------------------------------------------------------------------------

	// Domain returns the metric family this collector feeds
	Domain() string

	// -----------------------------------------------------------------------------

	// CollectOnce runs a single query pass and returns the fresh sample.
	CollectOnce(ctx context.Context) (models.MetricSample, error)

	// -----------------------------------------------------------------------------

	// Start begins the periodic collection loop
	// ctx: controls the lifecycle (cancellation stops the collector)
	// outputChan: channel to push samples to
	// wg: WaitGroup to signal when the collector has fully stopped
	Start(ctx context.Context, outputChan chan<- models.MetricSample, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the collection loop (manual stop)
	// Cancelling the context passed to Start also stops it.
	Stop() error

	// -----------------------------------------------------------------------------

	// IsRunning reports whether the collection loop is active.
	IsRunning() bool
}
