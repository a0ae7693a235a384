package interfaces

import (
	"context"

	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// IDataExchanger is the surface the pipeline pushes state through. The HTTP
// and WebSocket server implements it.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// UpdateState merges a partial update into the served state without
	// notifying WebSocket clients.
	UpdateState(update *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Broadcast merges a partial update and fans it out to subscribed
	// WebSocket clients.
	Broadcast(update *models.MLatestData)

	// -----------------------------------------------------------------------------
	// Start serves HTTP and the hub loop. Blocks until shutdown.
	Start() error

	// -----------------------------------------------------------------------------
	// Stop drains in-flight requests until ctx expires.
	Stop(ctx context.Context) error
}
