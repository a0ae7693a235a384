package interfaces

import (
	"context"

	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// INotifier defines the contract for delivering alerts to an external sink.
// -----------------------------------------------------------------------------

type INotifier interface {

	// Name identifies the sink in logs and the metrics endpoint.
	Name() string

	// -----------------------------------------------------------------------------

	// Notify delivers a single alert. Implementations handle their own
	// retries; an error means the alert was not delivered.
	Notify(ctx context.Context, alert models.MAlert) error
}
