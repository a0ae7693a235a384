package interfaces

import (
	"time"

	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// IArchive defines the contract for the monitor's own storage.
// -----------------------------------------------------------------------------

type IArchive interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSamples inserts a batch of collected metric samples.
	SaveSamples(samples []models.MetricSample) error

	// -----------------------------------------------------------------------------

	// SaveBaselines upserts rolling baseline statistics.
	SaveBaselines(stats []models.MBaselineStats) error

	// -----------------------------------------------------------------------------

	// SaveAlert records an alert and its delivery outcome.
	SaveAlert(alert models.MAlert) error

	// -----------------------------------------------------------------------------

	// RecentRows returns stored feature rows for a family since the given
	// time, oldest first. Used to warm-start the history buffers.
	RecentRows(domain string, since time.Time) ([][models.RB_NUM_FEATURES]float64, error)

	// -----------------------------------------------------------------------------

	// RecentAlerts returns the newest alerts, newest first.
	RecentAlerts(limit int) ([]models.MAlert, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
