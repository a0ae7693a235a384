package notify

import (
	"context"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// LogNotifier is the fallback sink when no Slack token is configured.
// Alerts land in the process log at a level matching their severity, so the
// pipeline never silently drops them.
type LogNotifier struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewLogNotifier(logLevel string) *LogNotifier {
	return &LogNotifier{
		Logger: logger.NewLogger(logLevel, "log-notifier"),
	}
}

// -----------------------------------------------------------------------------

func (l *LogNotifier) Name() string {
	return "log"
}

// -----------------------------------------------------------------------------

func (l *LogNotifier) Notify(_ context.Context, alert models.MAlert) error {
	a := alert.Anomaly

	switch a.Severity {
	case models.SeverityCritical, models.SeverityHigh:
		l.Logger.Error("ALERT [%s/%s] %s (value %.4g, threshold %.4g)",
			a.Domain, a.Kind, a.Message, a.Value, a.Threshold)
	case models.SeverityMedium:
		l.Logger.Warning("ALERT [%s/%s] %s (value %.4g, threshold %.4g)",
			a.Domain, a.Kind, a.Message, a.Value, a.Threshold)
	default:
		l.Logger.Info("ALERT [%s/%s] %s (value %.4g, threshold %.4g)",
			a.Domain, a.Kind, a.Message, a.Value, a.Threshold)
	}
	return nil
}
