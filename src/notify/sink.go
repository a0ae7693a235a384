package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// AlertSink runs anomalies through the policy and hands admitted ones to the
// notifier. It owns the delivery counters served on /api/metrics.
type AlertSink struct {
	Policy   *Policy
	Notifier interfaces.INotifier
	Logger   *logger.Logger

	sent       atomic.Int64
	failed     atomic.Int64
	suppressed atomic.Int64
}

// -----------------------------------------------------------------------------

func NewAlertSink(policy *Policy, notifier interfaces.INotifier, logLevel string) *AlertSink {
	return &AlertSink{
		Policy:   policy,
		Notifier: notifier,
		Logger:   logger.NewLogger(logLevel, "alert-sink"),
	}
}

// -----------------------------------------------------------------------------

// Process turns one anomaly into at most one alert. Suppressed anomalies
// return nil; failed deliveries still return the alert so it can be archived
// with its error.
func (s *AlertSink) Process(ctx context.Context, anomaly models.MAnomaly) *models.MAlert {
	admit, reason := s.Policy.Admit(anomaly)
	if !admit {
		s.suppressed.Add(1)
		s.Logger.Debug("Suppressed %s/%s alert: %s", anomaly.Domain, anomaly.Kind, reason)
		return nil
	}

	alert := models.MAlert{
		ID:          uuid.NewString(),
		Anomaly:     anomaly,
		Fingerprint: Fingerprint(anomaly),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.Notifier.Notify(ctx, alert); err != nil {
		s.failed.Add(1)
		alert.DeliveryError = err.Error()
		s.Logger.Error("Alert delivery via %s failed: %v", s.Notifier.Name(), err)
		return &alert
	}

	alert.Delivered = true
	s.sent.Add(1)
	s.Policy.MarkDelivered(alert.Fingerprint)
	return &alert
}

// -----------------------------------------------------------------------------

// Counters reports how many alerts were sent, failed and suppressed since
// boot.
func (s *AlertSink) Counters() (sent, failed, suppressed int64) {
	return s.sent.Load(), s.failed.Load(), s.suppressed.Load()
}
