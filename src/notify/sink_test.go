package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"pipeline-monitor/src/models"
)

type fakeNotifier struct {
	delivered []models.MAlert
	err       error
}

func (f *fakeNotifier) Name() string { return "fake" }

func (f *fakeNotifier) Notify(_ context.Context, alert models.MAlert) error {
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, alert)
	return nil
}

// -----------------------------------------------------------------------------

func TestSinkDeliversAdmittedAnomaly(t *testing.T) {
	policy, _ := testPolicy(models.SeverityLow, 0, false)
	notifier := &fakeNotifier{}
	sink := NewAlertSink(policy, notifier, "error")

	a := anomaly(models.DomainPayments, models.KindTransactionFailures, models.SeverityCritical)
	alert := sink.Process(context.Background(), a)

	if alert == nil {
		t.Fatal("admitted anomaly produced no alert")
	}
	if !alert.Delivered || alert.DeliveryError != "" {
		t.Errorf("delivered/err = %v/%q", alert.Delivered, alert.DeliveryError)
	}
	if alert.ID == "" {
		t.Error("alert has no ID")
	}
	if alert.Fingerprint != Fingerprint(a) {
		t.Error("alert fingerprint mismatch")
	}
	if alert.Anomaly.Kind != a.Kind {
		t.Errorf("alert anomaly kind = %s", alert.Anomaly.Kind)
	}
	if len(notifier.delivered) != 1 {
		t.Errorf("notifier received %d alerts", len(notifier.delivered))
	}

	sent, failed, suppressed := sink.Counters()
	if sent != 1 || failed != 0 || suppressed != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/0/0", sent, failed, suppressed)
	}
}

func TestSinkSuppressedAnomalyReturnsNil(t *testing.T) {
	policy, _ := testPolicy(models.SeverityCritical, 0, false)
	notifier := &fakeNotifier{}
	sink := NewAlertSink(policy, notifier, "error")

	a := anomaly(models.DomainOrders, models.KindOrderVolume, models.SeverityLow)
	if alert := sink.Process(context.Background(), a); alert != nil {
		t.Fatal("suppressed anomaly still produced an alert")
	}
	if len(notifier.delivered) != 0 {
		t.Error("notifier was called for a suppressed anomaly")
	}

	sent, failed, suppressed := sink.Counters()
	if sent != 0 || failed != 0 || suppressed != 1 {
		t.Errorf("counters = %d/%d/%d, want 0/0/1", sent, failed, suppressed)
	}
}

func TestSinkFailedDeliveryKeepsAlert(t *testing.T) {
	policy, _ := testPolicy(models.SeverityLow, 30*time.Minute, false)
	notifier := &fakeNotifier{err: errors.New("gateway down")}
	sink := NewAlertSink(policy, notifier, "error")

	a := anomaly(models.DomainInventory, models.KindSyncDelay, models.SeverityHigh)
	alert := sink.Process(context.Background(), a)

	// The alert survives for archiving, flagged with its delivery error
	if alert == nil {
		t.Fatal("failed delivery dropped the alert")
	}
	if alert.Delivered {
		t.Error("failed delivery marked as delivered")
	}
	if alert.DeliveryError != "gateway down" {
		t.Errorf("delivery error = %q", alert.DeliveryError)
	}

	_, failed, _ := sink.Counters()
	if failed != 1 {
		t.Errorf("failed counter = %d, want 1", failed)
	}

	// A failed send must not arm the cooldown; the next anomaly retries
	notifier.err = nil
	alert = sink.Process(context.Background(), a)
	if alert == nil || !alert.Delivered {
		t.Fatal("retry after failed delivery was suppressed")
	}
}
