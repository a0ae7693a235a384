package collector

import (
	"context"
	"testing"
	"time"

	"pipeline-monitor/src/models"
)

func syntheticConfig() *models.MConfig {
	cfg := &models.MConfig{LogLevel: "error"}
	cfg.Collect.IntervalSeconds = 60
	return cfg
}

func TestSyntheticCollectorDomains(t *testing.T) {
	cfg := syntheticConfig()

	tests := []struct {
		domain string
		name   string
	}{
		{models.DomainOrders, "synthetic-order_volume"},
		{models.DomainPayments, "synthetic-payment_processing"},
		{models.DomainInventory, "synthetic-inventory_updates"},
	}

	for _, tt := range tests {
		c := NewSyntheticCollector(cfg, tt.domain, 1)
		if c.Name() != tt.name {
			t.Errorf("name = %s, want %s", c.Name(), tt.name)
		}

		sample, err := c.CollectOnce(context.Background())
		if err != nil {
			t.Fatalf("collect %s: %v", tt.domain, err)
		}
		if sample.Domain() != tt.domain {
			t.Errorf("sample domain = %s, want %s", sample.Domain(), tt.domain)
		}
	}
}

func TestSyntheticSpikeCadence(t *testing.T) {
	cfg := syntheticConfig()
	c := NewSyntheticCollector(cfg, models.DomainOrders, 42)

	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= spikeEvery*2; i++ {
		m, ok := c.Sample(at).(models.MOrderMetrics)
		if !ok {
			t.Fatal("orders generator returned wrong type")
		}

		spiked := m.OrderCount == 3 && m.UniqueCustomers == 2
		if i%spikeEvery == 0 && !spiked {
			t.Errorf("sample %d should spike, got count %d", i, m.OrderCount)
		}
		if i%spikeEvery != 0 && spiked {
			t.Errorf("sample %d spiked early", i)
		}
		if !m.ObservedAt.Equal(at) {
			t.Errorf("sample %d timestamp = %v", i, m.ObservedAt)
		}
	}
}

func TestSyntheticPaymentSpikeBreachesDefaults(t *testing.T) {
	cfg := syntheticConfig()
	c := NewSyntheticCollector(cfg, models.DomainPayments, 7)

	at := time.Now().UTC()
	for i := 1; i < spikeEvery; i++ {
		m := c.Sample(at).(models.MPaymentMetrics)
		if m.AvgProcessingSeconds > 30 || m.FailureRate() > 0.05 {
			t.Fatalf("sample %d breaches thresholds without a spike: %+v", i, m)
		}
	}

	m := c.Sample(at).(models.MPaymentMetrics)
	if m.AvgProcessingSeconds <= 30 {
		t.Errorf("spike processing time = %v", m.AvgProcessingSeconds)
	}
	if m.FailureRate() <= 0.05 {
		t.Errorf("spike failure rate = %v", m.FailureRate())
	}
}
