package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

func testArchive(t *testing.T) *SQLiteArchive {
	t.Helper()

	cfg := &models.MConfig{}
	cfg.Archive.DBType = "sqlite"
	cfg.Archive.DBPath = filepath.Join(t.TempDir(), "archive.db")
	cfg.Archive.RetentionDays = 30

	archive, err := NewSQLiteArchive(cfg, logger.NewLogger("error", "archive"))
	require.NoError(t, err)
	require.NoError(t, archive.Initialize())
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func orderSample(at time.Time, count int) models.MOrderMetrics {
	return models.MOrderMetrics{
		OrderCount:      count,
		AvgOrderValue:   float64(count) * 2,
		UniqueCustomers: count / 2,
		ObservedAt:      at,
	}
}

// -----------------------------------------------------------------------------

func TestInitializeIsIdempotent(t *testing.T) {
	archive := testArchive(t)

	// A restart finds the tables already there
	require.NoError(t, archive.createTables())
}

func TestSamplesRoundTrip(t *testing.T) {
	archive := testArchive(t)
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	samples := []models.MetricSample{
		orderSample(base, 10),
		orderSample(base.Add(time.Minute), 20),
		orderSample(base.Add(2*time.Minute), 30),
		models.MPaymentMetrics{AvgProcessingSeconds: 1.5, FailedCount: 1, SucceededCount: 9, ObservedAt: base},
	}
	require.NoError(t, archive.SaveSamples(samples))

	t.Run("warm start reads oldest first", func(t *testing.T) {
		rows, err := archive.RecentRows(models.DomainOrders, base.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for i, wantCount := range []float64{10, 20, 30} {
			require.Equal(t, wantCount, rows[i][models.RB_IDX_ORDER_COUNT], "row %d", i)
		}
		require.Equal(t, float64(base.Unix()), rows[0][models.RB_IDX_TIMESTAMP])
		require.Equal(t, 20.0, rows[0][models.RB_IDX_ORDER_VALUE])
		require.Equal(t, 5.0, rows[0][models.RB_IDX_CUSTOMERS])
	})

	t.Run("since cutoff is inclusive", func(t *testing.T) {
		rows, err := archive.RecentRows(models.DomainOrders, base.Add(time.Minute))
		require.NoError(t, err)
		require.Len(t, rows, 2)
	})

	t.Run("families do not leak into each other", func(t *testing.T) {
		rows, err := archive.RecentRows(models.DomainPayments, base.Add(-time.Hour))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, 1.5, rows[0][models.RB_IDX_PROC_SECONDS])
	})

	t.Run("unknown domain is rejected", func(t *testing.T) {
		_, err := archive.RecentRows("nonsense", base)
		require.Error(t, err)
	})
}

func TestSaveSamplesDuplicateTimestamp(t *testing.T) {
	archive := testArchive(t)
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, archive.SaveSamples([]models.MetricSample{orderSample(at, 10)}))
	// Replays of the same tick are ignored, not errors
	require.NoError(t, archive.SaveSamples([]models.MetricSample{orderSample(at, 99)}))

	rows, err := archive.RecentRows(models.DomainOrders, at.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 10.0, rows[0][models.RB_IDX_ORDER_COUNT], "first write must win")
}

func TestSaveSamplesEmptyBatch(t *testing.T) {
	archive := testArchive(t)
	require.NoError(t, archive.SaveSamples(nil))
}

// -----------------------------------------------------------------------------

func TestBaselinesUpsert(t *testing.T) {
	archive := testArchive(t)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	first := models.MBaselineStats{
		Domain: models.DomainOrders, Feature: "order_count",
		Mean: 100, Std: 5, Count: 10, WindowHours: 24, ComputedAt: now,
	}
	require.NoError(t, archive.SaveBaselines([]models.MBaselineStats{first}))

	updated := first
	updated.Mean = 120
	updated.Count = 20
	require.NoError(t, archive.SaveBaselines([]models.MBaselineStats{updated}))

	var n int
	require.NoError(t, archive.DB.QueryRow(`SELECT COUNT(*) FROM baseline_stats`).Scan(&n))
	require.Equal(t, 1, n, "upsert must not append")

	var mean float64
	var count int
	err := archive.DB.QueryRow(`
		SELECT mean, data_points FROM baseline_stats WHERE domain = ? AND feature = ?
	`, models.DomainOrders, "order_count").Scan(&mean, &count)
	require.NoError(t, err)
	require.Equal(t, 120.0, mean)
	require.Equal(t, 20, count)
}

// -----------------------------------------------------------------------------

func TestAlertsNewestFirst(t *testing.T) {
	archive := testArchive(t)
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		alert := models.MAlert{
			ID: string(rune('a' + i)),
			Anomaly: models.MAnomaly{
				Domain:     models.DomainPayments,
				Kind:       models.KindTransactionFailures,
				Severity:   models.SeverityCritical,
				Message:    "High transaction failure rate: 10.0%",
				Value:      0.1,
				Threshold:  0.05,
				ObservedAt: base.Add(time.Duration(i) * time.Minute),
			},
			Fingerprint: 42,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
			Delivered:   i%2 == 0,
		}
		if i == 1 {
			alert.DeliveryError = "gateway down"
		}
		require.NoError(t, archive.SaveAlert(alert))
	}

	alerts, err := archive.RecentAlerts(2)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	require.Equal(t, "c", alerts[0].ID)
	require.Equal(t, "b", alerts[1].ID)
	require.Equal(t, "gateway down", alerts[1].DeliveryError)
	require.Equal(t, uint64(42), alerts[0].Fingerprint)
	require.Equal(t, models.KindTransactionFailures, alerts[0].Anomaly.Kind)
	require.True(t, alerts[0].CreatedAt.Equal(base.Add(2*time.Minute)))

	// A non-positive limit falls back to the default instead of erroring
	alerts, err = archive.RecentAlerts(0)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
}

// -----------------------------------------------------------------------------

func TestCleanupOldData(t *testing.T) {
	archive := testArchive(t)
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)

	samples := []models.MetricSample{
		orderSample(old, 10),
		orderSample(now, 20),
	}
	require.NoError(t, archive.SaveSamples(samples))

	alerts := []models.MAlert{
		{ID: "old", Anomaly: models.MAnomaly{Domain: models.DomainOrders, ObservedAt: old}, CreatedAt: old},
		{ID: "new", Anomaly: models.MAnomaly{Domain: models.DomainOrders, ObservedAt: now}, CreatedAt: now},
	}
	for _, a := range alerts {
		require.NoError(t, archive.SaveAlert(a))
	}

	require.NoError(t, archive.CleanupOldData())

	rows, err := archive.RecentRows(models.DomainOrders, old.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, 20.0, rows[0][models.RB_IDX_ORDER_COUNT], "cleanup must keep the fresh row")

	kept, err := archive.RecentAlerts(10)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	require.Equal(t, "new", kept[0].ID)
}
