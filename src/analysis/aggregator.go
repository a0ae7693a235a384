package analysis

import (
	"pipeline-monitor/src/analysis/core"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
	"pipeline-monitor/src/utils"
)

// HistoryAggregator downsamples the raw history buffers into chart-ready
// buckets. The raw ring holds one row per collection tick; dashboards asking
// for hours of history want a handful of aggregated points instead.
type HistoryAggregator struct {
	History   *utils.HistoryManager
	Logger    *logger.Logger
	resampler TimeSeriesResampler
}

// -----------------------------------------------------------------------------

func NewHistoryAggregator(logLevel string, history *utils.HistoryManager) *HistoryAggregator {
	return &HistoryAggregator{
		History: history,
		Logger:  logger.NewLogger(logLevel, "aggregator"),
	}
}

// -----------------------------------------------------------------------------

// Aggregate buckets one family's stored history into aligned windows and
// summarizes every feature per bucket. Returns buckets oldest first, nil
// when the family has no history yet.
func (a *HistoryAggregator) Aggregate(domain string, windowSeconds int64) []models.MHistoryBucket {
	rows := a.History.SnapshotRows(domain)
	if len(rows) == 0 {
		return nil
	}

	timestamps := make([]int64, len(rows))
	for i, row := range rows {
		timestamps[i] = int64(row[models.RB_IDX_TIMESTAMP])
	}

	windows := a.resampler.ResampleIndices(timestamps, windowSeconds)
	names := models.FeatureNames(domain)

	buckets := make([]models.MHistoryBucket, 0, len(windows))
	for _, w := range windows {
		bucket := models.MHistoryBucket{
			StartTime:  w.StartTime,
			EndTime:    w.EndTime,
			DataPoints: len(w.Indices),
			Features:   make(map[string]models.MFeatureSummary, len(names)),
		}

		for f, name := range names {
			values := make([]float64, len(w.Indices))
			for i, idx := range w.Indices {
				values[i] = rows[idx][f+1]
			}
			bucket.Features[name] = summarize(values)
		}
		buckets = append(buckets, bucket)
	}

	a.Logger.Debug("Aggregated %d rows of %s into %d buckets", len(rows), domain, len(buckets))
	return buckets
}

// -----------------------------------------------------------------------------

func summarize(values []float64) models.MFeatureSummary {
	mean, _ := core.CalculateMeanStd(values)
	summary := models.MFeatureSummary{Mean: mean, Min: values[0], Max: values[0]}
	for _, v := range values[1:] {
		if v < summary.Min {
			summary.Min = v
		}
		if v > summary.Max {
			summary.Max = v
		}
	}
	return summary
}
