package analysis

import "sort"

// ResampledWindow groups the row indices that fall into one aligned bucket.
type ResampledWindow struct {
	StartTime int64
	EndTime   int64
	Indices   []int
}

// TimeSeriesResampler buckets sample timestamps into fixed windows aligned
// to the epoch, so a 5m bucket always starts on a 5m boundary regardless of
// when collection began.
type TimeSeriesResampler struct{}

// -----------------------------------------------------------------------------

// ResampleIndices groups timestamps into aligned windows. Buckets come back
// oldest first; windows without samples are skipped rather than emitted
// empty. Timestamps may arrive in any order.
func (r *TimeSeriesResampler) ResampleIndices(timestamps []int64, windowSeconds int64) []ResampledWindow {
	if len(timestamps) == 0 || windowSeconds <= 0 {
		return nil
	}

	buckets := make(map[int64][]int)
	for i, ts := range timestamps {
		start, _ := CalculateWindowBoundaries(ts, windowSeconds)
		buckets[start] = append(buckets[start], i)
	}

	starts := make([]int64, 0, len(buckets))
	for start := range buckets {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	windows := make([]ResampledWindow, 0, len(starts))
	for _, start := range starts {
		windows = append(windows, ResampledWindow{
			StartTime: start,
			EndTime:   start + windowSeconds,
			Indices:   buckets[start],
		})
	}
	return windows
}

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries returns the aligned [start, end) window that
// contains the timestamp.
func CalculateWindowBoundaries(ts int64, windowSeconds int64) (int64, int64) {
	start := ts - (ts % windowSeconds)
	return start, start + windowSeconds
}
