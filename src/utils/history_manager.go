package utils

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shirou/gopsutil/v3/process"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// -----------------------------------------------------------------------------
// HistoryManager owns the rolling history buffers, one per metric family.
// -----------------------------------------------------------------------------

type HistoryManager struct {
	Streams       map[string]*RingBuffer
	MaxMemoryMB   int
	MaxDataPoints int
	Logger        *logger.Logger
	proc          *process.Process
	mu            sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewHistoryManager(maxMemoryMB, maxDataPoints int, logLevel string) *HistoryManager {
	hm := &HistoryManager{
		Streams:       make(map[string]*RingBuffer),
		MaxMemoryMB:   maxMemoryMB,
		MaxDataPoints: maxDataPoints,
		Logger:        logger.NewLogger(logLevel, "HistoryManager"),
	}

	for _, domain := range models.Domains() {
		hm.Streams[domain] = NewRingBuffer(maxDataPoints)
	}

	// Process handle for RSS sampling. Left nil when the platform refuses.
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		hm.proc = proc
	}

	return hm
}

// -----------------------------------------------------------------------------

// Add appends a sample to its family buffer.
func (hm *HistoryManager) Add(sample models.MetricSample) {
	hm.mu.Lock()
	domain := sample.Domain()
	buffer, ok := hm.Streams[domain]
	if !ok {
		buffer = NewRingBuffer(hm.MaxDataPoints)
		hm.Streams[domain] = buffer
	}
	buffer.Append(sample)
	n := buffer.Size()
	hm.mu.Unlock()

	// Periodic memory check, outside the lock: the cleanup path locks again.
	if n%100 == 0 {
		hm.CheckMemoryLimits()
	}
}

// -----------------------------------------------------------------------------

// AddRow appends a pre-flattened feature row, used when warm-starting history
// from the archive.
func (hm *HistoryManager) AddRow(domain string, row [models.RB_NUM_FEATURES]float64) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	buffer, ok := hm.Streams[domain]
	if !ok {
		buffer = NewRingBuffer(hm.MaxDataPoints)
		hm.Streams[domain] = buffer
	}
	buffer.AppendRow(row)
}

// -----------------------------------------------------------------------------

// Column extracts one feature across a family's stored rows, oldest first.
func (hm *HistoryManager) Column(domain string, feature int) []float64 {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	buffer, ok := hm.Streams[domain]
	if !ok {
		return []float64{}
	}
	return buffer.Column(feature)
}

// -----------------------------------------------------------------------------

// SnapshotRows returns a family's rows in insertion order.
func (hm *HistoryManager) SnapshotRows(domain string) [][models.RB_NUM_FEATURES]float64 {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	buffer, ok := hm.Streams[domain]
	if !ok {
		return [][models.RB_NUM_FEATURES]float64{}
	}
	return buffer.GetSnapshot()
}

// -----------------------------------------------------------------------------

// Size returns the number of stored rows for a family.
func (hm *HistoryManager) Size(domain string) int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	buffer, ok := hm.Streams[domain]
	if !ok {
		return 0
	}
	return buffer.Size()
}

// -----------------------------------------------------------------------------

// Sizes reports fill levels for every family, for the metrics endpoint.
func (hm *HistoryManager) Sizes() map[string]int {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]int, len(hm.Streams))
	for domain, buffer := range hm.Streams {
		result[domain] = buffer.Size()
	}
	return result
}

// -----------------------------------------------------------------------------

// CheckMemoryLimits enforces the configured memory bound by halving buffer
// capacities, dropping oldest rows first.
func (hm *HistoryManager) CheckMemoryLimits() {
	currentMemory := hm.GetProcessMemoryMB()

	if currentMemory > float64(hm.MaxMemoryMB) {
		hm.Logger.Info("Memory usage %.1fMB exceeds limit %dMB. Cleaning up.",
			currentMemory, hm.MaxMemoryMB)

		// Reduce data retention by half to free memory
		hm.mu.Lock()
		for domain := range hm.Streams {
			buffer := hm.Streams[domain]
			if buffer.Capacity() > 100 {
				newCapacity := buffer.Capacity() / 2
				if newCapacity < 50 {
					newCapacity = 50
				}
				buffer.Resize(newCapacity)
			}
		}
		hm.mu.Unlock()

		// Force garbage collection
		runtime.GC()
		debug.FreeOSMemory()
	}
}

// -----------------------------------------------------------------------------

// GetProcessMemoryMB gets current process RSS in MB.
func (hm *HistoryManager) GetProcessMemoryMB() float64 {
	if hm.proc != nil {
		if mi, err := hm.proc.MemoryInfo(); err == nil && mi != nil {
			return float64(mi.RSS) / 1024 / 1024
		}
	}

	// Fallback: heap allocation is the closest stdlib stand-in for RSS
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// -----------------------------------------------------------------------------

// Cleanup drops all buffered history.
func (hm *HistoryManager) Cleanup() {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	hm.Streams = make(map[string]*RingBuffer)
	for _, domain := range models.Domains() {
		hm.Streams[domain] = NewRingBuffer(hm.MaxDataPoints)
	}
	runtime.GC()
	debug.FreeOSMemory()
}
