package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// CollectorManager keeps the registry of collectors and drives their
// shared lifecycle. All collectors feed the one output channel.
type CollectorManager struct {
	Collectors map[string]interfaces.ICollector
	Logger     *logger.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	outputChan chan<- models.MetricSample
	wg         *sync.WaitGroup
	mu         sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewCollectorManager(logLevel string) *CollectorManager {
	return &CollectorManager{
		Collectors: make(map[string]interfaces.ICollector),
		Logger:     logger.NewLogger(logLevel, "collector-manager"),
	}
}

// -----------------------------------------------------------------------------

// AddCollector registers a collector. When the manager is already
// running the collector is started immediately.
func (m *CollectorManager) AddCollector(c interfaces.ICollector) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := c.Name()
	if _, exists := m.Collectors[name]; exists {
		return fmt.Errorf("collector %s already registered", name)
	}
	m.Collectors[name] = c

	if m.ctx != nil {
		if err := c.Start(m.ctx, m.outputChan, m.wg); err != nil {
			delete(m.Collectors, name)
			return fmt.Errorf("failed to start collector %s: %w", name, err)
		}
	}

	m.Logger.Info("Registered collector: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *CollectorManager) RemoveCollector(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, exists := m.Collectors[name]
	if !exists {
		return fmt.Errorf("collector %s not found", name)
	}

	if c.IsRunning() {
		if err := c.Stop(); err != nil {
			m.Logger.Warning("Error stopping collector %s: %v", name, err)
		}
	}
	delete(m.Collectors, name)

	m.Logger.Info("Removed collector: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

func (m *CollectorManager) GetCollector(name string) (interfaces.ICollector, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.Collectors[name]
	return c, exists
}

// -----------------------------------------------------------------------------

// Names returns the registered collector names in stable order.
func (m *CollectorManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.Collectors))
	for name := range m.Collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// -----------------------------------------------------------------------------

// States reports each collector's running flag, keyed by name.
func (m *CollectorManager) States() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make(map[string]bool, len(m.Collectors))
	for name, c := range m.Collectors {
		states[name] = c.IsRunning()
	}
	return states
}

// -----------------------------------------------------------------------------

// Start launches every registered collector onto outputChan. Each
// collector does its own wg.Add; the manager only passes the group
// through.
func (m *CollectorManager) Start(ctx context.Context, outputChan chan<- models.MetricSample, wg *sync.WaitGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx != nil {
		return fmt.Errorf("collector manager is already running")
	}

	m.ctx, m.cancelFunc = context.WithCancel(ctx)
	m.outputChan = outputChan
	m.wg = wg

	for name, c := range m.Collectors {
		if err := c.Start(m.ctx, m.outputChan, m.wg); err != nil {
			m.Logger.Error("Failed to start collector %s: %v", name, err)
		}
	}

	m.Logger.Info("Collector manager started with %d collectors", len(m.Collectors))
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels every collector loop.
func (m *CollectorManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx == nil {
		return fmt.Errorf("collector manager is not running")
	}

	for name, c := range m.Collectors {
		if !c.IsRunning() {
			continue
		}
		if err := c.Stop(); err != nil {
			m.Logger.Warning("Error stopping collector %s: %v", name, err)
		}
	}

	m.cancelFunc()
	m.ctx = nil
	m.cancelFunc = nil

	m.Logger.Info("Collector manager stopped")
	return nil
}

// -----------------------------------------------------------------------------

// StartCollector resumes a single collector by name.
func (m *CollectorManager) StartCollector(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.Collectors[name]
	if !exists {
		return fmt.Errorf("collector %s not found", name)
	}
	if m.ctx == nil {
		return fmt.Errorf("collector manager is not running")
	}
	return c.Start(m.ctx, m.outputChan, m.wg)
}

// -----------------------------------------------------------------------------

// StopCollector pauses a single collector by name.
func (m *CollectorManager) StopCollector(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.Collectors[name]
	if !exists {
		return fmt.Errorf("collector %s not found", name)
	}
	return c.Stop()
}

// -----------------------------------------------------------------------------

// TriggerAll runs one immediate collection on every collector and
// feeds the samples through the regular pipeline channel. Used for
// the first fill on boot and for forced collection from the admin
// API.
func (m *CollectorManager) TriggerAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ctx == nil {
		return fmt.Errorf("collector manager is not running")
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, c := range m.Collectors {
		group.Go(func() error {
			sample, err := c.CollectOnce(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			select {
			case m.outputChan <- sample:
			case <-gctx.Done():
				return gctx.Err()
			}
			return nil
		})
	}
	return group.Wait()
}
