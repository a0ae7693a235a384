package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pipeline-monitor/src/logger"
	"pipeline-monitor/src/models"
)

// Upper bound for a single shop query. The loop is serial, so a slow
// query delays the next tick instead of stacking queries.
const collectTimeout = 30 * time.Second

// baseCollector carries the lifecycle shared by every collector: the
// ticker loop, the output channel and the running flag. Concrete
// collectors set collect to their own CollectOnce.
type baseCollector struct {
	name     string
	domain   string
	interval time.Duration
	collect  func(ctx context.Context) (models.MetricSample, error)

	Logger     *logger.Logger
	cancelFunc context.CancelFunc
	ctx        context.Context
	outputChan chan<- models.MetricSample
	isRunning  atomic.Bool
	mu         sync.Mutex
}

// -----------------------------------------------------------------------------

// initBase wires the shared fields in place. Collectors embed the base by
// value, so it is never copied once the locks are in use.
func (b *baseCollector) initBase(name, domain string, interval time.Duration, logLevel string) {
	b.name = name
	b.domain = domain
	b.interval = interval
	b.Logger = logger.NewLogger(logLevel, name+"-collector")
}

// -----------------------------------------------------------------------------

func (b *baseCollector) Name() string {
	return b.name
}

// -----------------------------------------------------------------------------

func (b *baseCollector) Domain() string {
	return b.domain
}

// -----------------------------------------------------------------------------

func (b *baseCollector) IsRunning() bool {
	return b.isRunning.Load()
}

// -----------------------------------------------------------------------------

// Start launches the collection loop. The loop owns exactly one
// wg.Add; Stop or parent context cancellation releases it.
func (b *baseCollector) Start(ctx context.Context, outputChan chan<- models.MetricSample, wg *sync.WaitGroup) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isRunning.Load() {
		return fmt.Errorf("collector %s is already running", b.name)
	}

	b.ctx, b.cancelFunc = context.WithCancel(ctx)
	b.outputChan = outputChan
	b.isRunning.Store(true)

	wg.Add(1)
	go b.runLoop(wg)

	b.Logger.Info("Started %s collector (interval %s)", b.name, b.interval)
	return nil
}

// -----------------------------------------------------------------------------

func (b *baseCollector) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.isRunning.Load() {
		return fmt.Errorf("collector %s is not running", b.name)
	}

	b.cancelFunc()
	b.isRunning.Store(false)
	b.Logger.Info("Stopped %s collector", b.name)
	return nil
}

// -----------------------------------------------------------------------------

func (b *baseCollector) runLoop(wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.isRunning.Store(false)
			b.Logger.Debug("%s collector loop exiting", b.name)
			return
		case <-ticker.C:
			qctx, cancel := context.WithTimeout(b.ctx, collectTimeout)
			sample, err := b.collect(qctx)
			cancel()
			if err != nil {
				b.Logger.Error("%s collection failed: %v", b.name, err)
				continue
			}
			b.push(sample)
		}
	}
}

// -----------------------------------------------------------------------------

// push hands the sample to the pipeline. The consumer is a single
// loop; when it falls behind the tick is dropped rather than blocking
// the collector.
func (b *baseCollector) push(sample models.MetricSample) {
	select {
	case b.outputChan <- sample:
	case <-b.ctx.Done():
	default:
		b.Logger.Warning("%s: samples channel full, dropping tick", b.name)
	}
}
