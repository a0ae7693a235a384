package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pipeline-monitor/src/interfaces"
	"pipeline-monitor/src/models"
)

type fakeCollector struct {
	name       string
	failStart  bool
	collectErr error

	running  atomic.Bool
	collects atomic.Int64
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Domain() string { return models.DomainOrders }

func (f *fakeCollector) CollectOnce(context.Context) (models.MetricSample, error) {
	f.collects.Add(1)
	if f.collectErr != nil {
		return nil, f.collectErr
	}
	return models.MOrderMetrics{OrderCount: 1, ObservedAt: time.Now()}, nil
}

func (f *fakeCollector) Start(context.Context, chan<- models.MetricSample, *sync.WaitGroup) error {
	if f.failStart {
		return errors.New("no database")
	}
	if !f.running.CompareAndSwap(false, true) {
		return errors.New("already running")
	}
	return nil
}

func (f *fakeCollector) Stop() error {
	if !f.running.CompareAndSwap(true, false) {
		return errors.New("not running")
	}
	return nil
}

func (f *fakeCollector) IsRunning() bool { return f.running.Load() }

var _ interfaces.ICollector = (*fakeCollector)(nil)

// -----------------------------------------------------------------------------

func startedManager(t *testing.T, collectors ...*fakeCollector) (*CollectorManager, chan models.MetricSample) {
	t.Helper()

	m := NewCollectorManager("error")
	for _, c := range collectors {
		if err := m.AddCollector(c); err != nil {
			t.Fatalf("AddCollector(%s): %v", c.name, err)
		}
	}

	samples := make(chan models.MetricSample, 16)
	wg := &sync.WaitGroup{}
	if err := m.Start(context.Background(), samples, wg); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = m.Stop() })
	return m, samples
}

// -----------------------------------------------------------------------------

func TestManagerRegistry(t *testing.T) {
	m := NewCollectorManager("error")

	if err := m.AddCollector(&fakeCollector{name: "orders"}); err != nil {
		t.Fatalf("AddCollector: %v", err)
	}
	if err := m.AddCollector(&fakeCollector{name: "payments"}); err != nil {
		t.Fatalf("AddCollector: %v", err)
	}

	// Duplicate names are rejected
	if err := m.AddCollector(&fakeCollector{name: "orders"}); err == nil {
		t.Error("duplicate collector accepted")
	}

	names := m.Names()
	if len(names) != 2 || names[0] != "orders" || names[1] != "payments" {
		t.Errorf("names = %v", names)
	}

	if _, ok := m.GetCollector("orders"); !ok {
		t.Error("registered collector not found")
	}
	if _, ok := m.GetCollector("inventory"); ok {
		t.Error("unknown collector found")
	}

	// Registration alone does not start anything
	for name, running := range m.States() {
		if running {
			t.Errorf("collector %s running before manager start", name)
		}
	}
}

func TestManagerStartStop(t *testing.T) {
	orders := &fakeCollector{name: "orders"}
	payments := &fakeCollector{name: "payments"}
	m, _ := startedManager(t, orders, payments)

	for name, running := range m.States() {
		if !running {
			t.Errorf("collector %s not running after start", name)
		}
	}

	// A second Start without a Stop is a caller bug
	if err := m.Start(context.Background(), make(chan models.MetricSample), &sync.WaitGroup{}); err == nil {
		t.Error("double manager start accepted")
	}

	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if orders.IsRunning() || payments.IsRunning() {
		t.Error("collectors still running after manager stop")
	}
	if err := m.Stop(); err == nil {
		t.Error("double manager stop accepted")
	}
}

func TestManagerAddWhileRunning(t *testing.T) {
	m, _ := startedManager(t, &fakeCollector{name: "orders"})

	// Late registrations start immediately
	late := &fakeCollector{name: "payments"}
	if err := m.AddCollector(late); err != nil {
		t.Fatalf("AddCollector: %v", err)
	}
	if !late.IsRunning() {
		t.Error("late collector not started")
	}

	// A collector that cannot start is not left in the registry
	broken := &fakeCollector{name: "inventory", failStart: true}
	if err := m.AddCollector(broken); err == nil {
		t.Fatal("failing collector registered without error")
	}
	if _, ok := m.GetCollector("inventory"); ok {
		t.Error("failing collector left in registry")
	}
}

func TestManagerPerCollectorControl(t *testing.T) {
	orders := &fakeCollector{name: "orders"}
	m, _ := startedManager(t, orders)

	if err := m.StopCollector("orders"); err != nil {
		t.Fatalf("StopCollector: %v", err)
	}
	if orders.IsRunning() {
		t.Error("collector still running after StopCollector")
	}
	if err := m.StopCollector("orders"); err == nil {
		t.Error("stopping a stopped collector accepted")
	}

	if err := m.StartCollector("orders"); err != nil {
		t.Fatalf("StartCollector: %v", err)
	}
	if !orders.IsRunning() {
		t.Error("collector not running after StartCollector")
	}
	if err := m.StartCollector("orders"); err == nil {
		t.Error("starting a running collector accepted")
	}

	if err := m.StartCollector("nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown name error = %v", err)
	}
	if err := m.StopCollector("nope"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("unknown name error = %v", err)
	}
}

func TestManagerRemoveCollector(t *testing.T) {
	orders := &fakeCollector{name: "orders"}
	m, _ := startedManager(t, orders)

	if err := m.RemoveCollector("orders"); err != nil {
		t.Fatalf("RemoveCollector: %v", err)
	}
	if orders.IsRunning() {
		t.Error("removed collector still running")
	}
	if err := m.RemoveCollector("orders"); err == nil {
		t.Error("removing a missing collector accepted")
	}
}

// -----------------------------------------------------------------------------

func TestTriggerAll(t *testing.T) {
	orders := &fakeCollector{name: "orders"}
	payments := &fakeCollector{name: "payments"}
	m, samples := startedManager(t, orders, payments)

	if err := m.TriggerAll(context.Background()); err != nil {
		t.Fatalf("TriggerAll: %v", err)
	}

	if orders.collects.Load() != 1 || payments.collects.Load() != 1 {
		t.Errorf("collect counts = %d/%d, want 1/1",
			orders.collects.Load(), payments.collects.Load())
	}

	// Both samples went through the regular pipeline channel
	for i := 0; i < 2; i++ {
		select {
		case <-samples:
		case <-time.After(time.Second):
			t.Fatalf("sample %d never arrived", i)
		}
	}
}

func TestTriggerAllReportsFailures(t *testing.T) {
	broken := &fakeCollector{name: "orders", collectErr: errors.New("connection refused")}
	m, _ := startedManager(t, broken)

	err := m.TriggerAll(context.Background())
	if err == nil {
		t.Fatal("failing collection reported no error")
	}
	if !strings.Contains(err.Error(), "orders") {
		t.Errorf("error does not name the collector: %v", err)
	}
}

func TestTriggerAllRequiresRunningManager(t *testing.T) {
	m := NewCollectorManager("error")
	if err := m.AddCollector(&fakeCollector{name: "orders"}); err != nil {
		t.Fatalf("AddCollector: %v", err)
	}

	if err := m.TriggerAll(context.Background()); err == nil {
		t.Error("TriggerAll on a stopped manager accepted")
	}
}
