package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"lintang/greenwave/pkg/concurrent"
	"lintang/greenwave/pkg/datastructure"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("notification queue full")
	ErrClosed    = errors.New("dispatcher closed")
)

type DispatcherConfig struct {
	Workers         int           `yaml:"workers"`
	QueueSize       int           `yaml:"queue_size"`
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
}

func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{Workers: 2, QueueSize: 64, DeliveryTimeout: 5 * time.Second}
}

/*
Dispatcher. implementasi Emitter untuk proximity tracker: Emit cuma enqueue lalu langsung return,
delivery dikerjakan worker pool di background (fire and forget).
queue penuh -> event di-drop dan Emit mengembalikan ErrQueueFull.
*/
type Dispatcher struct {
	cfg      DispatcherConfig
	notifier Notifier
	log      *logrus.Entry

	mu        sync.RWMutex
	closed    bool
	pool      *concurrent.WorkerPool[concurrent.NotifyJobItem, error]
	collected chan struct{}
	onDropped func()
}

func NewDispatcher(cfg DispatcherConfig, notifier Notifier, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logrus.WithField("module", "notify")
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDispatcherConfig().DeliveryTimeout
	}
	d := &Dispatcher{
		cfg:       cfg,
		notifier:  notifier,
		log:       logger,
		pool:      concurrent.NewWorkerPool[concurrent.NotifyJobItem, error](cfg.Workers, cfg.QueueSize),
		collected: make(chan struct{}),
	}
	d.pool.Start(d.deliver)
	go d.collect()
	return d
}

// OnDropped registers a hook called whenever an event is rejected.
func (d *Dispatcher) OnDropped(fn func()) {
	d.mu.Lock()
	d.onDropped = fn
	d.mu.Unlock()
}

func (d *Dispatcher) Emit(ctx context.Context, event datastructure.ProximityEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	if !d.pool.TryAddJob(concurrent.NotifyJobItem{Event: event}) {
		if d.onDropped != nil {
			d.onDropped()
		}
		return ErrQueueFull
	}
	return nil
}

func (d *Dispatcher) deliver(job concurrent.NotifyJobItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DeliveryTimeout)
	defer cancel()
	err := d.notifier.Notify(ctx, job.Event)
	if err != nil {
		d.log.WithError(err).WithFields(logrus.Fields{
			"event_id":   job.Event.ID,
			"cluster_id": job.Event.ClusterID,
		}).Warn("proximity notification failed")
	}
	return err
}

// collect drains worker results so the pool never blocks on a full results channel.
func (d *Dispatcher) collect() {
	defer close(d.collected)
	for range d.pool.CollectResults() {
	}
}

// Close stops accepting events and waits until queued events are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.collected
		return
	}
	d.closed = true
	d.pool.Close()
	d.mu.Unlock()

	d.pool.Wait()
	<-d.collected
}
