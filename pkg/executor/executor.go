package executor

import (
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/vparekh/treescope/pkg/common/validation"
	"github.com/vparekh/treescope/pkg/metrics"
	"github.com/vparekh/treescope/pkg/task"
)

// Pool is a fixed-size worker pool that runs task bodies. It implements
// task.Scheduler, so a pool can be installed on a task tree via
// task.WithScheduler to bound the tree's concurrency.
type Pool interface {
	task.Scheduler

	// Shutdown initiates a graceful shutdown. Queued work is completed
	// before workers exit. The returned channel closes when all workers
	// have stopped. Work scheduled after Shutdown runs on a fresh
	// goroutine so in-flight task trees still reach a terminal state.
	Shutdown() <-chan struct{}

	// Workers returns the number of workers in the pool.
	Workers() int

	// Queued returns the number of work items waiting for a worker.
	Queued() int

	// Ran returns the total number of work items executed.
	Ran() int64
}

// Config holds configuration options for creating a pool.
type Config struct {
	// Workers is the number of concurrent workers. Must be positive.
	Workers int

	// QueueSize is the capacity of the work queue. When the queue is
	// full, Schedule falls back to a fresh goroutine rather than
	// suspending or dropping the work. Must be positive.
	QueueSize int

	// Name labels the pool in metrics.
	Name string

	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// DefaultConfig returns a pool configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:   8,
		QueueSize: 64,
	}
}

type pool struct {
	cfg Config

	queue        chan func()
	shutdownOnce sync.Once
	done         chan struct{}

	mu         sync.RWMutex
	isShutdown bool

	ran atomic.Int64

	workerWg sync.WaitGroup
	reg      *metrics.Registry
}

// New creates a pool with the given worker count and queue size.
func New(workers, queueSize int) (Pool, error) {
	cfg := DefaultConfig()
	cfg.Workers = workers
	cfg.QueueSize = queueSize
	return NewWithConfig(cfg)
}

// NewWithConfig creates a pool with the given configuration and starts
// its workers.
func NewWithConfig(cfg Config) (Pool, error) {
	if err := validation.Positive("executor", "workers", cfg.Workers); err != nil {
		return nil, err
	}
	if err := validation.Positive("executor", "queue size", cfg.QueueSize); err != nil {
		return nil, err
	}

	p := &pool{
		cfg:   cfg,
		queue: make(chan func(), cfg.QueueSize),
		done:  make(chan struct{}),
		reg:   cfg.Metrics.Resolve(),
	}

	if p.reg != nil {
		p.reg.ExecutorWorkers.WithLabelValues(cfg.Name).Set(float64(cfg.Workers))
	}

	for i := 0; i < cfg.Workers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}
	return p, nil
}

// Schedule runs fn on a pool worker. A full queue or a shut-down pool
// falls back to a fresh goroutine, so scheduled work always runs.
func (p *pool) Schedule(fn func()) {
	p.mu.RLock()
	if !p.isShutdown {
		select {
		case p.queue <- fn:
			p.mu.RUnlock()
			p.gaugeQueue()
			return
		default:
		}
	}
	p.mu.RUnlock()

	go p.execute(fn)
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *pool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		close(p.queue)
		p.mu.Unlock()

		go func() {
			p.workerWg.Wait()
			close(p.done)
		}()
	})
	return p.done
}

func (p *pool) Workers() int {
	return p.cfg.Workers
}

func (p *pool) Queued() int {
	return len(p.queue)
}

func (p *pool) Ran() int64 {
	return p.ran.Load()
}

// worker is the main loop for a single worker. It drains the queue
// after Shutdown closes it, then exits.
func (p *pool) worker() {
	defer p.workerWg.Done()

	for fn := range p.queue {
		p.gaugeQueue()
		p.execute(fn)
	}
}

func (p *pool) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("executor: panic in scheduled work: %v\n%s", r, debug.Stack())
		}
	}()
	defer func() {
		p.ran.Add(1)
		if p.reg != nil {
			p.reg.ExecutorRan.WithLabelValues(p.cfg.Name).Inc()
		}
	}()
	fn()
}

func (p *pool) gaugeQueue() {
	if p.reg != nil {
		p.reg.ExecutorQueued.WithLabelValues(p.cfg.Name).Set(float64(len(p.queue)))
	}
}
