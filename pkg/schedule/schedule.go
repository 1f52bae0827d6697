package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	tserrors "github.com/vparekh/treescope/pkg/common/errors"
	"github.com/vparekh/treescope/pkg/common/validation"
	"github.com/vparekh/treescope/pkg/task"
)

// ErrStopped is returned when scheduling on a stopped scheduler.
var ErrStopped = tserrors.ErrStopped

// Scheduler launches recurring work on cron or interval schedules. Each
// firing runs as an independent supervisory root task, so one failing run
// never cancels other jobs or later runs of the same job.
type Scheduler interface {
	// Every schedules work to run at a fixed interval. Intervals below
	// one second are rounded up to one second.
	Every(id string, interval time.Duration, work task.Work, opts ...JobOption) error

	// Cron schedules work using a standard five-field cron expression,
	// or a descriptor such as "@hourly" or "@every 90s".
	Cron(id string, expr string, work task.Work, opts ...JobOption) error

	// Remove cancels future runs of the identified job. In-flight runs
	// are not interrupted.
	Remove(id string) error

	// Jobs returns the ids of all scheduled jobs.
	Jobs() []string

	// Start begins firing schedules.
	Start()

	// Stop ceases firing and cancels in-flight runs. The returned channel
	// closes when all in-flight runs have reached a terminal state.
	Stop() <-chan struct{}
}

// Config holds configuration options for creating a scheduler.
type Config struct {
	// Location is the timezone for cron evaluation. Defaults to time.Local.
	Location *time.Location

	// OnError is the default per-run failure callback. A job-level
	// WithOnError takes precedence. Nil falls back to logging.
	OnError func(id string, err error)

	// TaskOptions are applied to every launched run, before per-job
	// options. Useful for task.WithScheduler or task.WithMetrics.
	TaskOptions []task.Option
}

// DefaultConfig returns a scheduler configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{Location: time.Local}
}

// JobOption configures a single job.
type JobOption func(*jobConfig)

type jobConfig struct {
	onError  func(id string, err error)
	taskOpts []task.Option
}

// WithOnError sets the failure callback for this job's runs.
func WithOnError(fn func(id string, err error)) JobOption {
	return func(c *jobConfig) { c.onError = fn }
}

// WithTaskOptions appends launch options for this job's runs.
func WithTaskOptions(opts ...task.Option) JobOption {
	return func(c *jobConfig) { c.taskOpts = append(c.taskOpts, opts...) }
}

type scheduler struct {
	cfg  Config
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]cron.EntryID
	stopped bool
	runs    sync.WaitGroup
}

// New creates a scheduler with the default configuration.
func New() Scheduler {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a scheduler with the given configuration. Call
// Start to begin firing schedules.
func NewWithConfig(cfg Config) Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &scheduler{
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(cfg.Location)),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

func (s *scheduler) Every(id string, interval time.Duration, work task.Work, opts ...JobOption) error {
	if interval <= 0 {
		return tserrors.NewValidationError("schedule", "interval", interval, "must be positive")
	}
	return s.add(id, cron.Every(interval), work, opts)
}

func (s *scheduler) Cron(id string, expr string, work task.Work, opts ...JobOption) error {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return tserrors.NewValidationError("schedule", "expression", expr,
			fmt.Sprintf("invalid cron expression: %v", err))
	}
	return s.add(id, sched, work, opts)
}

func (s *scheduler) add(id string, sched cron.Schedule, work task.Work, opts []JobOption) error {
	if err := validation.NotEmpty("schedule", "job id", id); err != nil {
		return err
	}
	if work == nil {
		return tserrors.NewValidationError("schedule", "work", nil, "must not be nil")
	}

	jc := jobConfig{onError: s.cfg.OnError}
	for _, opt := range opts {
		opt(&jc)
	}
	if jc.onError == nil {
		jc.onError = func(id string, err error) {
			log.Printf("schedule: job %q failed: %v", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.jobs[id]; exists {
		return tserrors.NewValidationError("schedule", "job id", id, "already scheduled")
	}

	entry := s.cron.Schedule(sched, cron.FuncJob(func() {
		s.fire(id, work, jc)
	}))
	s.jobs[id] = entry
	return nil
}

// fire launches one run of a job as a supervisory root task and waits
// for it to finish.
func (s *scheduler) fire(id string, work task.Work, jc jobConfig) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.runs.Add(1)
	s.mu.Unlock()
	defer s.runs.Done()

	opts := make([]task.Option, 0, len(s.cfg.TaskOptions)+len(jc.taskOpts)+2)
	opts = append(opts, task.WithName("schedule/"+id), task.WithSupervisor(true))
	opts = append(opts, s.cfg.TaskOptions...)
	opts = append(opts, jc.taskOpts...)

	// Async keeps the run's failure out of the unhandled-failure handler;
	// the scheduler observes it here instead.
	d := task.Async(s.ctx, func(c context.Context) (struct{}, error) {
		return struct{}{}, work(c)
	}, opts...)
	if _, err := d.Await(context.Background()); err != nil && !tserrors.IsCancellation(err) {
		jc.onError(id, err)
	}
}

func (s *scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[id]
	if !ok {
		return tserrors.NewValidationError("schedule", "job id", id, "not scheduled")
	}
	s.cron.Remove(entry)
	delete(s.jobs, id)
	return nil
}

func (s *scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	return ids
}

func (s *scheduler) Start() {
	s.cron.Start()
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	alreadyStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()

	if !alreadyStopped {
		s.cron.Stop()
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	return done
}
