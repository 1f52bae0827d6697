package task

import (
	"github.com/vparekh/treescope/pkg/metrics"
)

// Options configure a task launch. Unset fields are inherited from the parent
// task, or fall back to package defaults at a root.
type Options struct {
	// Name labels the task in handler output and metrics.
	Name string

	// Supervisory, when set, overrides the inherited supervisory flag.
	// A supervisory task contains its children's failures: a failing child
	// does not cancel its siblings or fail the supervisory parent.
	Supervisory *bool

	// Scheduler executes the task's work. Inherited by children.
	Scheduler Scheduler

	// Clock drives timeout wrappers and Sleep. Inherited by children.
	Clock Clock

	// Metrics enables Prometheus instrumentation for this task and its
	// descendants.
	Metrics *metrics.Registry
}

// Option mutates launch Options.
type Option func(*Options)

// WithName labels the task.
func WithName(name string) Option {
	return func(o *Options) { o.Name = name }
}

// WithSupervisor sets the supervisory flag instead of inheriting it.
func WithSupervisor(v bool) Option {
	return func(o *Options) { o.Supervisory = &v }
}

// WithScheduler sets the scheduler used to run this task and, by
// inheritance, its descendants.
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}

// WithClock sets the clock used by timeout wrappers and Sleep within this
// task and its descendants.
func WithClock(c Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithMetrics enables metrics collection for this task and its descendants.
// Resolve the registry once (metrics.Config.Resolve or metrics.NewRegistry)
// and reuse it across launches.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Options) { o.Metrics = reg }
}
