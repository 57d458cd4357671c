package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/dshills/piston/internal/config"
	"github.com/dshills/piston/internal/event"
	"github.com/dshills/piston/internal/event/events"
	"github.com/dshills/piston/internal/logging"
)

// Errors returned by Add.
var (
	ErrInvalidExpression = errors.New("invalid cron expression")
	ErrDuplicateJob      = errors.New("job already scheduled")
	ErrInvalidJob        = errors.New("job name is empty")
)

// Job is one cron entry.
type Job struct {
	Name       string
	Expression string
	Data       any
}

// JobsFromConfig converts configured jobs.
func JobsFromConfig(cfg []config.JobConfig) []Job {
	jobs := make([]Job, 0, len(cfg))
	for _, j := range cfg {
		var data any
		if j.Data != "" {
			data = j.Data
		}
		jobs = append(jobs, Job{Name: j.Name, Expression: j.Expression, Data: data})
	}
	return jobs
}

// Scheduler checks its jobs once per minute and fires the due ones.
type Scheduler struct {
	bus      *event.Bus
	gron     *gronx.Gronx
	log      *logging.Logger
	now      func() time.Time
	interval time.Duration

	mu   sync.RWMutex
	jobs []Job
	last time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPollInterval sets how often Run reads the clock.
func WithPollInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// New creates a scheduler firing on bus.
func New(bus *event.Bus, opts ...Option) *Scheduler {
	s := &Scheduler{
		bus:      bus,
		gron:     gronx.New(),
		log:      logging.Nop(),
		now:      time.Now,
		interval: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("schedule")
	return s
}

// Add schedules job. Names are unique.
func (s *Scheduler) Add(job Job) error {
	job.Name = strings.TrimSpace(job.Name)
	if job.Name == "" {
		return ErrInvalidJob
	}
	if !s.gron.IsValid(job.Expression) {
		return fmt.Errorf("job %s: %w: %q", job.Name, ErrInvalidExpression, job.Expression)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.jobs, func(j Job) bool { return j.Name == job.Name }) {
		return fmt.Errorf("job %s: %w", job.Name, ErrDuplicateJob)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Remove unschedules the named job and reports whether it existed.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.jobs)
	s.jobs = slices.DeleteFunc(s.jobs, func(j Job) bool { return j.Name == name })
	return len(s.jobs) != n
}

// Jobs returns the scheduled jobs in insertion order.
func (s *Scheduler) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.jobs)
}

// Next returns when the named job is next due after the current time.
func (s *Scheduler) Next(name string) (time.Time, error) {
	s.mu.RLock()
	i := slices.IndexFunc(s.jobs, func(j Job) bool { return j.Name == name })
	var expr string
	if i >= 0 {
		expr = s.jobs[i].Expression
	}
	s.mu.RUnlock()
	if i < 0 {
		return time.Time{}, fmt.Errorf("job %s not scheduled", name)
	}
	return gronx.NextTickAfter(expr, s.now(), false)
}

// Tick fires every job due at the minute containing t. A minute already
// handled is skipped, so calling Tick repeatedly within one minute fires
// each job once.
func (s *Scheduler) Tick(ctx context.Context, t time.Time) []*event.Future {
	minute := t.Truncate(time.Minute)

	s.mu.Lock()
	if !minute.After(s.last) {
		s.mu.Unlock()
		return nil
	}
	s.last = minute
	jobs := slices.Clone(s.jobs)
	s.mu.Unlock()

	var futures []*event.Future
	for _, j := range jobs {
		due, err := s.gron.IsDue(j.Expression, minute)
		if err != nil {
			s.log.Warn("job %s: %v", j.Name, err)
			continue
		}
		if !due {
			continue
		}
		s.log.Debug("firing job %s", j.Name)
		futures = append(futures, s.bus.FireAsync(ctx, events.NewScheduled(j.Name, j.Expression, minute, j.Data)))
	}
	return futures
}

// Run polls the clock until ctx is done, ticking whenever a new minute
// begins. The minute Run starts in is ticked immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Tick(ctx, s.now())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}
