// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carehours/backend/internal/infrastructure/telemetry"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of background work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

// NewFuncJob adapts a function to a Job
func NewFuncJob(name string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

// Config holds scheduler configuration
type Config struct {
	// JobTimeout bounds a single run
	JobTimeout time.Duration
	Location   *time.Location
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		JobTimeout: 5 * time.Minute,
		Location:   time.UTC,
	}
}

// JobStatus describes a registered job
type JobStatus struct {
	Name         string        `json:"name"`
	Schedule     string        `json:"schedule"`
	Running      bool          `json:"running"`
	LastRunAt    *time.Time    `json:"last_run_at,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	NextRunAt    *time.Time    `json:"next_run_at,omitempty"`
}

type entry struct {
	id       cron.EntryID
	job      Job
	schedule string
	running  bool
	lastRun  *time.Time
	lastDur  time.Duration
	lastErr  string
}

// Scheduler runs registered jobs on their cron schedules. A job never
// overlaps itself: a tick that fires while the previous run is still going
// is skipped.
type Scheduler struct {
	config Config
	cron   *cron.Cron
	logger *zap.Logger

	mu        sync.Mutex
	entries   map[string]*entry
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	cl := cronLogger{logger: logger.Sugar()}
	return &Scheduler{
		config: config,
		cron: cron.New(
			cron.WithLocation(config.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// Register adds a job under a standard five-field cron expression or a
// descriptor such as "@every 1m"
func (s *Scheduler) Register(schedule string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrJobAlreadyRegistered, name)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}

	e := &entry{job: job, schedule: schedule}
	id, err := s.cron.AddFunc(schedule, func() { s.run(e) })
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, schedule, err)
	}
	e.id = id
	s.entries[name] = e

	s.logger.Info("Job registered", zap.String("job", name), zap.String("schedule", schedule))
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.entries)),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop stops scheduling new runs, cancels running jobs and waits for them
// until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerManualRun runs a job now, outside its schedule
func (s *Scheduler) TriggerManualRun(name string) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if e.running {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	s.mu.Unlock()

	go s.run(e)
	return nil
}

// GetStatus returns the registered jobs sorted by name
func (s *Scheduler) GetStatus() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.entries))
	for name, e := range s.entries {
		st := JobStatus{
			Name:         name,
			Schedule:     e.schedule,
			Running:      e.running,
			LastRunAt:    e.lastRun,
			LastDuration: e.lastDur,
			LastError:    e.lastErr,
		}
		if s.isRunning {
			if next := s.cron.Entry(e.id).Next; !next.IsZero() {
				st.NextRunAt = &next
			}
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(e *entry) {
	s.mu.Lock()
	if e.running || !s.isRunning {
		s.mu.Unlock()
		s.logger.Debug("Skipping job run", zap.String("job", e.job.Name()))
		return
	}
	e.running = true
	baseCtx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(baseCtx, s.config.JobTimeout)
	defer cancel()

	name := e.job.Name()
	start := time.Now()
	var err error
	telemetry.WithJobLabels(ctx, name, func(ctx context.Context) {
		err = e.job.Run(ctx)
	})
	elapsed := time.Since(start)
	telemetry.RecordJobRun(name, err == nil, elapsed)

	s.mu.Lock()
	e.running = false
	e.lastRun = &start
	e.lastDur = elapsed
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Job failed", zap.String("job", name), zap.Duration("duration", elapsed), zap.Error(err))
		return
	}
	s.logger.Debug("Job completed", zap.String("job", name), zap.Duration("duration", elapsed))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
