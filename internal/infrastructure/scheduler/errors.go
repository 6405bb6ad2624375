package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobNotFound is returned when a job name is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyRegistered is returned when a job name is registered twice
	ErrJobAlreadyRegistered = errors.New("job already registered")

	// ErrJobRunning is returned when a manual run overlaps a running job
	ErrJobRunning = errors.New("job is already running")

	// ErrInvalidSchedule is returned for cron expressions that do not parse
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
