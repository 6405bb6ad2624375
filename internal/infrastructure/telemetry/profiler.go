package telemetry

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// Profiler runs Pyroscope continuous profiling. The zero value is a stopped
// no-op profiler.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
}

// StartProfiler starts pushing CPU, allocation and goroutine profiles to
// cfg.PyroscopeEndpoint when profiling is enabled.
func StartProfiler(cfg config.TelemetryConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.ProfilingEnabled {
		return p, nil
	}
	if cfg.PyroscopeEndpoint == "" {
		return nil, fmt.Errorf("telemetry.pyroscope_endpoint is required when profiling is enabled")
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}

	prof, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.PyroscopeEndpoint,
		Logger:          pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}
	p.profiler = prof
	logger.Info("Profiler started", zap.String("endpoint", cfg.PyroscopeEndpoint))
	return p, nil
}

// Running reports whether profiles are being pushed
func (p *Profiler) Running() bool {
	return p != nil && p.profiler != nil
}

// Stop flushes and stops the profiler. Later calls are no-ops.
func (p *Profiler) Stop() error {
	if !p.Running() {
		return nil
	}
	var err error
	p.stopOnce.Do(func() {
		err = p.profiler.Stop()
	})
	return err
}

// WithJobLabels runs fn with a "job" profiling label so scheduled work can be
// told apart in flame graphs
func WithJobLabels(ctx context.Context, job string, fn func(context.Context)) {
	WithProfilingLabels(ctx, fn, "job", job)
}

// WithProfilingLabels runs fn with pprof labels given as key/value pairs
func WithProfilingLabels(ctx context.Context, fn func(context.Context), kv ...string) {
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kv...), fn)
}

type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
