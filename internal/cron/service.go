package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/logger"
	"github.com/angelmondragon/pintuan-backend/pkg/metrics"
)

const (
	defaultInterval = time.Minute
	// lockReleaseTimeout bounds the release call, which runs even after the
	// cycle context is canceled.
	lockReleaseTimeout = 5 * time.Second
)

// ServiceParams configure the scheduler service.
type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
}

// JobResult records the outcome of one job within a cycle.
type JobResult struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// CycleResult records one scheduler cycle.
type CycleResult struct {
	StartedAt   time.Time   `json:"startedAt"`
	LockSkipped bool        `json:"lockSkipped"`
	Jobs        []JobResult `json:"jobs,omitempty"`
}

// Service executes registered jobs on a fixed cadence. Cycles of one process
// never overlap; the lock extends that to every instance sharing it.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration

	mu        sync.RWMutex
	lastCycle *CycleResult
}

// NewService builds a scheduler service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Interval reports the configured cadence.
func (s *Service) Interval() time.Duration {
	return s.interval
}

// Jobs lists the registered job names.
func (s *Service) Jobs() []string {
	return s.registry.Names()
}

// Run executes a cycle immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = s.logg.WithField(ctx, "interval", s.interval.String())
	if _, err := s.runCycle(ctx); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.runCycle(ctx); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce executes a single cycle outside the ticker, e.g. for an operator
// "run now" request. It honours the same lock as scheduled cycles.
func (s *Service) RunOnce(ctx context.Context) (CycleResult, error) {
	return s.runCycle(s.logg.WithField(ctx, "trigger", "manual"))
}

// LastCycle returns the most recent cycle this process attempted.
func (s *Service) LastCycle() *CycleResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastCycle == nil {
		return nil
	}
	cycle := *s.lastCycle
	cycle.Jobs = append([]JobResult(nil), s.lastCycle.Jobs...)
	return &cycle
}

func (s *Service) runCycle(ctx context.Context) (CycleResult, error) {
	result := CycleResult{StartedAt: time.Now().UTC()}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return result, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "another scheduler cycle holds the lock; skipping")
		s.metrics.IncLockSkipped()
		result.LockSkipped = true
		s.record(result)
		return result, nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
		defer cancel()
		if relErr := s.lock.Release(releaseCtx); relErr != nil {
			s.logg.Error(ctx, "failed to release scheduler lock", relErr)
		}
	}()

	s.logg.Debug(ctx, "scheduled run starting")
	for _, job := range s.registry.Jobs() {
		result.Jobs = append(result.Jobs, s.runJob(ctx, job))
	}
	s.record(result)
	s.logg.Debug(ctx, "scheduled run complete")
	return result, nil
}

func (s *Service) runJob(ctx context.Context, job Job) JobResult {
	jobCtx := s.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "cron.job",
	})
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	s.metrics.ObserveDuration(job.Name(), duration)

	result := JobResult{Name: job.Name(), DurationMS: duration.Milliseconds()}
	jobCtx = s.logg.WithField(jobCtx, "duration_ms", result.DurationMS)
	if err != nil {
		result.Error = err.Error()
		s.logg.Error(jobCtx, "job failed", err)
		s.metrics.IncFailure(job.Name())
		return result
	}
	s.logg.Debug(jobCtx, "job completed")
	s.metrics.IncSuccess(job.Name())
	return result
}

func (s *Service) record(result CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCycle = &result
}
