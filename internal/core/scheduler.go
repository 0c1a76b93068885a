package core

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// FilteredCleaner removes filtered entries older than the retention window.
type FilteredCleaner interface {
	DeleteStaleFiltered(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Runner interface {
	Run(ctx context.Context) (RunResult, error)
}

// SchedulerService runs the pipeline periodically and on demand. Runs never overlap.
type SchedulerService struct {
	runner    Runner
	cleaner   FilteredCleaner
	interval  time.Duration
	retention time.Duration
	trigger   chan struct{}
	running   atomic.Bool
	last      atomic.Pointer[RunResult]
}

func NewSchedulerService(runner Runner, cleaner FilteredCleaner, interval, retention time.Duration) *SchedulerService {
	return &SchedulerService{
		runner:    runner,
		cleaner:   cleaner,
		interval:  interval,
		retention: retention,
		trigger:   make(chan struct{}, 1),
	}
}

func (s *SchedulerService) Start(ctx context.Context) {
	go s.runLoop(ctx)
	if s.cleaner != nil && s.retention > 0 {
		go s.runRetentionPolicy(ctx)
	}
}

// TriggerNow requests an immediate run. It returns false if one is already
// running or queued.
func (s *SchedulerService) TriggerNow() bool {
	if s.running.Load() {
		return false
	}
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *SchedulerService) Running() bool {
	return s.running.Load()
}

// LastRun returns the result of the most recent completed run, if any.
func (s *SchedulerService) LastRun() (RunResult, bool) {
	r := s.last.Load()
	if r == nil {
		return RunResult{}, false
	}
	return *r, true
}

func (s *SchedulerService) runLoop(ctx context.Context) {
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.trigger:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single pipeline run unless one is already in progress.
func (s *SchedulerService) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	defer s.running.Store(false)

	result, err := s.runner.Run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "pipeline run failed", "error", err)
		return true
	}
	s.last.Store(&result)
	slog.InfoContext(ctx, "pipeline run complete",
		"harvested", result.Harvested,
		"unique", result.Unique,
		"records", result.Enrichment.Records,
		"filtered", result.Enrichment.Filtered+result.Dropped,
		"duration", result.Duration,
	)
	return true
}

func (s *SchedulerService) runRetentionPolicy(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *SchedulerService) cleanup(ctx context.Context) {
	count, err := s.cleaner.DeleteStaleFiltered(ctx, s.retention)
	if err != nil {
		slog.ErrorContext(ctx, "retention cleanup failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "retention cleanup", "deleted", count)
}
