package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codecite/codecite/domain/repository"
	"github.com/codecite/codecite/domain/syncjob"
	"github.com/codecite/codecite/internal/config"
)

// Scheduler drives the two background sweeps: a daily sweep that enqueues
// syncs for active repositories whose policy allows daily frequency, and a
// retry sweep that re-executes rearmed jobs whose backoff has elapsed.
type Scheduler struct {
	repositories RepositoryStore
	jobs         JobStore
	orchestrator *Orchestrator
	logger       *slog.Logger

	dailyEnabled  bool
	dailyHour     int
	retryInterval time.Duration
	maxConcurrent int

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewScheduler creates a Scheduler from config and dependencies.
func NewScheduler(
	cfg config.SyncConfig,
	repositories RepositoryStore,
	jobs JobStore,
	orchestrator *Orchestrator,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		repositories:  repositories,
		jobs:          jobs,
		orchestrator:  orchestrator,
		logger:        logger,
		dailyEnabled:  cfg.DailyEnabled(),
		dailyHour:     cfg.DailyHour(),
		retryInterval: cfg.RetrySweepInterval(),
		maxConcurrent: cfg.MaxConcurrentRetry(),
	}
}

// Start launches the sweeps in background goroutines.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runRetrySweep(ctx)
	}()

	if s.dailyEnabled {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runDailySweep(ctx)
		}()
	} else {
		s.logger.Info("daily sync sweep disabled")
	}

	s.logger.Info("scheduler started",
		slog.Duration("retry_interval", s.retryInterval),
		slog.Int("max_concurrent_retries", s.maxConcurrent),
	)
}

// Stop cancels the sweeps and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runDailySweep(ctx context.Context) {
	for {
		next := nextDailyRun(time.Now(), s.dailyHour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.DailySweep(ctx)
		}
	}
}

// nextDailyRun returns the next occurrence of the configured hour.
func nextDailyRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// DailySweep enqueues a scheduled sync for every active repository whose
// policy allows daily frequency. A repository with a live job is skipped.
func (s *Scheduler) DailySweep(ctx context.Context) {
	repos, err := s.repositories.ActiveWithFrequency(ctx, repository.SyncDaily)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("daily sweep failed to list repositories",
			slog.String("error", err.Error()),
		)
		return
	}

	enqueued := 0
	for _, repo := range repos {
		job, err := s.orchestrator.Trigger(ctx, repo.ID(), syncjob.TypeScheduled)
		if errors.Is(err, syncjob.ErrAlreadyRunning) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("daily sweep failed to enqueue",
				slog.Int64("repository_id", repo.ID()),
				slog.String("error", err.Error()),
			)
			continue
		}
		enqueued++

		s.wg.Add(1)
		go func(job syncjob.Job) {
			defer s.wg.Done()
			if err := s.orchestrator.Execute(ctx, job); err != nil {
				s.logger.Error("scheduled sync did not settle",
					slog.String("job_id", job.ID()),
					slog.String("error", err.Error()),
				)
			}
		}(job)
	}

	s.logger.Debug("daily sweep enqueued", slog.Int("count", enqueued))
}

func (s *Scheduler) runRetrySweep(ctx context.Context) {
	ticker := time.NewTicker(s.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RetrySweep(ctx)
		}
	}
}

// RetrySweep re-executes rearmed jobs whose nextRetryAt has elapsed, at most
// maxConcurrent at a time.
func (s *Scheduler) RetrySweep(ctx context.Context) {
	due, err := s.jobs.RetryDue(ctx, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("retry sweep failed to list due jobs",
			slog.String("error", err.Error()),
		)
		return
	}
	if len(due) == 0 {
		return
	}

	s.logger.Info("retry sweep picking up jobs", slog.Int("count", len(due)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for _, job := range due {
		job := job
		g.Go(func() error {
			if err := s.orchestrator.Execute(gctx, job); err != nil {
				s.logger.Error("retried sync did not settle",
					slog.String("job_id", job.ID()),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}
