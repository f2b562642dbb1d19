package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/leadflow-dev/leadflow/internal/store"
)

// WorkflowRunner executes one workflow definition by path. The CLI run
// loop satisfies it; keeping the interface here avoids a cmd import
// cycle.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, workflowPath string) error
}

// sweepInterval is how often the loop checks the store for due jobs.
// Cron expressions have minute resolution, so once a minute is enough.
const sweepInterval = time.Minute

// Scheduler drives cron-triggered workflow runs. Jobs live in the
// store; each sweep lists the enabled ones, executes whichever are due,
// and writes the outcome and next fire time back.
type Scheduler struct {
	store  store.Store
	runner WorkflowRunner
	parser cron.Parser
	logger *slog.Logger

	mu      sync.Mutex
	halt    context.CancelFunc
	idle    chan struct{}
	running map[string]bool
}

// NewScheduler creates a Scheduler over the given store and runner.
func NewScheduler(s store.Store, runner WorkflowRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   s,
		runner:  runner,
		parser:  cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:  logger,
		running: make(map[string]bool),
	}
}

// Start launches the sweep loop in the background. Starting an already
// running scheduler is an error.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idle != nil {
		return fmt.Errorf("scheduler already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.halt = cancel
	s.idle = make(chan struct{})

	go s.loop(loopCtx, s.idle)
	s.logger.Info("scheduler started")
	return nil
}

// Stop cancels the loop and waits for the in-progress sweep to finish.
// Stopping a scheduler that is not running is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	halt, idle := s.halt, s.idle
	s.halt, s.idle = nil, nil
	s.mu.Unlock()

	if idle == nil {
		return nil
	}
	halt()
	<-idle
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, idle chan struct{}) {
	defer close(idle)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		s.runDueJobs(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runDueJobs executes every enabled job whose next fire time has
// arrived. A job with no recorded next fire time counts as due.
func (s *Scheduler) runDueJobs(ctx context.Context) {
	now := time.Now().UTC()
	_, err := s.sweep(ctx, func(job *store.ScheduledJob) bool {
		return job.NextRunAt == nil || !job.NextRunAt.After(now)
	})
	if err != nil {
		s.logger.Error("failed to list scheduled jobs", slog.String("error", err.Error()))
	}
}

// RecoverMissed executes, once, every enabled job whose next fire time
// passed while no scheduler was running.
func (s *Scheduler) RecoverMissed(ctx context.Context) error {
	now := time.Now().UTC()
	ran, err := s.sweep(ctx, func(job *store.ScheduledJob) bool {
		return job.NextRunAt != nil && job.NextRunAt.Before(now)
	})
	if err != nil {
		return fmt.Errorf("list missed jobs: %w", err)
	}
	if ran > 0 {
		s.logger.Info("recovered missed jobs", slog.Int("count", ran))
	}
	return nil
}

// sweep executes every enabled job matching the due predicate, skipping
// jobs already in flight. Returns how many jobs were executed.
func (s *Scheduler) sweep(ctx context.Context, due func(*store.ScheduledJob) bool) (int, error) {
	enabled := true
	jobs, err := s.store.ListScheduledJobs(ctx, store.ScheduledJobFilter{Enabled: &enabled})
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, job := range jobs {
		if !due(job) || !s.claim(job.ID) {
			continue
		}
		if err := s.execute(ctx, job); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
		}
		s.release(job.ID)
		ran++
	}
	return ran, nil
}

// execute runs one job's workflow and records the outcome plus the next
// fire time computed from its cron expression. A workflow failure is
// recorded as the job status, not returned; only bookkeeping failures
// surface as errors.
func (s *Scheduler) execute(ctx context.Context, job *store.ScheduledJob) error {
	s.logger.Info("running scheduled job",
		slog.String("job_id", job.ID),
		slog.String("workflow", job.WorkflowPath),
	)

	status := store.RunStatusSucceeded
	if err := s.runner.RunWorkflow(ctx, job.WorkflowPath); err != nil {
		status = store.RunStatusFailed
		s.logger.Error("scheduled workflow failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}

	finished := time.Now().UTC()
	next, err := s.CalculateNextRun(job.CronExpression, finished)
	if err != nil {
		return fmt.Errorf("next run for job %q: %w", job.ID, err)
	}
	return s.store.UpdateScheduledJob(ctx, job.ID, store.ScheduledJobUpdate{
		LastRunAt:     &finished,
		NextRunAt:     &next,
		LastRunStatus: status,
	})
}

// claim marks a job as in flight. Returns false if it already is, so a
// slow run is never doubled by the next sweep.
func (s *Scheduler) claim(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[jobID] {
		return false
	}
	s.running[jobID] = true
	return true
}

// release clears a job's in-flight mark.
func (s *Scheduler) release(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, jobID)
}

// CalculateNextRun parses a five-field cron expression and returns its
// next fire time after from.
func (s *Scheduler) CalculateNextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return schedule.Next(from), nil
}
