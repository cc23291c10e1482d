// Package jobs runs the recurring background work: dose reminder sweeps,
// the weekly family summary, and the nightly alert sensitivity auto-tune.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Spec string // cron expression
	Run  func(ctx context.Context) error
}

// Scheduler wraps the cron runner and records per-job outcomes.
type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// NewScheduler creates an empty scheduler. Each job run gets its own context
// with the given timeout.
func NewScheduler(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Scheduler{
		cron:    cron.New(),
		timeout: timeout,
	}
}

// Register adds a job to the schedule. Must be called before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("job needs a name and a run function")
	}

	_, err := s.cron.AddFunc(job.Spec, func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("schedule job %s (%s): %w", job.Name, job.Spec, err)
	}

	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	log.Info().Str("job", job.Name).Msg("job started")

	if err := job.Run(ctx); err != nil {
		log.Error().
			Err(err).
			Str("job", job.Name).
			Dur("duration", time.Since(started)).
			Msg("job failed")
		return
	}

	log.Info().
		Str("job", job.Name).
		Dur("duration", time.Since(started)).
		Msg("job completed")
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")
}

// Stop halts the schedule, waiting for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// Jobs returns the registered job names, for the health endpoint.
func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}
