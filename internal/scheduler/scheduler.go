// Package scheduler periodically recomputes matches for every active job so
// new and updated portfolios show up without a recruiter asking.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/logger"
	"github.com/zigzig/talent-matcher/internal/matching"
)

const DefaultSpec = "@every 6h"

type ActiveJobs interface {
	ListActiveJobs(ctx context.Context) ([]*job.Posting, error)
}

type MatchComputer interface {
	ComputeMatches(ctx context.Context, recruiterID, jobID string) (*matching.Result, error)
}

// Scheduler wraps robfig/cron and manages the re-match loop.
type Scheduler struct {
	cron       *cron.Cron
	jobs       ActiveJobs
	matcher    MatchComputer
	spec       string
	runOnStart bool
	logger     *zap.Logger
}

func New(jobs ActiveJobs, matcher MatchComputer, spec string, runOnStart bool, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if spec == "" {
		spec = DefaultSpec
	}

	cronLog := cronLogger{log.Sugar()}
	return &Scheduler{
		cron:       cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		jobs:       jobs,
		matcher:    matcher,
		spec:       spec,
		runOnStart: runOnStart,
		logger:     log,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("rematch scheduler started", zap.String("spec", s.spec))

	if s.runOnStart {
		go s.RunOnce(ctx)
	}
	return nil
}

// Stop waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("rematch scheduler stopped")
}

// RunOnce recomputes matches for every active job. A failing job is logged
// and the cycle moves on.
func (s *Scheduler) RunOnce(ctx context.Context) (done, failed int) {
	postings, err := s.jobs.ListActiveJobs(ctx)
	if err != nil {
		s.logger.Error("listing active jobs", zap.Error(err))
		return 0, 0
	}
	if len(postings) == 0 {
		s.logger.Debug("no active jobs to rematch")
		return 0, 0
	}

	s.logger.Info("rematch cycle started", zap.Int("jobs", len(postings)))
	for _, p := range postings {
		if ctx.Err() != nil {
			break
		}
		if p.Requirements == nil {
			continue
		}

		res, err := s.matcher.ComputeMatches(ctx, p.RecruiterID, p.ID)
		if errors.Is(err, matching.ErrComputeInProgress) {
			s.logger.Info("rematch skipped, job is being matched", zap.String(logger.FieldJobID, p.ID))
			continue
		}
		if err != nil {
			failed++
			s.logger.Warn("rematch failed", zap.String(logger.FieldJobID, p.ID), zap.Error(err))
			continue
		}
		done++
		s.logger.Debug("rematch done", zap.String(logger.FieldJobID, p.ID), zap.Int("total_matches", res.TotalMatches))
	}

	s.logger.Info("rematch cycle complete", zap.Int("done", done), zap.Int("failed", failed))
	return done, failed
}

type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
