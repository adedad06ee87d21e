package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/matching"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubJobs struct {
	postings []*job.Posting
	err      error
}

func (s stubJobs) ListActiveJobs(context.Context) ([]*job.Posting, error) {
	return s.postings, s.err
}

type stubMatcher struct {
	calls []string
	fail  map[string]bool
	busy  map[string]bool
}

func (s *stubMatcher) ComputeMatches(_ context.Context, recruiterID, jobID string) (*matching.Result, error) {
	s.calls = append(s.calls, recruiterID+"/"+jobID)
	if s.busy[jobID] {
		return nil, matching.ErrComputeInProgress
	}
	if s.fail[jobID] {
		return nil, errors.New("boom")
	}
	return &matching.Result{JobID: jobID, TotalMatches: 1}, nil
}

func TestRunOnce(t *testing.T) {
	jobs := stubJobs{postings: []*job.Posting{
		{ID: "j1", RecruiterID: "r1", Requirements: &job.Requirements{}},
		{ID: "j2", RecruiterID: "r2", Requirements: &job.Requirements{}},
		{ID: "j3", RecruiterID: "r1"},
	}}
	matcher := &stubMatcher{fail: map[string]bool{"j2": true}}

	core, logs := observer.New(zapcore.InfoLevel)
	done, failed := New(jobs, matcher, "", false, zap.New(core)).RunOnce(context.Background())

	if done != 1 || failed != 1 {
		t.Fatalf("expected 1 done and 1 failed, got %d/%d", done, failed)
	}
	if len(matcher.calls) != 2 || matcher.calls[0] != "r1/j1" {
		t.Fatalf("jobs without requirements must be skipped, got %v", matcher.calls)
	}
	if logs.FilterMessage("rematch failed").Len() != 1 {
		t.Fatalf("expected a warning for the failed job")
	}
}

func TestRunOnceSkipsJobsAlreadyRunning(t *testing.T) {
	jobs := stubJobs{postings: []*job.Posting{
		{ID: "j1", RecruiterID: "r1", Requirements: &job.Requirements{}},
		{ID: "j2", RecruiterID: "r1", Requirements: &job.Requirements{}},
	}}
	matcher := &stubMatcher{busy: map[string]bool{"j1": true}}

	core, logs := observer.New(zapcore.InfoLevel)
	done, failed := New(jobs, matcher, "", false, zap.New(core)).RunOnce(context.Background())

	if done != 1 || failed != 0 {
		t.Fatalf("a busy job is neither done nor failed, got %d/%d", done, failed)
	}
	if logs.FilterMessage("rematch skipped, job is being matched").Len() != 1 {
		t.Fatalf("expected the skip to be logged")
	}
}

func TestRunOnceListError(t *testing.T) {
	matcher := &stubMatcher{}
	done, failed := New(stubJobs{err: errors.New("db down")}, matcher, "", false, nil).RunOnce(context.Background())
	if done != 0 || failed != 0 || len(matcher.calls) != 0 {
		t.Fatalf("expected nothing to run")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(stubJobs{}, &stubMatcher{}, "every now and then", false, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected invalid cron spec to fail")
	}
}

func TestStartStop(t *testing.T) {
	s := New(stubJobs{}, &stubMatcher{}, "@every 1h", false, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
