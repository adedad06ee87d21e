package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zigzig/talent-matcher/internal/utils"
	"go.uber.org/zap"
)

type reviewHarness struct {
	jobs       *fakeJobs
	matches    *fakeMatches
	activity   *fakeActivity
	events     *fakeEvents
	background *utils.Background
	reviewer   *Reviewer
}

func newReviewHarness(ms ...*CandidateMatch) *reviewHarness {
	h := &reviewHarness{
		jobs:       newFakeJobs(testPosting("job-1", "recruiter-1"), testPosting("job-2", "recruiter-2")),
		matches:    newFakeMatches(ms...),
		activity:   &fakeActivity{},
		events:     &fakeEvents{},
		background: utils.NewBackground(zap.NewNop()),
	}
	h.reviewer = NewReviewer(Deps{
		Jobs:       h.jobs,
		Matches:    h.matches,
		Activity:   h.activity,
		Events:     h.events,
		Background: h.background,
	})
	h.reviewer.now = func() time.Time { return testEpoch }
	return h
}

func pendingMatch(id, jobID string, score float64) *CandidateMatch {
	return &CandidateMatch{ID: id, JobID: jobID, CandidateUserID: "u-" + id, MatchScore: score, Status: StatusPending}
}

func TestUpdateStatusLike(t *testing.T) {
	h := newReviewHarness(pendingMatch("m1", "job-1", 80))

	m, err := h.reviewer.UpdateStatus(context.Background(), "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "liked", JobID: "job-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.background.Wait()

	if m.Status != StatusLiked || m.DecidedAt == nil || m.ViewedAt == nil || !m.DecidedAt.Equal(testEpoch) {
		t.Fatalf("unexpected match: %+v", m)
	}

	stored, _ := h.matches.GetMatch(context.Background(), "m1")
	if stored.Status != StatusLiked {
		t.Fatalf("expected status to be persisted, got %s", stored.Status)
	}
	if len(h.jobs.decisions) != 1 || h.jobs.decisions[0] != StatusLiked {
		t.Fatalf("expected one liked counter bump, got %v", h.jobs.decisions)
	}
	if len(h.activity.entries) != 1 || h.activity.entries[0].Action != ActivityUpdateStatus {
		t.Fatalf("unexpected activity: %+v", h.activity.entries)
	}
	if len(h.events.events) != 1 || h.events.events[0].From != StatusPending || h.events.events[0].To != StatusLiked {
		t.Fatalf("unexpected events: %+v", h.events.events)
	}
}

func TestUpdateStatusUpgradeKeepsFirstDecisionTime(t *testing.T) {
	h := newReviewHarness(pendingMatch("m1", "job-1", 80))
	ctx := context.Background()

	if _, err := h.reviewer.UpdateStatus(ctx, "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "liked"}); err != nil {
		t.Fatalf("like: %v", err)
	}

	h.reviewer.now = func() time.Time { return testEpoch.Add(time.Hour) }
	m, err := h.reviewer.UpdateStatus(ctx, "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "super_liked"})
	if err != nil {
		t.Fatalf("super like: %v", err)
	}
	h.background.Wait()

	if m.Status != StatusSuperLiked || !m.DecidedAt.Equal(testEpoch) {
		t.Fatalf("expected decided_at to stay at the first decision: %+v", m)
	}
	if len(h.jobs.decisions) != 1 {
		t.Fatalf("upgrade must not bump counters again, got %v", h.jobs.decisions)
	}
	if len(h.events.events) != 2 {
		t.Fatalf("expected an event per change, got %d", len(h.events.events))
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	decided := testEpoch.Add(-time.Hour)
	m := pendingMatch("m1", "job-1", 80)
	m.Status = StatusPassed
	m.DecidedAt = &decided
	h := newReviewHarness(m)

	got, err := h.reviewer.UpdateStatus(context.Background(), "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "passed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.background.Wait()

	if got.Status != StatusPassed || !got.DecidedAt.Equal(decided) {
		t.Fatalf("unexpected match: %+v", got)
	}
	if len(h.jobs.decisions) != 0 || len(h.events.events) != 0 {
		t.Fatalf("no-op must not have side effects")
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	passed := pendingMatch("m-passed", "job-1", 50)
	passed.Status = StatusPassed

	h := newReviewHarness(pendingMatch("m1", "job-1", 80), pendingMatch("m-other", "job-2", 80), passed)

	isValidation := func(err error) bool {
		var v *ValidationError
		return errors.As(err, &v)
	}

	tests := []struct {
		name      string
		recruiter string
		req       UpdateStatusRequest
		check     func(error) bool
	}{
		{"missing match id", "recruiter-1", UpdateStatusRequest{Status: "liked"}, isValidation},
		{"unknown status", "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "maybe"}, isValidation},
		{"pending is not a decision", "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "pending"}, isValidation},
		{"job mismatch", "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "liked", JobID: "job-2"}, isValidation},
		{"candidate mismatch", "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "liked", CandidateUserID: "someone"}, isValidation},
		{"missing match", "recruiter-1", UpdateStatusRequest{MatchID: "nope", Status: "liked"}, func(err error) bool { return errors.Is(err, ErrMatchNotFound) }},
		{"foreign match", "recruiter-1", UpdateStatusRequest{MatchID: "m-other", Status: "liked"}, func(err error) bool { return errors.Is(err, ErrMatchNotFound) }},
		{"passed cannot be liked", "recruiter-1", UpdateStatusRequest{MatchID: "m-passed", Status: "liked"}, func(err error) bool { return errors.Is(err, ErrTransitionNotAllowed) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.reviewer.UpdateStatus(context.Background(), tt.recruiter, tt.req); !tt.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateStatusIgnoresSideChannelFailures(t *testing.T) {
	h := newReviewHarness(pendingMatch("m1", "job-1", 80))
	h.events.err = errors.New("redis down")

	if _, err := h.reviewer.UpdateStatus(context.Background(), "recruiter-1", UpdateStatusRequest{MatchID: "m1", Status: "passed"}); err != nil {
		t.Fatalf("event failures must not fail the update: %v", err)
	}
	h.background.Wait()
}

func TestMarkViewedOnce(t *testing.T) {
	h := newReviewHarness(pendingMatch("m1", "job-1", 80))
	ctx := context.Background()

	first, err := h.reviewer.MarkViewed(ctx, "recruiter-1", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h.reviewer.now = func() time.Time { return testEpoch.Add(time.Hour) }
	second, err := h.reviewer.MarkViewed(ctx, "recruiter-1", "m1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.ViewedAt.Equal(testEpoch) || !second.ViewedAt.Equal(testEpoch) {
		t.Fatalf("viewed_at must be set once: %v, %v", first.ViewedAt, second.ViewedAt)
	}
	if second.Status != StatusPending {
		t.Fatalf("viewing must not change status")
	}
}

func TestListMatches(t *testing.T) {
	liked := pendingMatch("m-liked", "job-1", 40)
	liked.Status = StatusLiked
	h := newReviewHarness(
		pendingMatch("m1", "job-1", 30),
		pendingMatch("m2", "job-1", 90),
		liked,
		pendingMatch("m-other", "job-2", 99),
	)
	ctx := context.Background()

	all, err := h.reviewer.ListMatches(ctx, "recruiter-1", "job-1", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "m2" || all[2].ID != "m1" {
		t.Fatalf("expected matches sorted by score, got %v", all)
	}

	likedOnly, err := h.reviewer.ListMatches(ctx, "recruiter-1", "job-1", "liked", 10)
	if err != nil || len(likedOnly) != 1 || likedOnly[0].ID != "m-liked" {
		t.Fatalf("expected only liked match, got %v, %v", likedOnly, err)
	}

	top, err := h.reviewer.ListMatches(ctx, "recruiter-1", "job-1", "", 1)
	if err != nil || len(top) != 1 || top[0].ID != "m2" {
		t.Fatalf("expected top match only, got %v, %v", top, err)
	}

	if _, err := h.reviewer.ListMatches(ctx, "recruiter-1", "job-2", "", 0); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected foreign job to be hidden, got %v", err)
	}

	var v *ValidationError
	if _, err := h.reviewer.ListMatches(ctx, "recruiter-1", "job-1", "maybe", 0); !errors.As(err, &v) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
