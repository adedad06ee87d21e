package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type UpdateStatusRequest struct {
	MatchID         string `json:"matchId"`
	Status          string `json:"status"`
	JobID           string `json:"jobId,omitempty"`
	CandidateUserID string `json:"candidateUserId,omitempty"`
}

// Reviewer applies recruiter decisions to computed matches.
type Reviewer struct {
	deps Deps
	log  *zap.Logger
	now  func() time.Time
}

func NewReviewer(deps Deps) *Reviewer {
	return &Reviewer{deps: deps, log: logger.WithFields(deps.Logger), now: time.Now}
}

// UpdateStatus records a like, pass or super like. Counters, activity and the
// status_changed event are best effort and never fail the update.
func (r *Reviewer) UpdateStatus(ctx context.Context, recruiterID string, req UpdateStatusRequest) (*CandidateMatch, error) {
	if strings.TrimSpace(req.MatchID) == "" {
		return nil, invalid("matchId", "is required")
	}
	status, err := ParseDecision(req.Status)
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	m, err := r.ownedMatch(ctx, recruiterID, req.MatchID)
	if err != nil {
		return nil, err
	}

	if req.JobID != "" && req.JobID != m.JobID {
		return nil, invalid("jobId", "does not belong to the match")
	}
	if req.CandidateUserID != "" && req.CandidateUserID != m.CandidateUserID {
		return nil, invalid("candidateUserId", "does not belong to the match")
	}

	if !IsTransitionAllowed(m.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, m.Status, status)
	}
	if m.Status == status {
		return m, nil
	}

	from := m.Status
	now := r.now().UTC()
	m.Status = status
	if m.DecidedAt == nil {
		m.DecidedAt = &now
	}
	if m.ViewedAt == nil {
		m.ViewedAt = &now
	}

	if err := r.deps.Matches.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("save match: %w", err)
	}

	r.log.Info("match status updated",
		zap.String(logger.FieldMatchID, m.ID),
		zap.String(logger.FieldJobID, m.JobID),
		zap.String("from", string(from)),
		zap.String("to", string(status)),
	)

	r.afterDecision(ctx, recruiterID, m, from, now)

	return m, nil
}

func (r *Reviewer) afterDecision(ctx context.Context, recruiterID string, m *CandidateMatch, from Status, at time.Time) {
	match := *m

	// liked -> super_liked is already counted.
	if from == StatusPending {
		r.deps.Background.Go(ctx, "increment_decision_count", func(ctx context.Context) error {
			return r.deps.Jobs.IncrementDecisionCount(ctx, match.JobID, match.Status)
		})
	}

	if r.deps.Activity != nil {
		activity := Activity{
			RecruiterID: recruiterID,
			Action:      ActivityUpdateStatus,
			JobID:       match.JobID,
			MatchID:     match.ID,
			Details:     map[string]string{"status": string(match.Status)},
			CreatedAt:   at,
		}
		r.deps.Background.Go(ctx, ActivityUpdateStatus, func(ctx context.Context) error {
			return r.deps.Activity.Record(ctx, activity)
		})
	}

	if r.deps.Events != nil {
		event := StatusChanged{
			MatchID:         match.ID,
			JobID:           match.JobID,
			RecruiterID:     recruiterID,
			CandidateUserID: match.CandidateUserID,
			From:            from,
			To:              match.Status,
			At:              at,
		}
		r.deps.Background.Go(ctx, "publish_status_changed", func(ctx context.Context) error {
			return r.deps.Events.PublishStatusChanged(ctx, event)
		})
	}
}

// MarkViewed sets viewed_at the first time a recruiter opens a match.
func (r *Reviewer) MarkViewed(ctx context.Context, recruiterID, matchID string) (*CandidateMatch, error) {
	if strings.TrimSpace(matchID) == "" {
		return nil, invalid("matchId", "is required")
	}

	m, err := r.ownedMatch(ctx, recruiterID, matchID)
	if err != nil {
		return nil, err
	}
	if m.ViewedAt != nil {
		return m, nil
	}

	now := r.now().UTC()
	m.ViewedAt = &now
	if err := r.deps.Matches.SaveMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("save match: %w", err)
	}
	return m, nil
}

// ListMatches returns the job's matches by descending score, optionally only
// those with the given status.
func (r *Reviewer) ListMatches(ctx context.Context, recruiterID, jobID, status string, limit int) ([]*CandidateMatch, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, invalid("jobId", "is required")
	}

	var st Status
	if strings.TrimSpace(status) != "" {
		parsed, err := ParseStatus(status)
		if err != nil {
			return nil, invalid("status", err.Error())
		}
		st = parsed
	}

	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	if err := r.checkJobOwner(ctx, recruiterID, jobID); err != nil {
		return nil, err
	}

	matches, err := r.deps.Matches.ListByJob(ctx, jobID, st, limit)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// ownedMatch hides matches of other recruiters' jobs behind ErrMatchNotFound.
func (r *Reviewer) ownedMatch(ctx context.Context, recruiterID, matchID string) (*CandidateMatch, error) {
	m, err := r.deps.Matches.GetMatch(ctx, strings.TrimSpace(matchID))
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	if m == nil {
		return nil, ErrMatchNotFound
	}

	if err := r.checkJobOwner(ctx, recruiterID, m.JobID); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *Reviewer) checkJobOwner(ctx context.Context, recruiterID, jobID string) error {
	posting, err := r.deps.Jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return ErrJobNotFound
		}
		return fmt.Errorf("load job: %w", err)
	}
	if posting == nil {
		return ErrJobNotFound
	}

	recruiterID = strings.TrimSpace(recruiterID)
	if recruiterID != "" && posting.RecruiterID != recruiterID {
		return ErrJobNotFound
	}
	return nil
}
