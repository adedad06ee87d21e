// Package matching computes, stores and reviews candidate matches for a job.
package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"github.com/zigzig/talent-matcher/internal/scoring"
)

const maxSnapshotSkills = 10

// CandidateMatch is a scored candidate for one job. The candidate_* fields are
// a snapshot taken when the match was computed.
type CandidateMatch struct {
	ID              string               `json:"id"`
	JobID           string               `json:"job_id"`
	CandidateUserID string               `json:"candidate_user_id"`
	PortfolioID     string               `json:"portfolio_id"`
	MatchScore      float64              `json:"match_score"`
	MatchReasons    []string             `json:"match_reasons"`
	MatchDetails    scoring.MatchDetails `json:"match_details"`
	Status          Status               `json:"status"`

	CandidateName     string   `json:"candidate_name"`
	CandidateTitle    string   `json:"candidate_title"`
	CandidateLocation string   `json:"candidate_location"`
	CandidateSkills   []string `json:"candidate_skills"`
	AvatarURL         string   `json:"avatar_url,omitempty"`
	PortfolioSlug     string   `json:"portfolio_slug"`
	ExperienceLevel   string   `json:"experience_level"`
	ExperienceYears   float64  `json:"experience_years"`

	CreatedAt time.Time  `json:"created_at"`
	ViewedAt  *time.Time `json:"viewed_at,omitempty"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

func newMatch(jobID string, record *portfolio.Record, parsed portfolio.ParsedPortfolioData, details *scoring.MatchDetails, now time.Time) *CandidateMatch {
	skills := parsed.Skills.All
	if len(skills) > maxSnapshotSkills {
		skills = skills[:maxSnapshotSkills]
	}

	return &CandidateMatch{
		ID:                uuid.NewString(),
		JobID:             jobID,
		CandidateUserID:   record.UserID,
		PortfolioID:       record.ID,
		MatchScore:        details.OverallScore,
		MatchReasons:      append([]string{}, details.MatchReasons...),
		MatchDetails:      *details,
		Status:            StatusPending,
		CandidateName:     parsed.Name,
		CandidateTitle:    parsed.Title,
		CandidateLocation: parsed.Location,
		CandidateSkills:   append([]string{}, skills...),
		AvatarURL:         parsed.AvatarURL,
		PortfolioSlug:     record.Slug,
		ExperienceLevel:   string(parsed.Experience.Level),
		ExperienceYears:   parsed.Experience.TotalYears,
		CreatedAt:         now,
	}
}

// Activity is an entry of the recruiter's activity feed.
type Activity struct {
	RecruiterID string            `json:"recruiter_id"`
	Action      string            `json:"action"`
	JobID       string            `json:"job_id,omitempty"`
	MatchID     string            `json:"match_id,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

const (
	ActivityComputeMatches = "compute_matches"
	ActivityUpdateStatus   = "update_match_status"
)

// StatusChanged is published after a recruiter decision.
type StatusChanged struct {
	MatchID         string    `json:"match_id"`
	JobID           string    `json:"job_id"`
	RecruiterID     string    `json:"recruiter_id"`
	CandidateUserID string    `json:"candidate_user_id"`
	From            Status    `json:"from"`
	To              Status    `json:"to"`
	At              time.Time `json:"at"`
}

type JobRepository interface {
	GetJob(ctx context.Context, jobID string) (*job.Posting, error)
	UpdateTotalMatches(ctx context.Context, jobID string, total int) error
	IncrementDecisionCount(ctx context.Context, jobID string, status Status) error
}

type PortfolioSource interface {
	ListPublished(ctx context.Context) ([]*portfolio.Record, error)
}

// PortfolioCache stores parsed portfolios per user. GetParsed returns nil, nil on a miss.
type PortfolioCache interface {
	GetParsed(ctx context.Context, userID string) (*portfolio.CacheEntry, error)
	PutParsed(ctx context.Context, entry *portfolio.CacheEntry) error
}

type MatchRepository interface {
	DeleteByJob(ctx context.Context, jobID string) (int, error)
	InsertMany(ctx context.Context, matches []*CandidateMatch) error
	GetMatch(ctx context.Context, matchID string) (*CandidateMatch, error)
	SaveMatch(ctx context.Context, match *CandidateMatch) error
	ListByJob(ctx context.Context, jobID string, status Status, limit int) ([]*CandidateMatch, error)
}

type ActivityLog interface {
	Record(ctx context.Context, a Activity) error
}

type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, e StatusChanged) error
}
