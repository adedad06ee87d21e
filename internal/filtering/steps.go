package filtering

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type publishedFilter struct {
	logger *zap.Logger
}

// NewPublished creates a filter that drops unpublished portfolios and ones
// without any content.
func NewPublished(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &publishedFilter{logger: logger}
}

func (f *publishedFilter) Name() string { return "published" }

func (f *publishedFilter) Disable(string) {}

func (f *publishedFilter) IsEnabled() bool { return true }

func (f *publishedFilter) Validate() error { return nil }

func (f *publishedFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	var ids []string
	for _, r := range c.Items {
		if !r.IsPublished || len(r.Content) == 0 {
			ids = append(ids, r.ID)
		}
	}
	excluded := c.Exclude(CandidateIDField, ids)
	if len(excluded) > 0 {
		f.logger.Debug("excluding unpublished or empty portfolios", zap.Strings("portfolios", excluded))
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

type uniqueCandidateFilter struct {
	logger *zap.Logger
}

// NewUniqueCandidate keeps only the most recently updated portfolio of every
// user so a job gets at most one match per candidate.
func NewUniqueCandidate(logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &uniqueCandidateFilter{logger: logger}
}

func (f *uniqueCandidateFilter) Name() string { return "unique_candidate" }

func (f *uniqueCandidateFilter) Disable(string) {}

func (f *uniqueCandidateFilter) IsEnabled() bool { return true }

func (f *uniqueCandidateFilter) Validate() error { return nil }

func (f *uniqueCandidateFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	latest := make(map[string]int, initial)
	for idx, r := range c.Items {
		prev, seen := latest[r.UserID]
		if !seen || r.UpdatedAt.After(c.Items[prev].UpdatedAt) {
			latest[r.UserID] = idx
		}
	}

	var ids []string
	for idx, r := range c.Items {
		if latest[r.UserID] != idx {
			ids = append(ids, r.ID)
		}
	}
	excluded := c.Exclude(CandidateIDField, ids)
	if len(excluded) > 0 {
		f.logger.Debug("excluding older portfolios of the same candidate", zap.Strings("portfolios", excluded))
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *uniqueCandidateFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: true}
}

type excludeUsersFilter struct {
	disabled bool
	reason   string
	users    []string
	logger   *zap.Logger
}

// NewExcludeUsers creates a filter that removes portfolios owned by the given
// users. The recruiter running the match is always one of them.
func NewExcludeUsers(users []string, logger *zap.Logger) Filter {
	if logger == nil {
		logger = zap.NewNop()
	}

	cleaned := make([]string, 0, len(users))
	for _, u := range users {
		if u = strings.TrimSpace(u); u != "" {
			cleaned = append(cleaned, u)
		}
	}
	return &excludeUsersFilter{users: cleaned, logger: logger}
}

func (f *excludeUsersFilter) Name() string { return "exclude_users" }

func (f *excludeUsersFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *excludeUsersFilter) IsEnabled() bool { return !f.disabled }

func (f *excludeUsersFilter) Validate() error { return nil }

func (f *excludeUsersFilter) Apply(_ context.Context, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if len(f.users) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(CandidateUserIDField, f.users)
	if len(excluded) > 0 {
		f.logger.Info("excluding portfolios by owner",
			zap.Strings("excluded_users", f.users),
			zap.Strings("excluded_portfolios", excluded),
			zap.Int("portfolios_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *excludeUsersFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"users": strconv.Itoa(len(f.users))},
	}
}

// Default returns the candidate pipeline used for match runs.
func Default(recruiterID string, excludeUsers []string, logger *zap.Logger) *Filtering {
	users := append([]string{recruiterID}, excludeUsers...)
	return New([]Filter{
		NewPublished(logger),
		NewUniqueCandidate(logger),
		NewExcludeUsers(users, logger),
	}, logger)
}
