package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/matching"
)

// Record prepends to the recruiter's capped activity list.
func (s *Store) Record(ctx context.Context, a matching.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	key := ActivityKey(a.RecruiterID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, ActivityLimit-1)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("recruiter_id", a.RecruiterID),
			zap.String("action", a.Action),
			zap.Error(err),
		)
		return fmt.Errorf("record activity: %w", err)
	}
	return nil
}

// Activity returns up to n entries, newest first.
func (s *Store) Activity(ctx context.Context, recruiterID string, n int) ([]matching.Activity, error) {
	if n <= 0 || n > ActivityLimit {
		n = ActivityLimit
	}

	raw, err := s.client.LRange(ctx, ActivityKey(recruiterID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	out := make([]matching.Activity, 0, len(raw))
	for _, item := range raw {
		var a matching.Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Store) PublishStatusChanged(ctx context.Context, e matching.StatusChanged) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.Publish(ctx, ChannelStatusChanged, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelStatusChanged, err)
	}
	return nil
}

var (
	_ matching.PortfolioCache  = (*Store)(nil)
	_ matching.MatchRepository = (*Store)(nil)
	_ matching.ActivityLog     = (*Store)(nil)
	_ matching.EventPublisher  = (*Store)(nil)
)
