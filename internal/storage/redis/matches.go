package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/matching"
)

var allStatuses = []matching.Status{
	matching.StatusPending,
	matching.StatusLiked,
	matching.StatusPassed,
	matching.StatusSuperLiked,
}

func (s *Store) DeleteByJob(ctx context.Context, jobID string) (int, error) {
	ids, err := s.client.ZRange(ctx, JobMatchesKey(jobID), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list job matches: %w", err)
	}

	keys := make([]string, 0, len(ids)+len(allStatuses)+1)
	for _, id := range ids {
		keys = append(keys, MatchKey(id))
	}
	keys = append(keys, JobMatchesKey(jobID))
	for _, st := range allStatuses {
		keys = append(keys, JobStatusKey(jobID, string(st)))
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.Error("failed to delete job matches",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("delete job matches: %w", err)
	}

	return len(ids), nil
}

func (s *Store) InsertMany(ctx context.Context, matches []*matching.CandidateMatch) error {
	if len(matches) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, m := range matches {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal match %s: %w", m.ID, err)
		}
		pipe.Set(ctx, MatchKey(m.ID), data, 0)
		pipe.ZAdd(ctx, JobMatchesKey(m.JobID), redis.Z{Score: m.MatchScore, Member: m.ID})
		pipe.SAdd(ctx, JobStatusKey(m.JobID, string(m.Status)), m.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to insert matches",
			zap.Int("count", len(matches)),
			zap.Error(err),
		)
		return fmt.Errorf("insert matches: %w", err)
	}

	return nil
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (*matching.CandidateMatch, error) {
	var m matching.CandidateMatch
	err := s.getJSON(ctx, MatchKey(matchID), &m)
	if errors.Is(err, errKeyNotFound) {
		return nil, matching.ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveMatch overwrites the match and moves it between status sets.
func (s *Store) SaveMatch(ctx context.Context, m *matching.CandidateMatch) error {
	current, err := s.GetMatch(ctx, m.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal match %s: %w", m.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, MatchKey(m.ID), data, 0)
	if current.Status != m.Status {
		pipe.SRem(ctx, JobStatusKey(m.JobID, string(current.Status)), m.ID)
		pipe.SAdd(ctx, JobStatusKey(m.JobID, string(m.Status)), m.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to save match",
			zap.String("match_id", m.ID),
			zap.Error(err),
		)
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// ListByJob walks the score index from the top and keeps matches with the
// requested status.
func (s *Store) ListByJob(ctx context.Context, jobID string, status matching.Status, limit int) ([]*matching.CandidateMatch, error) {
	ids, err := s.client.ZRevRange(ctx, JobMatchesKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list job matches: %w", err)
	}

	if status != "" {
		members, err := s.client.SMembers(ctx, JobStatusKey(jobID, string(status))).Result()
		if err != nil {
			return nil, fmt.Errorf("list matches by status: %w", err)
		}
		ids = intersect(ids, members)
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []*matching.CandidateMatch{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = MatchKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	out := make([]*matching.CandidateMatch, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var m matching.CandidateMatch
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			s.logger.Warn("skipping unreadable match", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out = append(out, &m)
	}
	return out, nil
}

// intersect keeps the order of ordered.
func intersect(ordered, members []string) []string {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}

	out := make([]string, 0, len(members))
	for _, id := range ordered {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
