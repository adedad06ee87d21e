// Package memory is an in-process store implementing every repository the
// matcher needs. It backs the CLI when no database is configured and the tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/matching"
	"github.com/zigzig/talent-matcher/internal/portfolio"
)

const maxActivity = 100

type Store struct {
	mu         sync.RWMutex
	portfolios map[string]*portfolio.Record
	jobs       map[string]*job.Posting
	cache      map[string]*portfolio.CacheEntry
	matches    map[string]*matching.CandidateMatch
	activity   map[string][]matching.Activity
	events     []matching.StatusChanged
}

func New() *Store {
	return &Store{
		portfolios: map[string]*portfolio.Record{},
		jobs:       map[string]*job.Posting{},
		cache:      map[string]*portfolio.CacheEntry{},
		matches:    map[string]*matching.CandidateMatch{},
		activity:   map[string][]matching.Activity{},
	}
}

// Seed is the file format accepted by LoadSeed.
type Seed struct {
	Portfolios []*portfolio.Record `json:"portfolios"`
	Jobs       []*job.Posting      `json:"jobs"`
}

// LoadSeed fills the store from a JSON file.
func (s *Store) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}

	s.Seed(seed)
	return nil
}

func (s *Store) Seed(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range seed.Portfolios {
		if p != nil && p.ID != "" {
			cp := *p
			s.portfolios[p.ID] = &cp
		}
	}
	for _, j := range seed.Jobs {
		if j != nil && j.ID != "" {
			cp := *j
			if cp.Status == "" {
				cp.Status = job.StatusActive
			}
			s.jobs[j.ID] = &cp
		}
	}
}

func (s *Store) PutPortfolio(p *portfolio.Record) {
	s.Seed(Seed{Portfolios: []*portfolio.Record{p}})
}

func (s *Store) ListPublished(context.Context) ([]*portfolio.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*portfolio.Record, 0, len(s.portfolios))
	for _, p := range s.portfolios {
		if p.IsPublished {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateJob(_ context.Context, p *job.Posting) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("job posting id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[p.ID]; exists {
		return fmt.Errorf("job posting %s already exists", p.ID)
	}
	cp := *p
	s.jobs[p.ID] = &cp
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*job.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return nil, matching.ErrJobNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListActiveJobs(context.Context) ([]*job.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*job.Posting, 0, len(s.jobs))
	for _, p := range s.jobs {
		if p.Status == job.StatusActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateTotalMatches(_ context.Context, jobID string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return matching.ErrJobNotFound
	}
	p.TotalMatches = total
	return nil
}

func (s *Store) IncrementDecisionCount(_ context.Context, jobID string, status matching.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.jobs[jobID]
	if !ok {
		return matching.ErrJobNotFound
	}
	switch status {
	case matching.StatusLiked, matching.StatusSuperLiked:
		p.LikedCount++
	case matching.StatusPassed:
		p.PassedCount++
	}
	return nil
}

func (s *Store) GetParsed(_ context.Context, userID string) (*portfolio.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.cache[userID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *Store) PutParsed(_ context.Context, e *portfolio.CacheEntry) error {
	if e == nil || e.UserID == "" {
		return fmt.Errorf("cache entry user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.cache[e.UserID] = &cp
	return nil
}

func (s *Store) DeleteByJob(_ context.Context, jobID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, m := range s.matches {
		if m.JobID == jobID {
			delete(s.matches, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertMany(_ context.Context, ms []*matching.CandidateMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range ms {
		if m == nil {
			continue
		}
		cp := *m
		s.matches[m.ID] = &cp
	}
	return nil
}

func (s *Store) GetMatch(_ context.Context, matchID string) (*matching.CandidateMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[matchID]
	if !ok {
		return nil, matching.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *Store) SaveMatch(_ context.Context, m *matching.CandidateMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[m.ID]; !ok {
		return matching.ErrMatchNotFound
	}
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *Store) ListByJob(_ context.Context, jobID string, status matching.Status, limit int) ([]*matching.CandidateMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*matching.CandidateMatch
	for _, m := range s.matches {
		if m.JobID != jobID || (status != "" && m.Status != status) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchScore != out[j].MatchScore {
			return out[i].MatchScore > out[j].MatchScore
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Record(_ context.Context, a matching.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	feed := append([]matching.Activity{a}, s.activity[a.RecruiterID]...)
	if len(feed) > maxActivity {
		feed = feed[:maxActivity]
	}
	s.activity[a.RecruiterID] = feed
	return nil
}

// Activity returns the recruiter's feed, newest first.
func (s *Store) Activity(recruiterID string) []matching.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]matching.Activity{}, s.activity[recruiterID]...)
}

func (s *Store) PublishStatusChanged(_ context.Context, e matching.StatusChanged) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) Events() []matching.StatusChanged {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]matching.StatusChanged{}, s.events...)
}

var (
	_ job.PostingStore         = (*Store)(nil)
	_ matching.JobRepository   = (*Store)(nil)
	_ matching.PortfolioSource = (*Store)(nil)
	_ matching.PortfolioCache  = (*Store)(nil)
	_ matching.MatchRepository = (*Store)(nil)
	_ matching.ActivityLog     = (*Store)(nil)
	_ matching.EventPublisher  = (*Store)(nil)
)
