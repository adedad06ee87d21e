package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"github.com/zigzig/talent-matcher/internal/scoring"
)

type fakeJobs struct {
	mu        sync.Mutex
	postings  map[string]*job.Posting
	totals    map[string]int
	decisions []Status
	updateErr error
}

func newFakeJobs(postings ...*job.Posting) *fakeJobs {
	f := &fakeJobs{postings: map[string]*job.Posting{}, totals: map[string]int{}}
	for _, p := range postings {
		f.postings[p.ID] = p
	}
	return f
}

func (f *fakeJobs) GetJob(_ context.Context, jobID string) (*job.Posting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.postings[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return p, nil
}

func (f *fakeJobs) UpdateTotalMatches(_ context.Context, jobID string, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.totals[jobID] = total
	return nil
}

func (f *fakeJobs) IncrementDecisionCount(_ context.Context, _ string, status Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, status)
	return nil
}

type fakePortfolios struct {
	records []*portfolio.Record
	err     error
}

func (f *fakePortfolios) ListPublished(context.Context) ([]*portfolio.Record, error) {
	// fresh copies, the filter pipeline edits the slice in place
	return append([]*portfolio.Record{}, f.records...), f.err
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*portfolio.CacheEntry
	puts    int
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*portfolio.CacheEntry{}}
}

func (f *fakeCache) GetParsed(_ context.Context, userID string) (*portfolio.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[userID], nil
}

func (f *fakeCache) PutParsed(_ context.Context, e *portfolio.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.entries[e.UserID] = e
	return nil
}

type fakeMatches struct {
	mu        sync.Mutex
	matches   map[string]*CandidateMatch
	inserts   int
	insertErr error
}

func newFakeMatches(ms ...*CandidateMatch) *fakeMatches {
	f := &fakeMatches{matches: map[string]*CandidateMatch{}}
	for _, m := range ms {
		f.matches[m.ID] = m
	}
	return f
}

func (f *fakeMatches) DeleteByJob(_ context.Context, jobID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, m := range f.matches {
		if m.JobID == jobID {
			delete(f.matches, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMatches) InsertMany(_ context.Context, ms []*CandidateMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, m := range ms {
		f.matches[m.ID] = m
	}
	return nil
}

func (f *fakeMatches) GetMatch(_ context.Context, id string) (*CandidateMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMatches) SaveMatch(_ context.Context, m *CandidateMatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.matches[m.ID] = &cp
	return nil
}

func (f *fakeMatches) ListByJob(_ context.Context, jobID string, status Status, limit int) ([]*CandidateMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*CandidateMatch
	for _, m := range f.matches {
		if m.JobID == jobID && (status == "" || m.Status == status) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMatches) byJob(jobID string) []*CandidateMatch {
	out, _ := f.ListByJob(context.Background(), jobID, "", 1000)
	return out
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []Activity
}

func (f *fakeActivity) Record(_ context.Context, a Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, a)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []StatusChanged
	err    error
}

func (f *fakeEvents) PublishStatusChanged(_ context.Context, e StatusChanged) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

// scoreByName scores candidates by their portfolio name.
type scoreByName struct {
	scores   map[string]float64
	failing  map[string]bool
	panics   map[string]bool
	delay    time.Duration
	gate     chan struct{}
	inflight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	seen     sync.Map
}

func (s *scoreByName) ScoreCandidate(_ context.Context, _ job.Requirements, c portfolio.ParsedPortfolioData) (*scoring.MatchDetails, error) {
	s.calls.Add(1)
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.gate != nil {
		<-s.gate
	}

	s.seen.Store(c.Name, c)

	if s.panics[c.Name] {
		panic(fmt.Sprintf("scorer exploded on %s", c.Name))
	}
	if s.failing[c.Name] {
		return nil, scoring.ErrNoModelSucceeded
	}

	score, ok := s.scores[c.Name]
	if !ok {
		return nil, errors.New("unknown candidate")
	}
	return &scoring.MatchDetails{OverallScore: score, MatchReasons: []string{"because " + c.Name}}, nil
}

func testPosting(id, recruiter string) *job.Posting {
	return &job.Posting{
		ID:          id,
		RecruiterID: recruiter,
		Title:       "Backend Engineer",
		Status:      job.StatusActive,
		Requirements: &job.Requirements{
			Title:           "Backend Engineer",
			RequiredSkills:  []string{"Go", "PostgreSQL"},
			ExperienceLevel: job.LevelSenior,
			RemoteOK:        true,
		},
	}
}

var testEpoch = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func testRecord(name string) *portfolio.Record {
	return &portfolio.Record{
		ID:          "p-" + name,
		UserID:      "u-" + name,
		Slug:        name,
		IsPublished: true,
		Content:     map[string]any{"name": name, "skills": []any{"Go"}},
		UpdatedAt:   testEpoch.Add(-time.Hour),
	}
}
