package redis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zigzig/talent-matcher/internal/matching"
	"github.com/zigzig/talent-matcher/internal/portfolio"
)

func TestKeys(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{PortfolioCacheKey("u1"), "cached_portfolio:u1"},
		{MatchKey("m1"), "match:m1"},
		{JobMatchesKey("j1"), "job:j1:matches"},
		{JobStatusKey("j1", "liked"), "job:j1:status:liked"},
		{ActivityKey("r1"), "recruiter:r1:activity"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestIntersectKeepsOrder(t *testing.T) {
	got := intersect([]string{"c", "a", "b"}, []string{"b", "c"})
	if len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Fatalf("unexpected intersection: %v", got)
	}
}

// testStore connects to TALENT_MATCHER_TEST_REDIS_URL. Tests using it flush
// nothing and work on random ids.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TALENT_MATCHER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TALENT_MATCHER_TEST_REDIS_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	s := New(client, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMatchLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	jobID := uuid.NewString()

	matches := []*matching.CandidateMatch{
		{ID: uuid.NewString(), JobID: jobID, MatchScore: 40, Status: matching.StatusPending},
		{ID: uuid.NewString(), JobID: jobID, MatchScore: 90, Status: matching.StatusPending},
	}
	if err := s.InsertMany(ctx, matches); err != nil {
		t.Fatalf("insert: %v", err)
	}

	listed, err := s.ListByJob(ctx, jobID, "", 10)
	if err != nil || len(listed) != 2 || listed[0].MatchScore != 90 {
		t.Fatalf("unexpected list: %v, %v", listed, err)
	}

	liked := *matches[0]
	liked.Status = matching.StatusLiked
	if err := s.SaveMatch(ctx, &liked); err != nil {
		t.Fatalf("save: %v", err)
	}
	likedOnly, err := s.ListByJob(ctx, jobID, matching.StatusLiked, 10)
	if err != nil || len(likedOnly) != 1 || likedOnly[0].ID != liked.ID {
		t.Fatalf("unexpected liked list: %v, %v", likedOnly, err)
	}

	n, err := s.DeleteByJob(ctx, jobID)
	if err != nil || n != 2 {
		t.Fatalf("delete: %d, %v", n, err)
	}
	if _, err := s.GetMatch(ctx, liked.ID); !errors.Is(err, matching.ErrMatchNotFound) {
		t.Fatalf("expected deleted match to be gone, got %v", err)
	}
}

func TestPortfolioCacheRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	userID := uuid.NewString()

	if entry, err := s.GetParsed(ctx, userID); entry != nil || err != nil {
		t.Fatalf("expected miss, got %v, %v", entry, err)
	}

	want := &portfolio.CacheEntry{UserID: userID, PortfolioID: "p1", IsActive: true, LastUpdated: time.Now().UTC()}
	if err := s.PutParsed(ctx, want); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetParsed(ctx, userID)
	if err != nil || got == nil || got.PortfolioID != "p1" {
		t.Fatalf("unexpected entry: %+v, %v", got, err)
	}
}

func TestPublishStatusChanged(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := s.client.Subscribe(ctx, ChannelStatusChanged)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := matching.StatusChanged{MatchID: uuid.NewString(), JobID: "job-1", From: matching.StatusPending, To: matching.StatusLiked}
	if err := s.PublishStatusChanged(ctx, want); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msg, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	var got matching.StatusChanged
	if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MatchID != want.MatchID || got.To != matching.StatusLiked {
		t.Fatalf("unexpected event: %+v", got)
	}
}
