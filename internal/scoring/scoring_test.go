package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/zigzig/talent-matcher/internal/ai"
	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"go.uber.org/zap"
)

type stubGenerator struct {
	model    string
	response string
	err      error
	calls    int
	lastReq  ai.Request
}

func (s *stubGenerator) GenerateContent(_ context.Context, req ai.Request) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return s.model }

func backendJob() job.Requirements {
	return job.Requirements{
		Title:              "Backend Engineer",
		RequiredSkills:     []string{"Go", "PostgreSQL"},
		NiceToHaveSkills:   []string{},
		ExperienceLevel:    job.LevelSenior,
		MinExperienceYears: 3,
		Industries:         []string{},
		RemoteOK:           true,
	}
}

func seniorCandidate() portfolio.ParsedPortfolioData {
	return portfolio.ParsedPortfolioData{
		Name:  "Ada",
		Title: "Senior Backend Engineer",
		Skills: portfolio.Skills{
			All:       []string{"Go", "PostgreSQL", "Docker"},
			Languages: []string{"Go"},
			Technical: []string{"PostgreSQL", "Docker"},
		},
		Experience: portfolio.Experience{TotalYears: 4, Level: portfolio.LevelSenior},
		Preferences: portfolio.Preferences{
			RemotePreference: portfolio.RemoteFlexible,
		},
		MarketProfile: portfolio.MarketProfile{RarityScore: 0.5, MarketDemandScore: 0.61},
		Contact:       portfolio.Contact{Email: "ada@example.com"},
	}
}

func assertInRange(t *testing.T, d *MatchDetails) {
	t.Helper()
	for name, v := range map[string]float64{
		"skills":     d.SkillsMatch.Score,
		"experience": d.ExperienceMatch.Score,
		"industry":   d.IndustryMatch.Score,
		"location":   d.LocationMatch.Score,
		"overall":    d.OverallScore,
	} {
		if math.IsNaN(v) || v < 0 || v > 100 {
			t.Fatalf("%s score out of range: %v", name, v)
		}
	}
	if d.BonusAdjustment < 0 || d.BonusAdjustment > MaxBonus {
		t.Fatalf("bonus out of range: %v", d.BonusAdjustment)
	}
	if len(d.MatchReasons) > MaxReasons {
		t.Fatalf("too many reasons: %d", len(d.MatchReasons))
	}
}

func TestParseDetailsClampsScores(t *testing.T) {
	raw := `{
		"skills_match": {"matched_required": ["Go"], "score": 150},
		"experience_match": {"score": -20},
		"industry_match": {"score": "80"},
		"location_match": {"score": 50},
		"bonus_adjustment": 12,
		"overall_score": 300,
		"match_reasons": ["a", "b", "c", "d", "e", "f", " "]
	}`

	d, err := parseDetails(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertInRange(t, d)

	if d.SkillsMatch.Score != 100 || d.ExperienceMatch.Score != 0 || d.IndustryMatch.Score != 80 {
		t.Fatalf("unexpected component scores: %+v", d)
	}
	if d.BonusAdjustment != MaxBonus {
		t.Fatalf("expected bonus clamp to %v, got %v", MaxBonus, d.BonusAdjustment)
	}
	// 40 + 0 + 12 + 5 + 5 = 62, plus at most 10 points of judgment.
	if d.OverallScore != 72 {
		t.Fatalf("expected overall 72, got %v", d.OverallScore)
	}
	if len(d.MatchReasons) != MaxReasons {
		t.Fatalf("expected reasons capped at %d, got %v", MaxReasons, d.MatchReasons)
	}
	if d.SkillsMatch.MissingRequired == nil {
		t.Fatalf("expected empty lists instead of nil")
	}
}

func TestParseDetailsReconstructsMissingOverall(t *testing.T) {
	raw := `{"skills_match": {"score": 80}, "experience_match": {"score": 50}, "industry_match": {"score": 40}, "location_match": {"score": 100}, "bonus_adjustment": 2}`

	d, err := parseDetails(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 32 + 15 + 6 + 10 + 2
	if d.OverallScore != 65 {
		t.Fatalf("expected reconstructed overall 65, got %v", d.OverallScore)
	}
}

func TestParseDetailsKeepsJudgmentWithinBounds(t *testing.T) {
	raw := `{"skills_match": {"score": 80}, "experience_match": {"score": 50}, "industry_match": {"score": 40}, "location_match": {"score": 100}, "overall_score": 58}`

	d, err := parseDetails(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.OverallScore != 58 {
		t.Fatalf("expected model judgment 58 to be kept, got %v", d.OverallScore)
	}
}

func TestParseDetailsRejectsUnusableResponses(t *testing.T) {
	for _, raw := range []string{`{"error": "cannot score"}`, `I think this candidate is great`, ``} {
		if _, err := parseDetails(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseDetailsRandomizedStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	value := func() any {
		switch rng.Intn(4) {
		case 0:
			return rng.Float64()*2000 - 1000
		case 1:
			return math.Round(rng.Float64()*400 - 200)
		case 2:
			return "not a number but a string"
		default:
			return nil
		}
	}

	for i := 0; i < 500; i++ {
		payload := map[string]any{
			"skills_match":     map[string]any{"score": value()},
			"experience_match": map[string]any{"score": value(), "candidate_years": value()},
			"industry_match":   map[string]any{"score": value()},
			"location_match":   map[string]any{"score": value()},
			"bonus_adjustment": value(),
			"overall_score":    value(),
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}

		d, err := parseDetails(string(raw))
		if err != nil {
			// non-numeric strings fail to decode
			continue
		}
		assertInRange(t, d)
	}
}

func TestLLMScorerFallsBackAndUsesLowTemperature(t *testing.T) {
	valid, err := json.Marshal(Rubric(backendJob(), seniorCandidate()))
	if err != nil {
		t.Fatalf("marshal rubric: %v", err)
	}

	first := &stubGenerator{model: "primary", err: errors.New("503")}
	second := &stubGenerator{model: "secondary", response: "```json\n" + string(valid) + "\n```"}

	scorer := NewLLMScorer([]ai.Generator{first, second}, 0, 0, zap.NewNop())
	d, err := scorer.ScoreCandidate(context.Background(), backendJob(), seniorCandidate())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertInRange(t, d)
	if d.OverallScore < 70 {
		t.Fatalf("expected strong match, got %v", d.OverallScore)
	}

	if second.lastReq.Temperature != defaultTemperature || !second.lastReq.JSON {
		t.Fatalf("unexpected request: %+v", second.lastReq)
	}
	if strings.Contains(second.lastReq.Prompt, "ada@example.com") {
		t.Fatalf("contact details must not reach the prompt")
	}
	if !strings.Contains(second.lastReq.Prompt, `"required_skills"`) {
		t.Fatalf("expected job requirements in prompt")
	}
}

func TestLLMScorerAllModelsFail(t *testing.T) {
	gens := []ai.Generator{
		&stubGenerator{model: "a", err: errors.New("timeout")},
		&stubGenerator{model: "b", response: "nope"},
	}

	d, err := NewLLMScorer(gens, 0.1, 0, nil).ScoreCandidate(context.Background(), backendJob(), seniorCandidate())
	if d != nil {
		t.Fatalf("expected no details, got %+v", d)
	}
	if !errors.Is(err, ErrNoModelSucceeded) {
		t.Fatalf("expected ErrNoModelSucceeded, got %v", err)
	}
}

func TestRubricStrongCandidate(t *testing.T) {
	d := Rubric(backendJob(), seniorCandidate())

	assertInRange(t, &d)

	if d.SkillsMatch.Score != 100 || d.ExperienceMatch.Score != 100 {
		t.Fatalf("expected full skills and experience, got %+v", d)
	}
	if !d.ExperienceMatch.IsMatch || !d.LocationMatch.RemoteCompatible {
		t.Fatalf("expected experience and location match: %+v", d)
	}
	// 40 + 30 + 10.5 + 10 + 2 (demand bonus)
	if d.OverallScore != 92.5 {
		t.Fatalf("expected overall 92.5, got %v", d.OverallScore)
	}
	if len(d.MatchReasons) == 0 || d.Summary == "" {
		t.Fatalf("expected reasons and summary")
	}
}

func TestRubricWeakCandidate(t *testing.T) {
	candidate := portfolio.ParsedPortfolioData{
		Skills:      portfolio.Skills{All: []string{"Photoshop"}},
		Experience:  portfolio.Experience{TotalYears: 0.5, Level: portfolio.LevelEntry},
		Preferences: portfolio.Preferences{RemotePreference: portfolio.RemoteOnsite},
		Location:    "Lisbon",
	}
	req := backendJob()
	req.Industries = []string{"Fintech"}
	req.Location = "Berlin"

	d := Rubric(req, candidate)
	assertInRange(t, &d)

	if d.SkillsMatch.Score != 0 || len(d.SkillsMatch.MissingRequired) != 2 {
		t.Fatalf("unexpected skills match: %+v", d.SkillsMatch)
	}
	if d.ExperienceMatch.LevelMatch || d.ExperienceMatch.IsMatch {
		t.Fatalf("expected no experience match: %+v", d.ExperienceMatch)
	}
	if d.OverallScore >= 20 {
		t.Fatalf("expected overall below the match threshold, got %v", d.OverallScore)
	}
}

func TestRubricSkillAliases(t *testing.T) {
	candidate := seniorCandidate()
	candidate.Skills.All = []string{"Golang", "Postgres"}

	d := Rubric(backendJob(), candidate)
	if len(d.SkillsMatch.MatchedRequired) != 2 {
		t.Fatalf("expected aliases to match, got %+v", d.SkillsMatch)
	}
}

func TestScoreLocation(t *testing.T) {
	tests := []struct {
		name     string
		remoteOK bool
		jobLoc   string
		candLoc  string
		pref     portfolio.RemotePreference
		want     float64
	}{
		{name: "remote job flexible candidate", remoteOK: true, pref: portfolio.RemoteFlexible, want: 100},
		{name: "remote job onsite elsewhere", remoteOK: true, jobLoc: "Berlin", candLoc: "Paris", pref: portfolio.RemoteOnsite, want: 60},
		{name: "onsite job same city", jobLoc: "Berlin, Germany", candLoc: "Berlin", pref: portfolio.RemoteOnsite, want: 100},
		{name: "onsite job remote-only candidate", jobLoc: "Berlin", candLoc: "Paris", pref: portfolio.RemoteOnly, want: 20},
		{name: "onsite job unknown location", pref: portfolio.RemoteHybrid, want: 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := job.Requirements{RemoteOK: tt.remoteOK, Location: tt.jobLoc}
			cand := portfolio.ParsedPortfolioData{Location: tt.candLoc, Preferences: portfolio.Preferences{RemotePreference: tt.pref}}
			if got := scoreLocation(req, cand).Score; got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHeuristicImplementsScorer(t *testing.T) {
	var s Scorer = Heuristic{}
	d, err := s.ScoreCandidate(context.Background(), backendJob(), seniorCandidate())
	if err != nil || d == nil {
		t.Fatalf("unexpected result: %+v, %v", d, err)
	}
}

func TestRubricSeniorBackendCandidate(t *testing.T) {
	content := portfolio.Decode(map[string]any{
		"skills": []any{"Python", "Django", "AWS"},
		"experience": []any{
			map[string]any{"title": "Senior Backend Engineer", "company": "X", "duration": "2019-2023"},
		},
	})
	parser := &portfolio.Parser{Now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }}
	candidate := parser.Parse(content)

	req := job.Requirements{
		RequiredSkills:     []string{"Python", "AWS"},
		MinExperienceYears: 3,
		ExperienceLevel:    job.LevelSenior,
	}

	d, err := Heuristic{}.ScoreCandidate(context.Background(), req, candidate)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if d.SkillsMatch.Score != 100 {
		t.Fatalf("expected skills score 100, got %+v", d.SkillsMatch)
	}
	if !d.ExperienceMatch.IsMatch {
		t.Fatalf("expected experience match, got %+v", d.ExperienceMatch)
	}
	if d.OverallScore < 70 {
		t.Fatalf("expected overall score of at least 70, got %v", d.OverallScore)
	}
}
