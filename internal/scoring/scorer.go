package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zigzig/talent-matcher/internal/ai"
	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 1500
	systemPrompt       = "You are an experienced technical recruiter. You score candidates strictly by the rubric and answer with JSON only."
)

// ErrNoModelSucceeded means every configured model failed for a candidate.
// Callers treat it as "no score" and skip the candidate.
var ErrNoModelSucceeded = errors.New("no model produced a usable score")

var errMissingScores = errors.New("response has no match scores")

type Scorer interface {
	ScoreCandidate(ctx context.Context, req job.Requirements, candidate portfolio.ParsedPortfolioData) (*MatchDetails, error)
}

type LLMScorer struct {
	generators  []ai.Generator
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

func NewLLMScorer(generators []ai.Generator, temperature float64, maxTokens int, logger *zap.Logger) *LLMScorer {
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LLMScorer{
		generators:  generators,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

func (s *LLMScorer) ScoreCandidate(ctx context.Context, req job.Requirements, candidate portfolio.ParsedPortfolioData) (*MatchDetails, error) {
	prompt, err := buildPrompt(req, candidate)
	if err != nil {
		return nil, err
	}

	res, err := ai.FirstValid(ctx, s.generators, ai.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		JSON:        true,
	}, parseDetails, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoModelSucceeded, err)
	}

	return res.Value, nil
}

func parseDetails(raw string) (*MatchDetails, error) {
	var details MatchDetails
	if err := ai.DecodeObject(raw, &details); err != nil {
		return nil, err
	}

	var probe struct {
		Overall any `json:"overall_score"`
		Skills  any `json:"skills_match"`
	}
	if err := ai.DecodeObject(raw, &probe); err != nil {
		return nil, err
	}
	if probe.Overall == nil && probe.Skills == nil {
		return nil, errMissingScores
	}

	details.Normalize(ai.CoerceFloat(probe.Overall))
	return &details, nil
}

// candidateView leaves contact details out of the prompt.
type candidateView struct {
	Name          string                  `json:"name"`
	Title         string                  `json:"title"`
	Location      string                  `json:"location"`
	Skills        portfolio.Skills        `json:"skills"`
	Experience    portfolio.Experience    `json:"experience"`
	Education     portfolio.Education     `json:"education"`
	Preferences   portfolio.Preferences   `json:"preferences"`
	MarketProfile portfolio.MarketProfile `json:"marketProfile"`
}

func buildPrompt(req job.Requirements, candidate portfolio.ParsedPortfolioData) (string, error) {
	jobJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job requirements: %w", err)
	}

	candidateJSON, err := json.MarshalIndent(candidateView{
		Name:          candidate.Name,
		Title:         candidate.Title,
		Location:      candidate.Location,
		Skills:        candidate.Skills,
		Experience:    candidate.Experience,
		Education:     candidate.Education,
		Preferences:   candidate.Preferences,
		MarketProfile: candidate.MarketProfile,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal candidate: %w", err)
	}

	return strings.NewReplacer(
		"{{JOB_JSON}}", string(jobJSON),
		"{{CANDIDATE_JSON}}", string(candidateJSON),
	).Replace(promptTemplate), nil
}
