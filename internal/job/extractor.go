package job

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/zigzig/talent-matcher/internal/ai"
	"github.com/zigzig/talent-matcher/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	defaultTemperature  = 0.1
	defaultMaxTokens    = 1500
	maxDescriptionRunes = 12000
	systemPrompt        = "You are a precise recruiting assistant. You answer with strict JSON only."
)

var ErrEmptyDescription = errors.New("job description is required")

// ExtractionError means no configured model produced usable requirements.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract job requirements: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

type Extractor struct {
	generators  []ai.Generator
	temperature float64
	maxTokens   int
	logger      *zap.Logger
}

// NewExtractor tries generators in the given order. Non-positive temperature
// and token values fall back to defaults.
func NewExtractor(generators []ai.Generator, temperature float64, maxTokens int, logger *zap.Logger) *Extractor {
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generators:  generators,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

// Extract turns a job description into requirements. A model whose response
// cannot be parsed is skipped like one that failed outright.
func (e *Extractor) Extract(ctx context.Context, description, title, company string) (*Requirements, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}

	req := ai.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(description, title, company),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		JSON:        true,
	}

	parse := func(raw string) (*Requirements, error) {
		var r Requirements
		if err := ai.DecodeObject(raw, &r); err != nil {
			return nil, err
		}
		return &r, nil
	}

	res, err := ai.FirstValid(ctx, e.generators, req, parse, e.logger)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	requirements := res.Value
	requirements.Normalize(title, company)

	e.logger.Info("extracted job requirements",
		zap.String("model", res.Model),
		zap.String("title", requirements.Title),
		zap.Int("required_skills", len(requirements.RequiredSkills)),
		zap.String("experience_level", string(requirements.ExperienceLevel)),
	)

	return requirements, nil
}

func buildPrompt(description, title, company string) string {
	description = utils.Truncate(description, maxDescriptionRunes)

	replacer := strings.NewReplacer(
		"{{TITLE}}", orNone(title),
		"{{COMPANY}}", orNone(company),
		"{{DESCRIPTION}}", description,
	)
	return replacer.Replace(promptTemplate)
}

func orNone(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "none"
	}
	return s
}
