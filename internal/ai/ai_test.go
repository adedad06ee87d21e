package ai

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

type stubGenerator struct {
	model    string
	response string
	err      error
	calls    int
	lastReq  Request
}

func (s *stubGenerator) GenerateContent(_ context.Context, req Request) (string, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string { return s.model }

func (s *stubGenerator) Provider() string { return "stub" }

func parseInt(raw string) (int, error) {
	return strconv.Atoi(ExtractJSON(raw))
}

func TestFirstValidFallsThroughOnErrorAndBadResponse(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)

	first := &stubGenerator{model: "primary", err: errors.New("503 unavailable")}
	second := &stubGenerator{model: "secondary", response: "not a number"}
	third := &stubGenerator{model: "tertiary", response: "```json\n42\n```"}

	res, err := FirstValid(context.Background(), []Generator{first, second, third}, Request{Prompt: "p"}, parseInt, zap.New(core))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Value != 42 || res.Model != "tertiary" {
		t.Fatalf("unexpected result: %+v", res)
	}

	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatalf("expected every model to be called once, got %d/%d/%d", first.calls, second.calls, third.calls)
	}

	if got := observed.FilterMessage("model attempt failed").Len(); got != 2 {
		t.Fatalf("expected 2 warnings, got %d", got)
	}
}

func TestFirstValidStopsAtFirstSuccess(t *testing.T) {
	first := &stubGenerator{model: "primary", response: "7"}
	second := &stubGenerator{model: "secondary", response: "8"}

	res, err := FirstValid(context.Background(), []Generator{first, second}, Request{}, parseInt, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != 7 {
		t.Fatalf("expected 7, got %d", res.Value)
	}
	if second.calls != 0 {
		t.Fatalf("expected secondary model to be skipped")
	}
}

func TestFirstValidExhausted(t *testing.T) {
	boom := errors.New("boom")
	gens := []Generator{
		&stubGenerator{model: "a", err: boom},
		&stubGenerator{model: "b", response: "{"},
	}

	_, err := FirstValid(context.Background(), gens, Request{}, parseInt, nil)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(exhausted.Attempts))
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected attempt error to be reachable through errors.Is")
	}

	var attempt *AttemptError
	if !errors.As(err, &attempt) || attempt.Model != "a" {
		t.Fatalf("expected first attempt to be for model a, got %+v", attempt)
	}
}

func TestFirstValidWithoutGenerators(t *testing.T) {
	_, err := FirstValid(context.Background(), nil, Request{}, parseInt, nil)
	if !errors.Is(err, ErrNoGenerators) {
		t.Fatalf("expected ErrNoGenerators, got %v", err)
	}
}

func TestFirstValidStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &stubGenerator{model: "a", err: context.Canceled}
	second := &stubGenerator{model: "b", response: "1"}

	_, err := FirstValid(ctx, []Generator{first, second}, Request{}, parseInt, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if second.calls != 0 {
		t.Fatalf("expected chain to stop after cancellation")
	}
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "backticks", input: "`{\"a\":1}`", want: `{"a":1}`},
		{name: "prose around", input: "Here you go: {\"a\":1} hope it helps", want: `{"a":1}`},
		{name: "array", input: " [1,2] ", want: `[1,2]`},
		{name: "nothing", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractJSON(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDecodeObjectIsLenient(t *testing.T) {
	var out struct {
		Score  float64  `json:"score"`
		Remote bool     `json:"remote_ok"`
		Skills []string `json:"skills"`
		Level  string   `json:"level"`
	}

	raw := "```json\n{\"score\": \"85\", \"remote_ok\": \"true\", \"skills\": [\"Go\"], \"level\": null, \"extra\": 1}\n```"
	if err := DecodeObject(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Score != 85 || !out.Remote || len(out.Skills) != 1 || out.Level != "" {
		t.Fatalf("unexpected decode result: %+v", out)
	}

	if err := DecodeObject("sorry, I cannot help", &out); err == nil {
		t.Fatalf("expected error for non-json response")
	}

	if err := DecodeObject("", &out); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestCoerce(t *testing.T) {
	if !CoerceBool("Yes") || CoerceBool("no") || !CoerceBool(1.0) {
		t.Fatalf("unexpected CoerceBool results")
	}

	if got := CoerceFloat(" 72.5% "); got != 72.5 {
		t.Fatalf("expected 72.5, got %v", got)
	}
	if !math.IsNaN(CoerceFloat("n/a")) || !math.IsNaN(CoerceFloat(nil)) {
		t.Fatalf("expected NaN for non numeric values")
	}

	if got := CoerceStrings([]any{"Go", " ", 3.0}); len(got) != 2 || got[1] != "3" {
		t.Fatalf("unexpected CoerceStrings result: %v", got)
	}
	if got := CoerceStrings(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestLimitedDelegates(t *testing.T) {
	stub := &stubGenerator{model: "m", response: "ok"}
	g := NewLimited(stub, rate.NewLimiter(rate.Every(time.Millisecond), 1))

	out, err := g.GenerateContent(context.Background(), Request{Prompt: "p", Temperature: 0.1})
	if err != nil || out != "ok" {
		t.Fatalf("unexpected result %q, %v", out, err)
	}
	if stub.lastReq.Temperature != 0.1 {
		t.Fatalf("expected request to be forwarded")
	}
	if g.Model() != "m" || ProviderOf(g) != "stub" {
		t.Fatalf("expected model and provider to pass through")
	}

	if NewLimited(stub, nil) != Generator(stub) {
		t.Fatalf("expected nil limiter to return generator unchanged")
	}
	if NewLimiter(0) != nil {
		t.Fatalf("expected non-positive rps to disable limiting")
	}
}

func TestLimitedHonoursContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow()

	stub := &stubGenerator{model: "m", response: "ok"}
	g := NewLimited(stub, limiter)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := g.GenerateContent(ctx, Request{}); err == nil {
		t.Fatalf("expected limiter error")
	}
	if stub.calls != 0 {
		t.Fatalf("expected generator not to be called")
	}
}
