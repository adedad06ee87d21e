package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles a generator. Generators sharing one limiter share its budget.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited returns g unchanged when limiter is nil.
func NewLimited(g Generator, limiter *rate.Limiter) Generator {
	if limiter == nil {
		return g
	}
	return &Limited{next: g, limiter: limiter}
}

// NewLimiter allows rps requests per second with a burst of one; rps <= 0 disables limiting.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

func (l *Limited) GenerateContent(ctx context.Context, req Request) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return l.next.GenerateContent(ctx, req)
}

func (l *Limited) Model() string { return l.next.Model() }

func (l *Limited) Provider() string { return ProviderOf(l.next) }
