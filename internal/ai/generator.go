package ai

import (
	"context"
)

// Request is a single text completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	// JSON asks the backend for a JSON-only response when it supports that.
	JSON bool
}

// Generator is one model of one provider.
type Generator interface {
	GenerateContent(ctx context.Context, req Request) (string, error)
	Model() string
}

// ProviderOf returns the provider name of g when it reports one.
func ProviderOf(g Generator) string {
	if p, ok := g.(interface{ Provider() string }); ok {
		return p.Provider()
	}
	return ""
}
