package groq

import (
	"context"
	"errors"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"github.com/zigzig/talent-matcher/internal/ai"
)

type fakeChat struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	resp     *llms.ContentResponse
	err      error
}

func (f *fakeChat) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, f.err
}

func TestGeneratorBuildsChatRequest(t *testing.T) {
	chat := &fakeChat{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " {\"ok\":true} "}}}}
	client := &Client{llm: chat}
	g := client.Model("llama-3.3-70b-versatile")

	out, err := g.GenerateContent(context.Background(), ai.Request{
		System:      "score candidates",
		Prompt:      "job and candidate",
		Temperature: 0.1,
		MaxTokens:   1500,
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out != `{"ok":true}` {
		t.Fatalf("unexpected output: %q", out)
	}

	if len(chat.messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(chat.messages))
	}
	if chat.messages[0].Role != llms.ChatMessageTypeSystem || chat.messages[1].Role != llms.ChatMessageTypeHuman {
		t.Fatalf("unexpected roles: %s, %s", chat.messages[0].Role, chat.messages[1].Role)
	}

	if chat.opts.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model option: %q", chat.opts.Model)
	}
	if chat.opts.Temperature != 0.1 || chat.opts.MaxTokens != 1500 || !chat.opts.JSONMode {
		t.Fatalf("unexpected call options: %+v", chat.opts)
	}

	if g.Model() != "llama-3.3-70b-versatile" || ai.ProviderOf(g) != Provider {
		t.Fatalf("unexpected model identity")
	}
}

func TestGeneratorErrors(t *testing.T) {
	tests := []struct {
		name  string
		chat  *fakeChat
		model string
		req   ai.Request
	}{
		{name: "transport", chat: &fakeChat{err: errors.New("429 too many requests")}, model: "m", req: ai.Request{Prompt: "p"}},
		{name: "no choices", chat: &fakeChat{resp: &llms.ContentResponse{}}, model: "m", req: ai.Request{Prompt: "p"}},
		{name: "empty content", chat: &fakeChat{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: " "}}}}, model: "m", req: ai.Request{Prompt: "p"}},
		{name: "empty prompt", chat: &fakeChat{}, model: "m", req: ai.Request{Prompt: " "}},
		{name: "no model", chat: &fakeChat{}, model: "", req: ai.Request{Prompt: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := (&Client{llm: tt.chat}).Model(tt.model)
			if _, err := g.GenerateContent(context.Background(), tt.req); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}
