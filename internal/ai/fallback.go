package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zigzig/talent-matcher/internal/logger"
	"github.com/zigzig/talent-matcher/internal/utils"
	"go.uber.org/zap"
)

const previewLength = 200

var ErrNoGenerators = errors.New("no generators configured")

// AttemptError is a failed call or an unusable response from one model.
type AttemptError struct {
	Model string
	Err   error
}

func (e *AttemptError) Error() string { return fmt.Sprintf("model %s: %v", e.Model, e.Err) }

func (e *AttemptError) Unwrap() error { return e.Err }

// ExhaustedError is returned when every model in the chain failed.
type ExhaustedError struct {
	Attempts []error
}

func (e *ExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoGenerators.Error()
	}

	parts := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("all %d models failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

func (e *ExhaustedError) Unwrap() []error {
	if len(e.Attempts) == 0 {
		return []error{ErrNoGenerators}
	}
	return e.Attempts
}

// Result carries the parsed value and the model that produced it.
type Result[T any] struct {
	Value T
	Model string
	Raw   string
}

// FirstValid tries the generators in order. A transport error and a response
// rejected by parse both move on to the next model. The chain stops early when
// ctx is done.
func FirstValid[T any](ctx context.Context, gens []Generator, req Request, parse func(raw string) (T, error), log *zap.Logger) (*Result[T], error) {
	log = logger.WithFields(log)
	attempts := make([]error, 0, len(gens))

	for _, gen := range gens {
		if gen == nil {
			continue
		}

		genLog := logger.WithCommonFields(log, ProviderOf(gen), gen.Model())
		genLog.Debug("llm request",
			zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
			zap.String("prompt_preview", utils.Preview(req.Prompt, previewLength)),
		)

		raw, err := gen.GenerateContent(ctx, req)
		if err == nil {
			genLog.Debug("llm response",
				zap.Int("response_length", utf8.RuneCountInString(raw)),
				zap.String("response_preview", utils.Preview(raw, previewLength)),
			)

			var value T
			value, err = parse(raw)
			if err == nil {
				return &Result[T]{Value: value, Model: gen.Model(), Raw: raw}, nil
			}
			err = fmt.Errorf("parse response: %w", err)
		}

		genLog.Warn("model attempt failed", zap.Error(err))
		attempts = append(attempts, &AttemptError{Model: gen.Model(), Err: err})

		if ctxErr := ctx.Err(); ctxErr != nil {
			attempts = append(attempts, ctxErr)
			break
		}
	}

	return nil, &ExhaustedError{Attempts: attempts}
}
