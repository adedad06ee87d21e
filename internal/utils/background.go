package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultBackgroundTimeout = 10 * time.Second

// Background runs fire-and-forget side effects. Every task gets its own
// context detached from the caller's cancellation and its own error boundary:
// failures and panics are logged, never returned.
type Background struct {
	wg      sync.WaitGroup
	logger  *zap.Logger
	timeout time.Duration
}

func NewBackground(logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Background{logger: logger, timeout: defaultBackgroundTimeout}
}

// Go schedules fn. A nil receiver runs fn synchronously.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if b == nil {
		_ = fn(context.WithoutCancel(ctx))
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("background task panicked", zap.String("task", name), zap.String("panic", fmt.Sprint(r)))
			}
		}()

		taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()

		if err := fn(taskCtx); err != nil {
			b.logger.Warn("background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every scheduled task has returned.
func (b *Background) Wait() {
	if b == nil {
		return
	}
	b.wg.Wait()
}
