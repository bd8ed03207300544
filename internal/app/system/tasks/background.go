// internal/app/system/tasks/background.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Background runs post-commit queues off the request path. Each queue gets a
// context that outlives the request that filled it but expires after the
// configured timeout. The zero value is not usable; call NewBackground.
type Background struct {
	timeout func() time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

// NewBackground returns a Background whose queues each run under the
// duration timeout returns at the moment they start.
func NewBackground(timeout func() time.Duration, logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Background{timeout: timeout, log: logger}
}

// Go takes every task out of q and runs them in a new goroutine. It returns
// immediately. Values carried by ctx stay visible to the tasks; its deadline
// and cancellation do not.
func (b *Background) Go(ctx context.Context, q *Queue) {
	if q.Len() == 0 {
		return
	}
	detached := &Queue{tasks: q.tasks}
	q.tasks = nil

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout())
		defer cancel()
		detached.Run(runCtx, b.log)
	}()
}

// Wait blocks until every started queue has finished or ctx is done. It is
// safe on a nil Background.
func (b *Background) Wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
