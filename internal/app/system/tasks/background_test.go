package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixed(d time.Duration) func() time.Duration {
	return func() time.Duration { return d }
}

func TestBackground_GoReturnsBeforeTasksFinish(t *testing.T) {
	b := NewBackground(fixed(time.Second), zap.NewNop())
	release := make(chan struct{})
	var ran atomic.Bool

	var q Queue
	q.Add("slow", func(context.Context) error {
		<-release
		ran.Store(true)
		return nil
	})

	start := time.Now()
	b.Go(context.Background(), &q)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, q.Len(), "tasks move to the background")
	assert.False(t, ran.Load())

	close(release)
	require.NoError(t, b.Wait(context.Background()))
	assert.True(t, ran.Load())
}

func TestBackground_SurvivesCallerCancellation(t *testing.T) {
	b := NewBackground(fixed(time.Second), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	var live atomic.Bool
	var q Queue
	q.Add("audit", func(ctx context.Context) error {
		close(started)
		time.Sleep(20 * time.Millisecond)
		live.Store(ctx.Err() == nil)
		return nil
	})

	b.Go(ctx, &q)
	<-started
	cancel()

	require.NoError(t, b.Wait(context.Background()))
	assert.True(t, live.Load(), "caller cancellation must not reach the task")
}

func TestBackground_TimeoutBoundsHungTasks(t *testing.T) {
	b := NewBackground(fixed(30*time.Millisecond), zap.NewNop())

	var q Queue
	q.Add("hung", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	b.Go(context.Background(), &q)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, b.Wait(ctx))
}

func TestBackground_WaitHonoursContext(t *testing.T) {
	b := NewBackground(fixed(time.Second), zap.NewNop())
	release := make(chan struct{})
	defer close(release)

	var q Queue
	q.Add("blocked", func(context.Context) error { <-release; return nil })
	b.Go(context.Background(), &q)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Wait(ctx), context.DeadlineExceeded)
}

func TestBackground_NilWait(t *testing.T) {
	var b *Background
	assert.NoError(t, b.Wait(context.Background()))
}
