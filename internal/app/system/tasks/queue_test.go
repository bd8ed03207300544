package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestQueue_RunsInOrder(t *testing.T) {
	var q Queue
	var got []string
	q.Add("a", func(context.Context) error { got = append(got, "a"); return nil })
	q.Add("b", func(context.Context) error { got = append(got, "b"); return nil })

	failed := q.Run(context.Background(), zap.NewNop())

	assert.Equal(t, 0, failed)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FailuresDoNotStopLaterTasks(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var q Queue
	ran := false
	q.Add("boom", func(context.Context) error { panic("kaboom") })
	q.Add("err", func(context.Context) error { return errors.New("smtp down") })
	q.Add("ok", func(context.Context) error { ran = true; return nil })

	failed := q.Run(context.Background(), zap.New(core))

	assert.Equal(t, 2, failed)
	assert.True(t, ran)
	assert.Equal(t, 2, logs.FilterMessage("post-commit task failed").Len())
}
