// internal/app/system/tasks/queue.go
package tasks

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Task is a named side effect that runs after a unit of work commits.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue collects tasks while a transaction is in flight. Nothing runs until
// the caller invokes Run after commit; a rolled-back transaction simply drops
// the queue. A Queue is not safe for concurrent use.
type Queue struct {
	tasks []Task
}

// Add appends a task. Tasks run in insertion order.
func (q *Queue) Add(name string, run func(ctx context.Context) error) {
	q.tasks = append(q.tasks, Task{Name: name, Run: run})
}

// Len reports how many tasks are queued.
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Run executes every queued task and empties the queue. A failing or
// panicking task is logged and does not stop the rest. The number of failed
// tasks is returned.
func (q *Queue) Run(ctx context.Context, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}
	failed := 0
	for _, t := range q.tasks {
		if err := runOne(ctx, t); err != nil {
			failed++
			log.Warn("post-commit task failed",
				zap.String("task", t.Name),
				zap.Error(err))
		}
	}
	q.tasks = nil
	return failed
}

func runOne(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Run(ctx)
}
