// Package candidates ranks the workers eligible to take a complaint.
package candidates

import (
	"context"

	"github.com/dalemusser/cityfix/internal/domain/models"
)

// DefaultLimit is used when Config.Limit is unset.
const DefaultLimit = 5

// WorkerLister lists available workers of a scope ordered by assigned count
// ascending, rating descending, id ascending. *workerstore.Store satisfies it.
type WorkerLister interface {
	ListEligible(ctx context.Context, scope models.WorkScope, limit int64) ([]models.Worker, error)
}

// Config configures a Ranker.
type Config struct {
	Limit int
}

// Ranker produces candidate lists. It only reads.
type Ranker struct {
	workers WorkerLister
	limit   int
}

// New creates a Ranker.
func New(workers WorkerLister, cfg Config) *Ranker {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ranker{workers: workers, limit: limit}
}

// Limit returns the configured candidate list size.
func (r *Ranker) Limit() int { return r.limit }

// Rank returns at most limit candidates for scope, best first. limit <= 0
// uses the configured default. An empty list is a valid answer.
func (r *Ranker) Rank(ctx context.Context, scope models.WorkScope, limit int) ([]models.Worker, error) {
	if limit <= 0 {
		limit = r.limit
	}
	out, err := r.workers.ListEligible(ctx, scope, int64(limit))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Worker{}
	}
	return out, nil
}
