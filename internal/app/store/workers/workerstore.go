// internal/app/store/workers/workerstore.go
package workerstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Rating bounds.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

var (
	ErrDuplicateUID  = errors.New("a worker with this uid already exists")
	ErrInvalidRating = errors.New("rating out of range")
	ErrInvalidStatus = errors.New("invalid worker status")
	ErrNameRequired  = errors.New("worker name is required")
)

// RankOrder is the candidate order: least loaded first, then best rated,
// then _id so equal workers always come back in the same order.
var RankOrder = bson.D{
	{Key: "assigned_count", Value: 1},
	{Key: "rating", Value: -1},
	{Key: "_id", Value: 1},
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workers")}
}

// Create inserts a worker. The load counter always starts at zero.
func (s *Store) Create(ctx context.Context, w models.Worker) (models.Worker, error) {
	if strings.TrimSpace(w.FullName) == "" {
		return models.Worker{}, ErrNameRequired
	}
	if w.Rating < MinRating || w.Rating > MaxRating {
		return models.Worker{}, fmt.Errorf("%w: got %.2f", ErrInvalidRating, w.Rating)
	}
	if w.Status == "" {
		w.Status = models.WorkerActive
	}
	if !validStatus(w.Status) {
		return models.Worker{}, ErrInvalidStatus
	}

	now := time.Now().UTC()
	w.ID = primitive.NewObjectID()
	w.AssignedCount = 0
	w.CreatedAt = now
	w.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Worker{}, ErrDuplicateUID
		}
		return models.Worker{}, err
	}
	return w, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Worker, error) {
	var w models.Worker
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&w); err != nil {
		return models.Worker{}, err
	}
	return w, nil
}

// eligibleFilter matches available workers in exactly this scope.
func eligibleFilter(scope models.WorkScope) bson.M {
	return bson.M{
		"city_id":       scope.CityID,
		"department_id": scope.DepartmentID,
		"zone_id":       scope.ZoneID,
		"is_available":  true,
	}
}

// ListEligible returns up to limit available workers in scope, in RankOrder.
func (s *Store) ListEligible(ctx context.Context, scope models.WorkScope, limit int64) ([]models.Worker, error) {
	opts := options.Find().SetSort(RankOrder)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, eligibleFilter(scope), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Worker{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindEligible returns the worker when it satisfies the eligibility filter
// for scope. ok is false when the worker is missing or not eligible.
func (s *Store) FindEligible(ctx context.Context, id primitive.ObjectID, scope models.WorkScope) (models.Worker, bool, error) {
	filter := eligibleFilter(scope)
	filter["_id"] = id

	var w models.Worker
	err := s.c.FindOne(ctx, filter).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Worker{}, false, nil
	}
	if err != nil {
		return models.Worker{}, false, err
	}
	return w, true, nil
}

// SetAvailability flips the is_available flag. Returns mongo.ErrNoDocuments
// when the worker does not exist.
func (s *Store) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"is_available": available,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetStatus updates the worker record status.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if !validStatus(status) {
		return ErrInvalidStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IncrementAssigned adds one to the worker's load counter. It must only be
// called with a transaction context from the assignment coordinator; the
// write conflict on this document is what serializes concurrent assignments
// of the same worker.
func (s *Store) IncrementAssigned(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"assigned_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func validStatus(s string) bool {
	switch s {
	case models.WorkerActive, models.WorkerOnLeave, models.WorkerInactive:
		return true
	}
	return false
}

// Find runs a filtered query for the worker listing.
func (s *Store) Find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]bson.M, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Aggregate runs a pipeline for the worker listing.
func (s *Store) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []bson.M{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of workers matching filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
