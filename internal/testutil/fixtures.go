// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Square returns a closed axis-aligned square polygon.
func Square(x0, y0, x1, y1 float64) models.Polygon {
	return models.NewPolygon([][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}})
}

// Fixtures provides helper methods for creating test data.
// Records are inserted directly, bypassing store validation.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateCity inserts a city with the given boundary.
func (f *Fixtures) CreateCity(ctx context.Context, name string, boundary models.Polygon) models.City {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.City{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Boundary:  boundary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("cities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test city: %v", err)
	}
	return c
}

// CreateZone inserts a zone. createdAt lets tests control resolution order.
func (f *Fixtures) CreateZone(ctx context.Context, name string, cityID, deptID primitive.ObjectID, boundary models.Polygon, createdAt time.Time) models.Zone {
	f.t.Helper()

	z := models.Zone{
		ID:           primitive.NewObjectID(),
		Name:         name,
		NameCI:       text.Fold(name),
		CityID:       cityID,
		DepartmentID: deptID,
		Boundary:     boundary,
		CreatedBy:    "fixture",
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    createdAt.UTC(),
	}
	if _, err := f.db.Collection("zones").InsertOne(ctx, z); err != nil {
		f.t.Fatalf("failed to create test zone: %v", err)
	}
	return z
}

// CreateWorker inserts a worker in the given zone.
func (f *Fixtures) CreateWorker(ctx context.Context, name string, z models.Zone, assigned int, rating float64, available bool) models.Worker {
	f.t.Helper()

	now := time.Now().UTC()
	w := models.Worker{
		ID:            primitive.NewObjectID(),
		UID:           "uid-" + name,
		FullName:      name,
		Email:         name + "@workers.test",
		CityID:        z.CityID,
		DepartmentID:  z.DepartmentID,
		ZoneID:        z.ID,
		IsAvailable:   available,
		AssignedCount: assigned,
		Rating:        rating,
		Status:        models.WorkerActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.db.Collection("workers").InsertOne(ctx, w); err != nil {
		f.t.Fatalf("failed to create test worker: %v", err)
	}
	return w
}

// CreateComplaint inserts an OPEN complaint. zone may be nil for an untagged complaint.
func (f *Fixtures) CreateComplaint(ctx context.Context, title string, deptID primitive.ObjectID, zone *models.Zone, loc models.Point) models.Complaint {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Complaint{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  title + " description",
		Location:     loc,
		DepartmentID: deptID,
		Status:       models.StatusOpen,
		CreatedBy:    "citizen-1",
		Votes:        []string{},
		History: []models.HistoryEntry{{
			Actor:     "citizen-1",
			Action:    models.ActionCreated,
			ToStatus:  models.StatusOpen,
			Timestamp: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if zone != nil {
		zid, cid := zone.ID, zone.CityID
		c.ZoneID = &zid
		c.CityID = &cid
	}
	if _, err := f.db.Collection("complaints").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test complaint: %v", err)
	}
	return c
}
