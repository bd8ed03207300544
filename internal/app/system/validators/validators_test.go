package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/validators"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"cities", "zones", "workers", "complaints", "audit_events"} {
		if !have[want] {
			t.Errorf("expected collection %q to exist", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	square := testutil.Square(0, 0, 1, 1)
	now := time.Now()
	id := primitive.NewObjectID

	worker := func(mut func(bson.M)) bson.M {
		d := bson.M{
			"uid": "w-" + id().Hex(), "full_name": "Ana",
			"city_id": id(), "department_id": id(), "zone_id": id(),
			"is_available": true, "assigned_count": 0, "rating": 4.5, "status": models.WorkerActive,
		}
		if mut != nil {
			mut(d)
		}
		return d
	}
	complaint := func(mut func(bson.M)) bson.M {
		d := bson.M{
			"title": "Pothole", "location": models.NewPoint(1, 1), "department_id": id(),
			"status": models.StatusOpen, "created_by": "c-1", "votes": bson.A{}, "history": bson.A{},
			"created_at": now,
		}
		if mut != nil {
			mut(d)
		}
		return d
	}

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"valid city", "cities", bson.M{"name": "Springfield", "name_ci": "springfield", "boundary": square}, false},
		{"city without boundary", "cities", bson.M{"name": "X", "name_ci": "x"}, true},
		{"city with point boundary", "cities", bson.M{"name": "X", "name_ci": "x", "boundary": models.NewPoint(1, 1)}, true},
		{"valid zone", "zones", bson.M{"name": "North", "city_id": id(), "department_id": id(), "boundary": square, "created_at": now}, false},
		{"zone blank name", "zones", bson.M{"name": "  ", "city_id": id(), "department_id": id(), "boundary": square, "created_at": now}, true},
		{"valid worker", "workers", worker(nil), false},
		{"worker negative count", "workers", worker(func(d bson.M) { d["assigned_count"] = -1 }), true},
		{"worker rating too high", "workers", worker(func(d bson.M) { d["rating"] = 7.0 }), true},
		{"worker bad status", "workers", worker(func(d bson.M) { d["status"] = "retired" }), true},
		{"valid complaint", "complaints", complaint(nil), false},
		{"complaint bad status", "complaints", complaint(func(d bson.M) { d["status"] = "CLOSED" }), true},
		{"complaint duplicate voter", "complaints", complaint(func(d bson.M) { d["votes"] = bson.A{"u1", "u1"} }), true},
		{"complaint missing location", "complaints", complaint(func(d bson.M) { delete(d, "location") }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Errorf("expected validation error inserting into %s", tt.coll)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
