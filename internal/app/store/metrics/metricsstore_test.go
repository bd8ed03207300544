package metricsstore_test

import (
	"testing"
	"time"

	metricsstore "github.com/dalemusser/cityfix/internal/app/store/metrics"
	"github.com/dalemusser/cityfix/internal/app/system/indexes"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestFetchCityCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchCityCounts(ctx, db, primitive.NewObjectID(), zap.NewNop())
	if counts != (metricsstore.Counts{}) {
		t.Errorf("expected all zero, got %+v", counts)
	}
}

func TestFetchCityCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	city := fixtures.CreateCity(ctx, "Springfield", testutil.Square(0, 0, 10, 10))
	other := fixtures.CreateCity(ctx, "Shelbyville", testutil.Square(20, 20, 30, 30))
	dept := primitive.NewObjectID()

	north := fixtures.CreateZone(ctx, "North", city.ID, dept, testutil.Square(0, 0, 5, 5), time.Now())
	fixtures.CreateZone(ctx, "South", city.ID, dept, testutil.Square(5, 5, 10, 10), time.Now())
	far := fixtures.CreateZone(ctx, "Far", other.ID, dept, testutil.Square(20, 20, 25, 25), time.Now())

	fixtures.CreateWorker(ctx, "Ann", north, 0, 4, true)
	fixtures.CreateWorker(ctx, "Bob", north, 0, 3, false)
	fixtures.CreateWorker(ctx, "Cy", far, 0, 3, true)

	fixtures.CreateComplaint(ctx, "Pothole", dept, &north, models.NewPoint(1, 1))
	done := fixtures.CreateComplaint(ctx, "Light", dept, &north, models.NewPoint(2, 2))
	if _, err := db.Collection("complaints").UpdateByID(ctx, done.ID, bson.M{"$set": bson.M{"status": models.StatusResolved}}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	fixtures.CreateComplaint(ctx, "Untagged inside", dept, nil, models.NewPoint(7, 1))
	fixtures.CreateComplaint(ctx, "Untagged elsewhere", dept, nil, models.NewPoint(50, 50))

	got := metricsstore.FetchCityCounts(ctx, db, city.ID, zap.NewNop())
	want := metricsstore.Counts{
		Zones:            2,
		Workers:          2,
		AvailableWorkers: 1,
		Complaints:       2,
		UnresolvedCount:  1,
		UntaggedCount:    1,
	}
	if got != want {
		t.Errorf("counts = %+v, want %+v", got, want)
	}
}
