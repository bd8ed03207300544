package statsqueries

import (
	"fmt"
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBreakdown_ZeroTotal(t *testing.T) {
	b := breakdown(map[models.ComplaintStatus]int64{})

	assert.EqualValues(t, 0, b.Total)
	require.Len(t, b.ByStatus, len(models.AllStatuses))
	for _, sc := range b.ByStatus {
		assert.Zero(t, sc.Count)
		assert.Zero(t, sc.Percentage) // never NaN
	}
}

func TestBreakdown_SumsToTotal(t *testing.T) {
	b := breakdown(map[models.ComplaintStatus]int64{
		models.StatusOpen:     1,
		models.StatusResolved: 2,
		"LEGACY":              1,
	})

	var sum int64
	var pct float64
	for _, sc := range b.ByStatus {
		sum += sc.Count
		pct += sc.Percentage
	}
	assert.EqualValues(t, 4, b.Total)
	assert.Equal(t, b.Total, sum)
	assert.InDelta(t, 100, pct, 0.01)
	assert.Equal(t, models.StatusOpen, b.ByStatus[0].Status)
	assert.Equal(t, 25.0, b.ByStatus[0].Percentage)
}

func TestScopeMatch(t *testing.T) {
	dept := primitive.NewObjectID()
	city := primitive.NewObjectID()

	assert.Equal(t, bson.M{"department_id": dept}, Scope{DepartmentID: dept}.match())
	assert.Equal(t, bson.M{"department_id": dept, "city_id": city}, Scope{DepartmentID: dept, CityID: &city}.match())

	// callers extend the match; each call must hand out a fresh map
	s := Scope{DepartmentID: dept}
	m := s.match()
	m["status"] = "x"
	assert.NotContains(t, s.match(), "status")
}

func TestFetch_EmptyDepartment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s, err := Fetch(ctx, db, Scope{DepartmentID: primitive.NewObjectID()}, 0)
	require.NoError(t, err)

	assert.EqualValues(t, 0, s.Workforce.TotalWorkers)
	assert.Zero(t, s.Workforce.AvgRating)
	assert.EqualValues(t, 0, s.Status.Total)
	for _, sc := range s.Status.ByStatus {
		assert.Zero(t, sc.Percentage)
	}
	assert.Empty(t, s.TopComplaints)
	assert.Empty(t, s.TopWorkers)
	assert.Empty(t, s.BusiestZones)
}

func TestFetch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	city := fx.CreateCity(ctx, "Springfield", testutil.Square(0, 0, 10, 10))
	dept := primitive.NewObjectID()
	north := fx.CreateZone(ctx, "North", city.ID, dept, testutil.Square(0, 5, 10, 10), time.Now())
	south := fx.CreateZone(ctx, "South", city.ID, dept, testutil.Square(0, 0, 10, 5), time.Now())

	fx.CreateWorker(ctx, "n1", north, 0, 4.0, true)
	fx.CreateWorker(ctx, "n2", north, 0, 3.0, false)
	best := fx.CreateWorker(ctx, "s1", south, 2, 5.0, true)
	// other department, must be ignored
	otherDept := primitive.NewObjectID()
	otherZone := fx.CreateZone(ctx, "Elsewhere", city.ID, otherDept, testutil.Square(0, 0, 1, 1), time.Now())
	fx.CreateWorker(ctx, "x", otherZone, 0, 5.0, true)

	var northIDs []primitive.ObjectID
	for i := 0; i < 3; i++ {
		c := fx.CreateComplaint(ctx, fmt.Sprintf("north %d", i), dept, &north, models.NewPoint(1, 6))
		northIDs = append(northIDs, c.ID)
	}
	sc := fx.CreateComplaint(ctx, "south", dept, &south, models.NewPoint(1, 1))
	_, err := db.Collection("complaints").UpdateByID(ctx, sc.ID, bson.M{"$set": bson.M{"status": models.StatusResolved}})
	require.NoError(t, err)
	_, err = db.Collection("complaints").UpdateByID(ctx, northIDs[1], bson.M{"$set": bson.M{"votes": []string{"a", "b", "c"}}})
	require.NoError(t, err)
	fx.CreateComplaint(ctx, "untagged", dept, nil, models.NewPoint(1, 1))

	s, err := Fetch(ctx, db, Scope{DepartmentID: dept}, 2)
	require.NoError(t, err)

	// workforce
	assert.EqualValues(t, 3, s.Workforce.TotalWorkers)
	assert.Equal(t, 4.0, s.Workforce.AvgRating)
	require.Len(t, s.Workforce.ByZone, 2)
	assert.Equal(t, north.ID, s.Workforce.ByZone[0].ZoneID)
	assert.Equal(t, "North", s.Workforce.ByZone[0].ZoneName)
	assert.Equal(t, 3.5, s.Workforce.ByZone[0].AvgRating)

	// status
	assert.EqualValues(t, 5, s.Status.Total)
	var sum int64
	for _, row := range s.Status.ByStatus {
		sum += row.Count
		if row.Status == models.StatusOpen {
			assert.EqualValues(t, 4, row.Count)
			assert.Equal(t, 80.0, row.Percentage)
		}
	}
	assert.Equal(t, s.Status.Total, sum)

	// top complaints
	require.Len(t, s.TopComplaints, 2)
	assert.Equal(t, northIDs[1], s.TopComplaints[0].ID)
	assert.EqualValues(t, 3, s.TopComplaints[0].VoteCount)

	// top workers
	require.Len(t, s.TopWorkers, 2)
	assert.Equal(t, best.ID, s.TopWorkers[0].ID)

	// busiest zones: only north has unresolved complaints
	require.Len(t, s.BusiestZones, 1)
	assert.Equal(t, north.ID, s.BusiestZones[0].ZoneID)
	assert.Equal(t, "North", s.BusiestZones[0].ZoneName)
	assert.EqualValues(t, 3, s.BusiestZones[0].OpenComplaints)
	assert.EqualValues(t, 2, s.BusiestZones[0].Workers)

	// city narrowing to a different city yields nothing
	other := primitive.NewObjectID()
	s, err = Fetch(ctx, db, Scope{DepartmentID: dept, CityID: &other}, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 0, s.Status.Total)
}
