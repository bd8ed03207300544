package zoneresolve

import (
	"context"
	"errors"
	"testing"
	"time"

	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFinder struct {
	zones []models.Zone
	err   error
}

func (f fakeFinder) FindContaining(context.Context, models.Point, primitive.ObjectID, *primitive.ObjectID) ([]models.Zone, error) {
	return f.zones, f.err
}

func TestResolve_NoMatch(t *testing.T) {
	r := New(fakeFinder{}, nil)
	z, err := r.Resolve(context.Background(), models.NewPoint(1, 1), primitive.NewObjectID(), nil)
	require.NoError(t, err)
	assert.Nil(t, z)
}

func TestResolve_InvalidPoint(t *testing.T) {
	r := New(fakeFinder{}, nil)
	_, err := r.Resolve(context.Background(), models.NewPoint(200, 0), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, geo.ErrInvalidPoint)
}

func TestResolve_StoreError(t *testing.T) {
	boom := errors.New("boom")
	r := New(fakeFinder{err: boom}, nil)
	_, err := r.Resolve(context.Background(), models.NewPoint(1, 1), primitive.NewObjectID(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestResolve_OverlapPicksFirstAndWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	older := models.Zone{ID: primitive.NewObjectID(), Name: "old"}
	newer := models.Zone{ID: primitive.NewObjectID(), Name: "new"}
	r := New(fakeFinder{zones: []models.Zone{older, newer}}, zap.New(core))

	z, err := r.Resolve(context.Background(), models.NewPoint(1, 1), primitive.NewObjectID(), nil)

	require.NoError(t, err)
	require.NotNil(t, z)
	assert.Equal(t, older.ID, z.ID)
	assert.Equal(t, 1, logs.FilterMessage("point matches overlapping zones").Len())
}

// geoFinder filters by department, city and containment like the store does
// but returns matches in insertion order, so ordering is left to Resolve.
type geoFinder struct {
	zones []models.Zone
}

func (f geoFinder) FindContaining(_ context.Context, pt models.Point, deptID primitive.ObjectID, cityID *primitive.ObjectID) ([]models.Zone, error) {
	var out []models.Zone
	for _, z := range f.zones {
		if z.DepartmentID != deptID || (cityID != nil && z.CityID != *cityID) {
			continue
		}
		if geo.Contains(z.Boundary, pt) {
			out = append(out, z)
		}
	}
	return out, nil
}

func TestResolve_TieBreak(t *testing.T) {
	dept := primitive.NewObjectID()
	city := primitive.NewObjectID()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	// ids ascend in creation order
	lowID := primitive.NewObjectIDFromTimestamp(base)
	highID := primitive.NewObjectIDFromTimestamp(base.Add(time.Second))
	zone := func(id primitive.ObjectID, name string, created time.Time, x0, x1 float64) models.Zone {
		return models.Zone{ID: id, Name: name, CityID: city, DepartmentID: dept, CreatedAt: created,
			Boundary: testutil.Square(x0, 0, x1, 10)}
	}

	tests := []struct {
		name  string
		zones []models.Zone
		pt    models.Point
		want  string
	}{
		{
			name: "older created_at wins over lower id",
			zones: []models.Zone{
				zone(lowID, "newer", base.Add(time.Hour), 0, 6),
				zone(highID, "older", base, 4, 10),
			},
			pt:   models.NewPoint(5, 5),
			want: "older",
		},
		{
			name: "equal created_at falls back to id",
			zones: []models.Zone{
				zone(highID, "high", base, 0, 6),
				zone(lowID, "low", base, 4, 10),
			},
			pt:   models.NewPoint(5, 5),
			want: "low",
		},
		{
			name: "outside the overlap only one zone matches",
			zones: []models.Zone{
				zone(highID, "west", base.Add(time.Hour), 0, 6),
				zone(lowID, "east", base, 4, 10),
			},
			pt:   models.NewPoint(1, 5),
			want: "west",
		},
		{
			name: "shared edge counts for both",
			zones: []models.Zone{
				zone(highID, "right", base.Add(time.Hour), 5, 10),
				zone(lowID, "left", base, 0, 5),
			},
			pt:   models.NewPoint(5, 5),
			want: "left",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(geoFinder{zones: tt.zones}, zap.NewNop())
			for i := 0; i < 3; i++ {
				z, err := r.Resolve(context.Background(), tt.pt, dept, &city)
				require.NoError(t, err)
				require.NotNil(t, z)
				assert.Equal(t, tt.want, z.Name)
				assert.True(t, geo.Contains(z.Boundary, tt.pt))
			}
		})
	}
}

func TestResolve_ScopeFilters(t *testing.T) {
	dept := primitive.NewObjectID()
	city := primitive.NewObjectID()
	other := models.Zone{ID: primitive.NewObjectID(), Name: "other dept", CityID: city,
		DepartmentID: primitive.NewObjectID(), Boundary: testutil.Square(0, 0, 10, 10)}
	r := New(geoFinder{zones: []models.Zone{other}}, zap.NewNop())

	z, err := r.Resolve(context.Background(), models.NewPoint(5, 5), dept, &city)
	require.NoError(t, err)
	assert.Nil(t, z)
}

// Resolving against real geometry: the resolved zone must contain the point.
func TestResolve_AgainstMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	city := fx.CreateCity(ctx, "Springfield", testutil.Square(0, 0, 10, 10))
	dept := primitive.NewObjectID()
	base := time.Now().Add(-time.Hour)
	west := fx.CreateZone(ctx, "West", city.ID, dept, testutil.Square(0, 0, 5, 10), base)
	fx.CreateZone(ctx, "East", city.ID, dept, testutil.Square(4, 0, 10, 10), base.Add(time.Minute))
	fx.CreateZone(ctx, "Other dept", city.ID, primitive.NewObjectID(), testutil.Square(0, 0, 10, 10), base)

	r := New(zonestore.New(db), zap.NewNop())
	pt := models.NewPoint(2, 3)
	z, err := r.Resolve(ctx, pt, dept, &city.ID)
	require.NoError(t, err)
	require.NotNil(t, z)
	assert.Equal(t, west.ID, z.ID)
	assert.True(t, geo.Contains(z.Boundary, pt))

	// inside the overlap both zones match; the older one wins
	z, err = r.Resolve(ctx, models.NewPoint(4.5, 5), dept, &city.ID)
	require.NoError(t, err)
	require.NotNil(t, z)
	assert.Equal(t, west.ID, z.ID)

	z, err = r.Resolve(ctx, models.NewPoint(20, 20), dept, nil)
	require.NoError(t, err)
	assert.Nil(t, z)

}
