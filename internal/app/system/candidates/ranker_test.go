package candidates

import (
	"context"
	"testing"

	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingLister struct {
	gotLimit int64
}

func (l *recordingLister) ListEligible(_ context.Context, _ models.WorkScope, limit int64) ([]models.Worker, error) {
	l.gotLimit = limit
	return nil, nil
}

func TestRank_DefaultLimit(t *testing.T) {
	l := &recordingLister{}
	r := New(l, Config{})

	out, err := r.Rank(context.Background(), models.WorkScope{}, 0)

	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.EqualValues(t, DefaultLimit, l.gotLimit)
}

func TestRank_ExplicitLimitWins(t *testing.T) {
	l := &recordingLister{}
	r := New(l, Config{Limit: 7})

	_, err := r.Rank(context.Background(), models.WorkScope{}, 2)

	require.NoError(t, err)
	assert.EqualValues(t, 2, l.gotLimit)
	assert.Equal(t, 7, r.Limit())
}

func TestRank_OrderAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	city := fx.CreateCity(ctx, "Springfield", testutil.Square(0, 0, 10, 10))
	dept := primitive.NewObjectID()
	zone := fx.CreateZone(ctx, "North", city.ID, dept, testutil.Square(0, 5, 10, 10), city.CreatedAt)
	other := fx.CreateZone(ctx, "South", city.ID, dept, testutil.Square(0, 0, 10, 5), city.CreatedAt)

	busy := fx.CreateWorker(ctx, "busy", zone, 4, 5.0, true)
	lowRated := fx.CreateWorker(ctx, "low", zone, 1, 2.0, true)
	highRated := fx.CreateWorker(ctx, "high", zone, 1, 4.5, true)
	fx.CreateWorker(ctx, "away", zone, 0, 5.0, false)
	fx.CreateWorker(ctx, "elsewhere", other, 0, 5.0, true)

	r := New(workerstore.New(db), Config{})
	scope := models.WorkScope{CityID: city.ID, DepartmentID: dept, ZoneID: zone.ID}

	first, err := r.Rank(ctx, scope, 0)
	require.NoError(t, err)
	ids := func(ws []models.Worker) []primitive.ObjectID {
		out := make([]primitive.ObjectID, len(ws))
		for i, w := range ws {
			out[i] = w.ID
		}
		return out
	}
	assert.Equal(t, []primitive.ObjectID{highRated.ID, lowRated.ID, busy.ID}, ids(first))
	for _, w := range first {
		assert.True(t, w.IsAvailable)
		assert.Equal(t, zone.ID, w.ZoneID)
	}

	// ranking is a pure read
	second, err := r.Rank(ctx, scope, 0)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))

	top, err := r.Rank(ctx, scope, 1)
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{highRated.ID}, ids(top))
}
