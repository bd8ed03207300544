package auditlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/cityfix/internal/app/store/audit"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memSink struct {
	events []audit.Event
	err    error
}

func (m *memSink) Log(_ context.Context, e audit.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

var admin = models.Actor{UID: "admin-1", Role: models.RoleDeptAdmin}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	logger.Log(context.Background(), audit.Event{Action: "test"})
	logger.ComplaintAssigned(context.Background(), admin, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "manual")
}

func TestLogger_Destinations(t *testing.T) {
	tests := []struct {
		setting   string
		wantStore int
		wantZap   int
	}{
		{auditlog.All, 1, 1},
		{auditlog.DB, 1, 0},
		{auditlog.Log, 0, 1},
		{auditlog.Off, 0, 0},
		{"", 1, 1},
	}
	for _, tt := range tests {
		t.Run("setting="+tt.setting, func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			sink := &memSink{}
			l := auditlog.New(sink, zap.New(core), auditlog.Config{Assignment: tt.setting, Admin: auditlog.Off})

			l.ComplaintAssigned(context.Background(), admin, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), "automatic")

			assert.Len(t, sink.events, tt.wantStore)
			assert.Equal(t, tt.wantZap, logs.FilterMessage("audit event").Len())
		})
	}
}

func TestLogger_StoreFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := auditlog.New(&memSink{err: errors.New("disk full")}, zap.New(core), auditlog.Config{Admin: auditlog.DB})

	l.ZoneDeleted(context.Background(), admin, primitive.NewObjectID())

	assert.Equal(t, 1, logs.FilterMessage("failed to store audit event").Len())
}

func TestLogger_CarriesRequestMeta(t *testing.T) {
	sink := &memSink{}
	l := auditlog.New(sink, zap.NewNop(), auditlog.Config{})
	ctx := reqmeta.WithMeta(context.Background(), reqmeta.Meta{RequestID: "req-1", IP: "10.0.0.1"})

	cid := primitive.NewObjectID()
	wid := primitive.NewObjectID()
	l.ComplaintAssigned(ctx, admin, cid, wid, primitive.NewObjectID(), "manual")

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, audit.ActionComplaintAssigned, e.Action)
	assert.Equal(t, "admin-1", e.Actor)
	assert.Equal(t, "dept_admin", e.Role)
	assert.Equal(t, cid, *e.ComplaintID)
	assert.Equal(t, wid, *e.TargetUserID)
	assert.Equal(t, "manual", e.Details["mode"])
	assert.Equal(t, "req-1", e.Meta["request_id"])
	assert.Equal(t, "10.0.0.1", e.Meta["ip"])
}

func TestLogger_WritesToMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l := auditlog.New(store, zap.NewNop(), auditlog.Config{Assignment: auditlog.DB, Admin: auditlog.DB})
	wid := primitive.NewObjectID()
	l.WorkerAvailabilityChanged(ctx, admin, wid, false)

	events, err := store.Query(ctx, audit.QueryFilter{TargetUserID: &wid})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Details["is_available"] != "false" {
		t.Errorf("details = %v", events[0].Details)
	}
}
