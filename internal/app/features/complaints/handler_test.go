package complaints_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/app/features/complaints"
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/store/audit"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/assignment"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/candidates"
	"github.com/dalemusser/cityfix/internal/app/system/ratelimit"
	"github.com/dalemusser/cityfix/internal/app/system/txn"
	"github.com/dalemusser/cityfix/internal/app/system/zoneresolve"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/cityfix/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type env struct {
	db     *mongo.Database
	fx     *testutil.Fixtures
	h      *complaints.Handler
	router chi.Router
	city   models.City
	dept   primitive.ObjectID
	zone   models.Zone
	admin  models.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := zap.NewNop()
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{})
	workers := workerstore.New(db)
	coord := assignment.New(assignment.Deps{
		Complaints: complaintstore.New(db),
		Workers:    workers,
		Ranker:     candidates.New(workers, candidates.Config{}),
		Tx:         txn.NewRunner(db, logger),
		Audit:      audits,
	}, assignment.Config{CandidateLimit: candidates.DefaultLimit}, logger)

	h := complaints.NewHandler(db, zoneresolve.New(zonestore.New(db), logger), coord, audits, uierrors.NewErrorLogger(logger), logger)

	city := fx.CreateCity(ctx, "Springfield", testutil.Square(0, 0, 10, 10))
	dept := primitive.NewObjectID()
	zone := fx.CreateZone(ctx, "North", city.ID, dept, testutil.Square(0, 0, 5, 5), time.Now())
	return &env{
		db:     db,
		fx:     fx,
		h:      h,
		router: complaints.Routes(h),
		city:   city,
		dept:   dept,
		zone:   zone,
		admin:  testutil.DeptAdmin(city.ID, dept),
	}
}

func (e *env) do(req *http.Request, a models.Actor) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, testutil.WithActor(req, a))
	return rec
}

func (e *env) file(t *testing.T, title string, lng, lat float64) models.Complaint {
	t.Helper()
	body := map[string]any{
		"title":         title,
		"description":   "<b>deep</b><script>alert(1)</script>",
		"department_id": e.dept.Hex(),
		"location":      map[string]float64{"lng": lng, "lat": lat},
	}
	rec := e.do(testutil.NewJSONRequest("POST", "/", body), testutil.Citizen("c-1"))
	rec.AssertStatus(t, http.StatusCreated)
	var c models.Complaint
	if err := rec.DecodeJSON(&c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return c
}

func TestCreate_TagsZone(t *testing.T) {
	e := newEnv(t)

	c := e.file(t, "Pothole", 1, 1)
	if c.Status != models.StatusOpen {
		t.Errorf("status = %q", c.Status)
	}
	if c.ZoneID == nil || *c.ZoneID != e.zone.ID || c.CityID == nil || *c.CityID != e.city.ID {
		t.Errorf("zone snapshot missing: %+v", c)
	}
	if c.Description != "<b>deep</b>" {
		t.Errorf("description not sanitized: %q", c.Description)
	}
	if c.CreatedBy != "c-1" || c.ReporterEmail != "c-1@people.test" {
		t.Errorf("reporter not recorded: %q %q", c.CreatedBy, c.ReporterEmail)
	}

	outside := e.file(t, "Broken bench", 8, 8)
	if outside.ZoneID != nil {
		t.Errorf("expected untagged complaint, got zone %v", outside.ZoneID)
	}
}

func TestCreate_Rejects(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		body map[string]any
	}{
		{"blank title", map[string]any{"title": " ", "department_id": e.dept.Hex(), "location": map[string]float64{"lng": 1, "lat": 1}}},
		{"markup-only title", map[string]any{"title": "<i></i>", "department_id": e.dept.Hex(), "location": map[string]float64{"lng": 1, "lat": 1}}},
		{"latitude out of range", map[string]any{"title": "x", "department_id": e.dept.Hex(), "location": map[string]float64{"lng": 1, "lat": 91}}},
		{"no location", map[string]any{"title": "x", "department_id": e.dept.Hex()}},
		{"bad department", map[string]any{"title": "x", "department_id": "nope", "location": map[string]float64{"lng": 1, "lat": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", "/", tt.body), testutil.Citizen("c-1"))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestShow_HidesReporterEmail(t *testing.T) {
	e := newEnv(t)
	c := e.file(t, "Pothole", 1, 1)
	path := "/" + c.ID.Hex()

	var got models.Complaint
	rec := e.do(testutil.NewJSONRequest("GET", path, nil), testutil.Citizen("someone-else"))
	rec.AssertStatus(t, http.StatusOK)
	_ = rec.DecodeJSON(&got)
	if got.ReporterEmail != "" {
		t.Errorf("reporter email leaked to another citizen")
	}

	got = models.Complaint{}
	rec = e.do(testutil.NewJSONRequest("GET", path, nil), e.admin)
	_ = rec.DecodeJSON(&got)
	if got.ReporterEmail == "" {
		t.Errorf("admin should see reporter email")
	}

	rec = e.do(testutil.NewJSONRequest("GET", "/"+primitive.NewObjectID().Hex(), nil), e.admin)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestVote(t *testing.T) {
	e := newEnv(t)
	c := e.file(t, "Pothole", 1, 1)
	path := "/" + c.ID.Hex() + "/vote"

	var v struct {
		Changed   bool `json:"changed"`
		VoteCount int  `json:"vote_count"`
	}
	steps := []struct {
		method  string
		uid     string
		changed bool
		count   int
	}{
		{"POST", "u1", true, 1},
		{"POST", "u1", false, 1},
		{"POST", "u2", true, 2},
		{"DELETE", "u1", true, 1},
		{"DELETE", "u1", false, 1},
	}
	for i, s := range steps {
		rec := e.do(testutil.NewJSONRequest(s.method, path, nil), testutil.Citizen(s.uid))
		rec.AssertStatus(t, http.StatusOK)
		_ = rec.DecodeJSON(&v)
		if v.Changed != s.changed || v.VoteCount != s.count {
			t.Errorf("step %d: got changed=%v count=%d, want %v %d", i, v.Changed, v.VoteCount, s.changed, s.count)
		}
	}

	rec := e.do(testutil.NewJSONRequest("POST", "/"+primitive.NewObjectID().Hex()+"/vote", nil), testutil.Citizen("u1"))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestList_ScopeAndQuery(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := e.file(t, "Pothole on Main", 1, 1)
	e.file(t, "Streetlight out", 2, 2)
	other := primitive.NewObjectID()
	e.fx.CreateComplaint(ctx, "Pothole elsewhere", other, nil, models.NewPoint(1, 1))
	_, _ = complaintstore.New(e.db).Vote(ctx, a.ID, "u9")

	type listBody struct {
		Items []map[string]any `json:"items"`
		Total int64            `json:"total"`
		Limit int              `json:"limit"`
	}

	rec := e.do(testutil.NewJSONRequest("GET", "/?search=pothole", nil), e.admin)
	rec.AssertStatus(t, http.StatusOK)
	var body listBody
	_ = rec.DecodeJSON(&body)
	if body.Total != 1 || len(body.Items) != 1 || body.Items[0]["id"] != a.ID.Hex() {
		t.Fatalf("dept admin should only see own pothole, got %+v", body)
	}
	if _, ok := body.Items[0]["history"]; ok {
		t.Error("internal field returned by default")
	}

	body = listBody{}
	rec = e.do(testutil.NewJSONRequest("GET", "/?search=pothole", nil), testutil.Citizen("c-9"))
	_ = rec.DecodeJSON(&body)
	if body.Total != 2 {
		t.Errorf("citizen total = %d, want 2", body.Total)
	}

	for _, q := range []string{"/?sort=votes&status=PENDING_ASSIGN", "/?sort=votes&status=PENDING_ASSIGN&pipeline=1"} {
		body = listBody{}
		rec = e.do(testutil.NewJSONRequest("GET", q, nil), e.admin)
		rec.AssertStatus(t, http.StatusOK)
		_ = rec.DecodeJSON(&body)
		if len(body.Items) != 2 || body.Items[0]["id"] != a.ID.Hex() {
			t.Errorf("%s: expected most voted first, got %+v", q, body.Items)
		}
	}

	rec = e.do(testutil.NewJSONRequest("GET", "/?limit=5000", nil), e.admin)
	body = listBody{}
	_ = rec.DecodeJSON(&body)
	if body.Limit != 1000 {
		t.Errorf("limit = %d, want capped at 1000", body.Limit)
	}

	rec = e.do(testutil.NewJSONRequest("GET", "/?colour=red", nil), e.admin)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = e.do(testutil.NewJSONRequest("GET", "/?fields=title,reporter_email", nil), testutil.Citizen("c-9"))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestAttachZone(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := e.file(t, "Broken bench", 8, 8)
	path := "/" + c.ID.Hex() + "/zone"
	foreign := e.fx.CreateZone(ctx, "Theirs", e.city.ID, primitive.NewObjectID(), testutil.Square(5, 5, 9, 9), time.Now())

	rec := e.do(testutil.NewJSONRequest("POST", path, map[string]string{"zone_id": foreign.ID.Hex()}), e.admin)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = e.do(testutil.NewJSONRequest("POST", path, map[string]string{"zone_id": e.zone.ID.Hex()}), e.admin)
	rec.AssertStatus(t, http.StatusOK)
	var got models.Complaint
	_ = rec.DecodeJSON(&got)
	if got.ZoneID == nil || *got.ZoneID != e.zone.ID {
		t.Errorf("zone not attached: %+v", got.ZoneID)
	}

	rec = e.do(testutil.NewJSONRequest("POST", path, map[string]string{"zone_id": e.zone.ID.Hex()}), e.admin)
	rec.AssertStatus(t, http.StatusConflict)

	events, _ := audit.New(e.db).Query(ctx, audit.QueryFilter{ComplaintID: &c.ID, Action: audit.ActionZoneAttached})
	if len(events) != 1 {
		t.Errorf("expected one zone_attached audit event, got %d", len(events))
	}

	rec = e.do(testutil.NewJSONRequest("POST", path, map[string]string{"zone_id": e.zone.ID.Hex()}), testutil.Citizen("c-1"))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestAddNote(t *testing.T) {
	e := newEnv(t)

	c := e.file(t, "Graffiti", 1, 1)
	path := "/" + c.ID.Hex() + "/notes"

	rec := e.do(testutil.NewJSONRequest("POST", path, map[string]string{"note": "<i>crew</i> booked for Tuesday"}), e.admin)
	rec.AssertStatus(t, http.StatusCreated)
	var got models.Complaint
	if err := rec.DecodeJSON(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != models.StatusOpen {
		t.Errorf("status changed to %q", got.Status)
	}
	last := got.History[len(got.History)-1]
	if last.Action != models.ActionNoteAdded || last.Note != "crew booked for Tuesday" || last.Actor != e.admin.UID {
		t.Errorf("unexpected history entry: %+v", last)
	}

	tests := []struct {
		name   string
		path   string
		body   map[string]string
		actor  models.Actor
		status int
	}{
		{"blank", path, map[string]string{"note": "  "}, e.admin, http.StatusBadRequest},
		{"markup only", path, map[string]string{"note": "<script>x</script>"}, e.admin, http.StatusBadRequest},
		{"unknown complaint", "/" + primitive.NewObjectID().Hex() + "/notes", map[string]string{"note": "x"}, e.admin, http.StatusNotFound},
		{"other department", path, map[string]string{"note": "x"}, testutil.DeptAdmin(e.city.ID, primitive.NewObjectID()), http.StatusForbidden},
		{"citizen", path, map[string]string{"note": "x"}, testutil.Citizen("c-1"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(testutil.NewJSONRequest("POST", tt.path, tt.body), tt.actor)
			rec.AssertStatus(t, tt.status)
		})
	}
}

func TestCandidatesAndAssign(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	busy := e.fx.CreateWorker(ctx, "busy", e.zone, 4, 5, true)
	idle := e.fx.CreateWorker(ctx, "idle", e.zone, 1, 3, true)
	e.fx.CreateWorker(ctx, "away", e.zone, 0, 5, false)
	c := e.file(t, "Pothole", 1, 1)

	rec := e.do(testutil.NewJSONRequest("GET", "/"+c.ID.Hex()+"/candidates", nil), e.admin)
	rec.AssertStatus(t, http.StatusOK)
	var cands struct {
		Candidates []models.Worker `json:"candidates"`
	}
	_ = rec.DecodeJSON(&cands)
	if len(cands.Candidates) != 2 || cands.Candidates[0].ID != idle.ID || cands.Candidates[1].ID != busy.ID {
		t.Fatalf("unexpected candidate order %+v", cands.Candidates)
	}

	outsider := testutil.DeptAdmin(e.city.ID, primitive.NewObjectID())
	rec = e.do(testutil.NewJSONRequest("POST", "/"+c.ID.Hex()+"/assign", nil), outsider)
	rec.AssertStatus(t, http.StatusForbidden)

	testutil.RequireTransactions(t, e.db)

	rec = e.do(testutil.NewJSONRequest("POST", "/"+c.ID.Hex()+"/assign", nil), e.admin)
	rec.AssertStatus(t, http.StatusOK)
	var res assignment.Result
	_ = rec.DecodeJSON(&res)
	if res.Worker.ID != idle.ID || res.Mode != assignment.ModeAutomatic || res.Complaint.Status != models.StatusInProgress {
		t.Errorf("unexpected result %+v", res)
	}

	rec = e.do(testutil.NewJSONRequest("POST", "/"+c.ID.Hex()+"/assign", map[string]string{"worker_id": busy.ID.Hex()}), e.admin)
	rec.AssertStatus(t, http.StatusConflict)
}

func TestThrottle_LimitsSubmissionsPerActor(t *testing.T) {
	e := newEnv(t)
	e.h.Throttle = ratelimit.New(1, time.Minute)
	defer e.h.Throttle.Stop()
	e.router = complaints.Routes(e.h)

	body := map[string]any{
		"title":         "Broken light",
		"department_id": e.dept.Hex(),
		"location":      map[string]float64{"lng": 1, "lat": 1},
	}
	e.do(testutil.NewJSONRequest("POST", "/", body), testutil.Citizen("c-1")).AssertStatus(t, http.StatusCreated)

	rec := e.do(testutil.NewJSONRequest("POST", "/", body), testutil.Citizen("c-1"))
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertContains(t, "rate_limited")
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	e.do(testutil.NewJSONRequest("POST", "/", body), testutil.Citizen("c-2")).AssertStatus(t, http.StatusCreated)
	e.do(testutil.NewJSONRequest("GET", "/", nil), testutil.Citizen("c-1")).AssertStatus(t, http.StatusOK)
}
