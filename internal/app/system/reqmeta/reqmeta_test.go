package reqmeta_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"github.com/google/uuid"
)

func run(req *http.Request) (reqmeta.Meta, *httptest.ResponseRecorder) {
	var got reqmeta.Meta
	h := reqmeta.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = reqmeta.FromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestMiddleware_AssignsRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	m, rec := run(req)

	if _, err := uuid.Parse(m.RequestID); err != nil {
		t.Errorf("expected uuid request id, got %q", m.RequestID)
	}
	if rec.Header().Get(reqmeta.HeaderRequestID) != m.RequestID {
		t.Error("request id not echoed")
	}
	if m.IP != "203.0.113.9" {
		t.Errorf("IP = %q", m.IP)
	}
}

func TestMiddleware_KeepsUpstreamID(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(reqmeta.HeaderRequestID, id)
	m, _ := run(req)
	if m.RequestID != id {
		t.Errorf("RequestID = %q, want %q", m.RequestID, id)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(reqmeta.HeaderRequestID, "not-a-uuid")
	m, _ = run(req)
	if m.RequestID == "not-a-uuid" {
		t.Error("malformed upstream id should be replaced")
	}
}

func TestMeta_Map_SkipsEmpty(t *testing.T) {
	m := reqmeta.Meta{RequestID: "r"}.Map()
	if len(m) != 1 || m["request_id"] != "r" {
		t.Errorf("Map = %v", m)
	}
}
