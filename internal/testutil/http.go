// internal/testutil/http.go
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeptAdmin returns a department admin actor for the given scope.
func DeptAdmin(cityID, deptID primitive.ObjectID) models.Actor {
	a, _ := models.NewActor("admin-"+deptID.Hex()[:6], "admin@city.test", models.RoleDeptAdmin, &cityID, &deptID)
	return a
}

// Citizen returns a citizen actor.
func Citizen(uid string) models.Actor {
	a, _ := models.NewActor(uid, uid+"@people.test", models.RoleCitizen, nil, nil)
	return a
}

// CityAdmin returns a city admin actor.
func CityAdmin(cityID primitive.ObjectID) models.Actor {
	a, _ := models.NewActor("cityadmin-"+cityID.Hex()[:6], "cityadmin@city.test", models.RoleCityAdmin, &cityID, nil)
	return a
}

// WithActor adds an actor to the request context, bypassing the header middleware.
func WithActor(r *http.Request, a models.Actor) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), a))
}

// NewJSONRequest creates a request with a JSON-encoded body.
func NewJSONRequest(method, target string, body any) *http.Request {
	var rdr io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body.Bytes(), v)
}
