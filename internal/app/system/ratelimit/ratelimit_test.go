package ratelimit

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(l *Limiter, t time.Time) *time.Time {
	now := t
	l.now = func() time.Time { return now }
	return &now
}

func TestAllow_WindowResets(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()
	now := fixedClock(l, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Equal(t, 0, l.Remaining("a"))
	assert.True(t, l.Allow("b"), "keys are independent")

	*now = now.Add(61 * time.Second)
	assert.Equal(t, 2, l.Remaining("a"))
	assert.True(t, l.Allow("a"))
}

func TestNilLimiter_AllowsEverything(t *testing.T) {
	var l *Limiter
	assert.True(t, l.Allow("x"))
	assert.Equal(t, math.MaxInt, l.Remaining("x"))
	assert.Zero(t, l.retryAfter("x"))
	l.Stop()

	called := false
	h := l.Middleware(ActorKey, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil))
	assert.True(t, called)
}

func TestStop_Idempotent(t *testing.T) {
	l := New(1, time.Second)
	l.Stop()
	l.Stop()
}

func TestActorKey(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req = req.WithContext(reqmeta.WithMeta(req.Context(), reqmeta.Meta{IP: "10.0.0.9"}))
	assert.Equal(t, "ip:10.0.0.9", ActorKey(req))

	a, err := models.NewActor("c-1", "", models.RoleCitizen, nil, nil)
	require.NoError(t, err)
	req = req.WithContext(auth.WithActor(req.Context(), a))
	assert.Equal(t, "uid:c-1", ActorKey(req))
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()
	fixedClock(l, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })
	reject := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }
	h := l.Middleware(func(*http.Request) string { return "k" }, reject)(ok)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
