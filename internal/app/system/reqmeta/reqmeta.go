// internal/app/system/reqmeta/reqmeta.go
package reqmeta

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID is honored when an upstream proxy already assigned an id.
const HeaderRequestID = "X-Request-ID"

// Meta is the request context recorded with audit events.
type Meta struct {
	RequestID string
	IP        string
	UserAgent string
}

// Map returns the non-empty fields keyed the way audit events store them.
func (m Meta) Map() map[string]string {
	out := map[string]string{}
	if m.RequestID != "" {
		out["request_id"] = m.RequestID
	}
	if m.IP != "" {
		out["ip"] = m.IP
	}
	if m.UserAgent != "" {
		out["user_agent"] = m.UserAgent
	}
	return out
}

type ctxKey struct{}

// FromContext returns the Meta stored by Middleware, or the zero Meta.
func FromContext(ctx context.Context) Meta {
	m, _ := ctx.Value(ctxKey{}).(Meta)
	return m
}

// WithMeta returns a copy of ctx carrying m.
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// Middleware assigns a request id, echoes it in the response and stores the
// request's Meta in its context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		m := Meta{
			RequestID: id,
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
		}
		next.ServeHTTP(w, r.WithContext(WithMeta(r.Context(), m)))
	})
}

// clientIP extracts the client IP from the request.
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
