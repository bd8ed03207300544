// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Identity headers                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// The identity gateway in front of this service verifies credentials and
// forwards the resolved identity in these headers. Nothing here re-checks
// them.
const (
	HeaderUID        = "X-Actor-Uid"
	HeaderEmail      = "X-Actor-Email"
	HeaderRole       = "X-Actor-Role"
	HeaderCity       = "X-Actor-City"
	HeaderDepartment = "X-Actor-Department"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Actor helper                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentActorKey ctxKey = "currentActor"

// CurrentActor returns the actor and a “found?” flag.
func CurrentActor(r *http.Request) (models.Actor, bool) {
	return FromContext(r.Context())
}

// FromContext returns the actor stored in ctx.
func FromContext(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(currentActorKey).(models.Actor)
	return a, ok
}

// WithActor returns a copy of ctx carrying a.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, currentActorKey, a)
}

// LoadActor reads the identity headers and injects the actor into the
// request context. Requests without a UID pass through anonymously; a UID
// with a malformed scope is rejected with 400.
func LoadActor(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := strings.TrimSpace(r.Header.Get(HeaderUID))
			if uid == "" {
				next.ServeHTTP(w, r)
				return
			}

			cityID, err := optionalID(r.Header.Get(HeaderCity))
			if err != nil {
				http.Error(w, "bad city scope", http.StatusBadRequest)
				return
			}
			deptID, err := optionalID(r.Header.Get(HeaderDepartment))
			if err != nil {
				http.Error(w, "bad department scope", http.StatusBadRequest)
				return
			}
			role := models.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderRole))))

			a, err := models.NewActor(uid, strings.TrimSpace(r.Header.Get(HeaderEmail)), role, cityID, deptID)
			if err != nil {
				logger.Warn("rejecting identity headers",
					zap.String("uid", uid),
					zap.String("role", string(role)),
					zap.Error(err))
				http.Error(w, "invalid identity", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
		})
	}
}

// RequireActor ensures there is an actor in context (set by LoadActor).
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentActor(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the actor in context has one of the allowed roles.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentActor(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if _, has := set[a.Role]; !has {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func optionalID(hex string) (*primitive.ObjectID, error) {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
