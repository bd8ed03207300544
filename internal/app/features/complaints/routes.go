// internal/app/features/complaints/routes.go
package complaints

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/ratelimit"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the complaint endpoints (typically under "/complaints").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireActor)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeShow)

		throttled := pr.With(h.Throttle.Middleware(ratelimit.ActorKey, uierrors.RenderTooManyRequests))
		throttled.Post("/", h.HandleCreate)
		throttled.Post("/{id}/vote", h.HandleVote)
		throttled.Delete("/{id}/vote", h.HandleUnvote)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleCityAdmin, models.RoleDeptAdmin))
		pr.Post("/{id}/assign", h.HandleAssign)
		pr.Get("/{id}/candidates", h.ServeCandidates)
		pr.Post("/{id}/zone", h.HandleAttachZone)
		pr.Post("/{id}/notes", h.HandleAddNote)
	})

	return r
}
