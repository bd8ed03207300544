// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all audit log routes under the path where this
// router is mounted (typically "/audit" from bootstrap).
//
// City admins browse every event. Department admins see the history of
// complaints in their department and their own actions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleCityAdmin, models.RoleDeptAdmin))

		pr.Get("/", h.ServeList)
	})

	return r
}
