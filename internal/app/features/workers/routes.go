// internal/app/features/workers/routes.go
package workers

import (
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the worker endpoints (typically under "/workers").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleCityAdmin, models.RoleDeptAdmin))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/import", h.HandleImport)
		pr.Patch("/{id}/availability", h.HandleAvailability)
		pr.Patch("/{id}/status", h.HandleStatus)
	})

	return r
}
