// internal/app/features/zones/routes.go
package zones

import (
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the zone endpoints (typically under "/zones").
// Resolution is open to any actor; changes need an administrator.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireActor)
		pr.Get("/resolve", h.ServeResolve)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleCityAdmin, models.RoleDeptAdmin))
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})

	return r
}
