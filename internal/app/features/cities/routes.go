// internal/app/features/cities/routes.go
package cities

import (
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the city endpoints (typically under "/cities").
// Anyone signed in can read cities; only city admins create them and
// read their summary.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireActor)
		pr.Get("/", h.ServeList)
		pr.Get("/{id}", h.ServeShow)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireRole(models.RoleCityAdmin))
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/summary", h.ServeSummary)
	})

	return r
}
