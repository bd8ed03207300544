// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the dashboard under "/dashboard".
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.With(auth.RequireRole(models.RoleCityAdmin, models.RoleDeptAdmin)).Get("/stats", h.ServeStats)
	return r
}
