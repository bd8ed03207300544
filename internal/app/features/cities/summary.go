// internal/app/features/cities/summary.go
package cities

import (
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	metricsstore "github.com/dalemusser/cityfix/internal/app/store/metrics"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type summaryResponse struct {
	City   models.City         `json:"city"`
	Counts metricsstore.Counts `json:"counts"`
}

// ServeSummary handles GET /cities/{id}/summary for the city's admins.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad city id", err)
		return
	}
	if actor.Scope.CityID != nil && *actor.Scope.CityID != id {
		uierrors.RenderForbidden(w, r, "that city is outside your scope")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "city summary")
	defer cancel()

	c, err := h.Cities.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "city lookup failed", storeErr(err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, summaryResponse{
		City:   c,
		Counts: metricsstore.FetchCityCounts(ctx, h.DB, id, h.Log),
	})
}
