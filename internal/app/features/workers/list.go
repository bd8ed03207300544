// internal/app/features/workers/list.go
package workers

import (
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/querybuilder"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// ServeList handles GET /workers with the same query keys as the complaint
// list, checked against querybuilder.WorkerSchema.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	b := querybuilder.FromValues(querybuilder.WorkerSchema, r.URL.Query()).Where(scopeFilter(actor))
	if err := b.Err(); err != nil {
		h.ErrLog.Write(w, r, "bad worker query", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "worker list")
	defer cancel()

	rows, err := b.Run(ctx, h.Workers, false)
	if err != nil {
		h.ErrLog.Write(w, r, "worker list failed", err)
		return
	}
	total, err := h.Workers.Count(ctx, b.FilterDoc())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "worker count failed", err, "A database error occurred.")
		return
	}
	querybuilder.ExposeIDs(rows)
	page := b.Page()
	uierrors.WriteJSON(w, http.StatusOK, listResponse{Items: rows, Page: page.Number, Limit: page.Limit, Total: total})
}

func scopeFilter(a models.Actor) bson.M {
	switch {
	case a.Role == models.RoleDeptAdmin && a.Scope.DepartmentID != nil:
		return bson.M{"department_id": *a.Scope.DepartmentID}
	case a.Role == models.RoleCityAdmin && a.Scope.CityID != nil:
		return bson.M{"city_id": *a.Scope.CityID}
	}
	return nil
}
