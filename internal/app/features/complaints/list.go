// internal/app/features/complaints/list.go
package complaints

import (
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/querybuilder"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
)

// keyPipeline forces the aggregation rendering of a list query.
const keyPipeline = "pipeline"

// ServeList handles GET /complaints.
//
// Query keys are checked against querybuilder.ComplaintSchema, for example
// status=PENDING_ASSIGN&search=pothole&sort=votes,-created_at&fields=title,status&page=2&limit=20.
// Administrators are limited to their scope; citizens see every complaint but
// never the internal fields.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	values := r.URL.Query()
	usePipeline := values.Get(keyPipeline) == "true" || values.Get(keyPipeline) == "1"
	values.Del(keyPipeline)

	if !actor.IsAdmin() && requestsInternal(values.Get(querybuilder.KeyFields)) {
		h.ErrLog.Write(w, r, "internal fields requested", apperr.New(apperr.PermissionDenied, "those fields are not available to you"))
		return
	}

	b := querybuilder.FromValues(querybuilder.ComplaintSchema, values).Where(scopeFilter(actor))
	if err := b.Err(); err != nil {
		h.ErrLog.Write(w, r, "bad complaint query", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "complaint list")
	defer cancel()

	rows, err := b.Run(ctx, h.Complaints, usePipeline)
	if err != nil {
		h.ErrLog.Write(w, r, "complaint list failed", err)
		return
	}
	total, err := h.Complaints.Count(ctx, b.FilterDoc())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complaint count failed", err, "A database error occurred.")
		return
	}

	querybuilder.ExposeIDs(rows)
	page := b.Page()
	uierrors.WriteJSON(w, http.StatusOK, listResponse{Items: rows, Page: page.Number, Limit: page.Limit, Total: total})
}

// scopeFilter limits administrators to the complaints they manage.
func scopeFilter(a models.Actor) bson.M {
	switch a.Role {
	case models.RoleDeptAdmin, models.RoleWorker:
		if a.Scope.DepartmentID != nil {
			return bson.M{"department_id": *a.Scope.DepartmentID}
		}
	case models.RoleCityAdmin:
		if a.Scope.CityID != nil {
			return bson.M{"city_id": *a.Scope.CityID}
		}
	}
	return nil
}

func requestsInternal(fields string) bool {
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimSpace(f)
		for _, internal := range querybuilder.ComplaintSchema.Internal {
			if f == internal {
				return true
			}
		}
	}
	return false
}
