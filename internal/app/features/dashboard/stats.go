// internal/app/features/dashboard/stats.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/store/queries/statsqueries"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeStats handles GET /dashboard/stats?department=&city=.
// Department admins default to their own department and city.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	deptID, err := inputval.OptionalObjectID("department", query.Get(r, "department"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad department", err)
		return
	}
	cityID, err := inputval.OptionalObjectID("city", query.Get(r, "city"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad city", err)
		return
	}
	if deptID == nil {
		deptID = actor.Scope.DepartmentID
	}
	if cityID == nil {
		cityID = actor.Scope.CityID
	}
	if deptID == nil {
		h.ErrLog.Write(w, r, "department missing", apperr.New(apperr.InvalidArgument, "department is required"))
		return
	}
	if !actor.CanManage(cityID, *deptID) {
		uierrors.RenderForbidden(w, r, "those statistics are outside your scope")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Stats(), h.Log, "dashboard stats")
	defer cancel()

	stats, err := statsqueries.Fetch(ctx, h.DB, statsqueries.Scope{DepartmentID: *deptID, CityID: cityID}, h.TopN)
	if err != nil {
		h.Log.Error("dashboard stats failed", zap.String("department_id", deptID.Hex()), zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, statsResponse{DepartmentID: *deptID, CityID: cityID, Stats: stats})
}

type statsResponse struct {
	DepartmentID primitive.ObjectID  `json:"department_id"`
	CityID       *primitive.ObjectID `json:"city_id,omitempty"`
	statsqueries.Stats
}
