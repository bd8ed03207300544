// internal/app/features/zones/list.go
package zones

import (
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/paging"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServeList handles GET /zones, keyset-paged by name.
// Department admins see their department; city admins see their city and may
// narrow with ?department=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	filter := bson.M{}
	switch actor.Role {
	case models.RoleDeptAdmin:
		filter["department_id"] = *actor.Scope.DepartmentID
		filter["city_id"] = *actor.Scope.CityID
	case models.RoleCityAdmin:
		if actor.Scope.CityID != nil {
			filter["city_id"] = *actor.Scope.CityID
		}
		dept, err := inputval.OptionalObjectID("department", query.Get(r, "department"))
		if err != nil {
			h.ErrLog.Write(w, r, "bad department", err)
			return
		}
		if dept != nil {
			filter["department_id"] = *dept
		}
	}

	before := query.Get(r, "before")
	after := query.Get(r, "after")
	cfg := paging.ConfigureKeyset(before, after)
	if window := cfg.KeysetWindow("name_ci"); window != nil {
		filter["$or"] = window["$or"]
	}
	findOpts := options.Find()
	cfg.ApplyToFind(findOpts, "name_ci")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "zone list")
	defer cancel()

	cur, err := h.DB.Collection("zones").Find(ctx, filter, findOpts)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error finding zones", err, "A database error occurred.")
		return
	}
	defer cur.Close(ctx)

	rows := []models.Zone{}
	if err := cur.All(ctx, &rows); err != nil {
		h.ErrLog.LogServerError(w, r, "database error decoding zones", err, "A database error occurred.")
		return
	}

	if cfg.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	page := paging.TrimPage(&rows, before, after)
	prev, next := paging.BuildCursors(rows,
		func(z models.Zone) string { return z.NameCI },
		func(z models.Zone) primitive.ObjectID { return z.ID })

	resp := listResponse{Zones: rows, Result: page}
	if page.HasPrev {
		resp.PrevCursor = prev
	}
	if page.HasNext {
		resp.NextCursor = next
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}
