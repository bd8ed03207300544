// internal/app/features/zones/resolve.go
package zones

import (
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

// ServeResolve handles GET /zones/resolve?lng=&lat=&department=&city=.
// A point outside every zone answers 200 with a null zone.
func (h *Handler) ServeResolve(w http.ResponseWriter, r *http.Request) {
	lng, errLng := strconv.ParseFloat(query.Get(r, "lng"), 64)
	lat, errLat := strconv.ParseFloat(query.Get(r, "lat"), 64)
	if errLng != nil || errLat != nil {
		h.ErrLog.Write(w, r, "bad coordinates", apperr.New(apperr.InvalidArgument, "lng and lat must be numbers"))
		return
	}
	deptID, err := inputval.ObjectID("department", query.Get(r, "department"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad department", err)
		return
	}
	cityID, err := inputval.OptionalObjectID("city", query.Get(r, "city"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad city", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "zone resolve")
	defer cancel()

	z, err := h.Resolver.Resolve(ctx, models.NewPoint(lng, lat), deptID, cityID)
	if err != nil {
		h.ErrLog.Write(w, r, "zone resolve failed", storeErr(err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, resolveResponse{Zone: z})
}
