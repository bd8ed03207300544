// internal/app/features/zones/zones.go
package zones

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleCreate handles POST /zones.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid zone payload", err)
		return
	}
	cityID, _ := inputval.ObjectID("city_id", req.CityID)
	deptID, _ := inputval.ObjectID("department_id", req.DepartmentID)
	if !actor.CanManage(&cityID, deptID) {
		uierrors.RenderForbidden(w, r, "you cannot manage zones of this department")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "zone create")
	defer cancel()

	z, err := h.Zones.Create(ctx, models.Zone{
		Name:         htmlsanitize.PlainText(req.Name),
		CityID:       cityID,
		DepartmentID: deptID,
		Boundary:     req.Boundary.model(),
		Color:        req.Color,
		CreatedBy:    actor.UID,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "zone create failed", storeErr(err))
		return
	}

	h.Audit.ZoneCreated(ctx, actor, z)
	uierrors.WriteJSON(w, http.StatusCreated, z)
}

// HandleUpdate handles PUT /zones/{id}. Complaints already tagged with the
// zone keep their tag when the boundary moves.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad zone id", err)
		return
	}

	var req updateRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid zone payload", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "zone update")
	defer cancel()

	cur, err := h.Zones.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "zone lookup failed", storeErr(err))
		return
	}
	if !actor.CanManage(&cur.CityID, cur.DepartmentID) {
		uierrors.RenderForbidden(w, r, "you cannot manage this zone")
		return
	}

	var boundary *models.Polygon
	if req.Boundary != nil {
		b := req.Boundary.model()
		boundary = &b
	}
	z, err := h.Zones.Update(ctx, id, htmlsanitize.PlainText(req.Name), req.Color, boundary)
	if err != nil {
		h.ErrLog.Write(w, r, "zone update failed", storeErr(err))
		return
	}

	h.Audit.ZoneUpdated(ctx, actor, z, boundary != nil)
	uierrors.WriteJSON(w, http.StatusOK, z)
}

// HandleDelete handles DELETE /zones/{id}. Complaints keep the dangling id.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad zone id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "zone delete")
	defer cancel()

	cur, err := h.Zones.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "zone lookup failed", storeErr(err))
		return
	}
	if !actor.CanManage(&cur.CityID, cur.DepartmentID) {
		uierrors.RenderForbidden(w, r, "you cannot manage this zone")
		return
	}
	if _, err := h.Zones.Delete(ctx, id); err != nil {
		h.ErrLog.Write(w, r, "zone delete failed", storeErr(err))
		return
	}

	h.Audit.ZoneDeleted(ctx, actor, id)
	w.WriteHeader(http.StatusNoContent)
}

// storeErr classifies zone store and geometry errors.
func storeErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.NotFound, err, "zone not found")
	case errors.Is(err, zonestore.ErrCityNotFound):
		// no city boundary to check containment against
		return apperr.Wrap(apperr.FailedPrecondition, err, "city not found")
	case errors.Is(err, zonestore.ErrOutsideCity):
		return apperr.Wrap(apperr.InvalidArgument, err, "%s", zonestore.ErrOutsideCity.Error())
	case errors.Is(err, zonestore.ErrNameRequired),
		errors.Is(err, geo.ErrInvalidPolygon),
		errors.Is(err, geo.ErrInvalidPoint):
		return apperr.Wrap(apperr.InvalidArgument, err, "%s", err.Error())
	}
	return apperr.Wrap(apperr.Internal, err, "A database error occurred.")
}
