// internal/app/features/complaints/zone.go
package complaints

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleAttachZone handles POST /complaints/{id}/zone. Only untagged
// complaints can be tagged, and only with a zone of their own department.
func (h *Handler) HandleAttachZone(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad complaint id", err)
		return
	}
	var req attachZoneRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid zone payload", err)
		return
	}
	zoneID, _ := inputval.ObjectID("zone_id", req.ZoneID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint attach zone")
	defer cancel()

	c, err := h.Complaints.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "complaint not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complaint lookup failed", err, "A database error occurred.")
		return
	}
	z, err := h.Zones.GetByID(ctx, zoneID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.Write(w, r, "zone lookup failed", apperr.New(apperr.InvalidArgument, "zone does not exist"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "zone lookup failed", err, "A database error occurred.")
		return
	}
	if !actor.CanManage(&z.CityID, c.DepartmentID) {
		uierrors.RenderForbidden(w, r, "complaint is outside your scope")
		return
	}
	if z.DepartmentID != c.DepartmentID {
		h.ErrLog.Write(w, r, "zone department mismatch", apperr.New(apperr.InvalidArgument, "zone belongs to another department"))
		return
	}

	err = h.Complaints.AttachZone(ctx, id, z, actor.UID)
	if errors.Is(err, complaintstore.ErrAlreadyTagged) {
		h.ErrLog.Write(w, r, "complaint already tagged", apperr.Wrap(apperr.FailedPrecondition, err, "complaint already has a zone"))
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "attach zone failed", err, "A database error occurred.")
		return
	}

	h.Audit.ZoneAttached(ctx, actor, id, z.ID)

	updated, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complaint reload failed", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, updated)
}
