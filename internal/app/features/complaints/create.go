// internal/app/features/complaints/create.go
package complaints

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/geo"
	"github.com/dalemusser/cityfix/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /complaints. The complaint is tagged with the
// department zone containing its location; a location outside every zone
// yields an untagged complaint that an admin can tag later.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid complaint payload", err)
		return
	}
	deptID, _ := inputval.ObjectID("department_id", req.DepartmentID)
	cityID, _ := inputval.OptionalObjectID("city_id", req.CityID)

	title := htmlsanitize.PlainText(req.Title)
	if title == "" {
		h.ErrLog.Write(w, r, "invalid complaint payload", inputval.Errors{"title": "is required"})
		return
	}
	c := models.Complaint{
		Title:         title,
		Description:   htmlsanitize.Sanitize(req.Description),
		Address:       htmlsanitize.PlainText(req.Address),
		Location:      models.NewPoint(req.Location.Lng, req.Location.Lat),
		DepartmentID:  deptID,
		CreatedBy:     actor.UID,
		ReporterEmail: strings.TrimSpace(actor.Email),
	}
	for _, a := range req.Attachments {
		c.Attachments = append(c.Attachments, models.Attachment{URL: a.URL, ContentType: a.ContentType})
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint create")
	defer cancel()

	zone, err := h.Resolver.Resolve(ctx, c.Location, deptID, cityID)
	if err != nil {
		if errors.Is(err, geo.ErrInvalidPoint) {
			h.ErrLog.Write(w, r, "invalid complaint location", apperr.Wrap(apperr.InvalidArgument, err, "%s", err.Error()))
			return
		}
		h.ErrLog.LogServerError(w, r, "zone resolve failed", err, "A database error occurred.")
		return
	}

	created, err := h.Complaints.Create(ctx, c, zone)
	if err != nil {
		if errors.Is(err, complaintstore.ErrTitleRequired) {
			h.ErrLog.LogBadRequest(w, r, "invalid complaint payload", err, "title is required")
			return
		}
		h.ErrLog.LogServerError(w, r, "complaint create failed", err, "A database error occurred.")
		return
	}

	if zone == nil {
		h.Log.Info("complaint filed outside every zone",
			zap.String("complaint_id", created.ID.Hex()),
			zap.String("department_id", deptID.Hex()))
	}
	uierrors.WriteJSON(w, http.StatusCreated, created)
}
