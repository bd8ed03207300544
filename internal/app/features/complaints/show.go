// internal/app/features/complaints/show.go
package complaints

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeShow handles GET /complaints/{id}. The reporter's email is only shown
// to the reporter and to administrators of the complaint.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint show")
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

	if !canSeePrivate(actor, c) {
		c.ReporterEmail = ""
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}

func canSeePrivate(actor models.Actor, c models.Complaint) bool {
	return actor.UID == c.CreatedBy || actor.CanManage(c.CityID, c.DepartmentID)
}
