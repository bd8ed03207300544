// internal/app/features/complaints/notes.go
package complaints

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleAddNote handles POST /complaints/{id}/notes. The note is appended to
// the complaint's history; the status is left alone.
func (h *Handler) HandleAddNote(w http.ResponseWriter, r *http.Request) {
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
	var req noteRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid note payload", err)
		return
	}
	note := htmlsanitize.PlainText(req.Note)
	if note == "" {
		h.ErrLog.Write(w, r, "empty note", apperr.New(apperr.InvalidArgument, "note is empty after removing markup"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint add note")
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
	if !actor.CanManage(c.CityID, c.DepartmentID) {
		uierrors.RenderForbidden(w, r, "complaint is outside your scope")
		return
	}

	entry := models.HistoryEntry{Actor: actor.UID, Action: models.ActionNoteAdded, Note: note}
	if err := h.Complaints.AppendHistory(ctx, id, entry); err != nil {
		h.ErrLog.LogServerError(w, r, "append note failed", err, "A database error occurred.")
		return
	}

	updated, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complaint reload failed", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, updated)
}
