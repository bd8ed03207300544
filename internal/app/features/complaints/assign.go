// internal/app/features/complaints/assign.go
package complaints

import (
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleAssign handles POST /complaints/{id}/assign. An empty body or an
// empty worker_id picks the best ranked candidate.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
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

	var req assignRequest
	if r.ContentLength != 0 {
		if err := inputval.DecodeJSON(r, &req); err != nil {
			h.ErrLog.Write(w, r, "invalid assign payload", err)
			return
		}
	}
	workerID, err := inputval.OptionalObjectID("worker_id", req.WorkerID)
	if err != nil {
		h.ErrLog.Write(w, r, "bad worker id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Assign(), h.Log, "complaint assign")
	defer cancel()

	res, err := h.Coordinator.AssignWithRetry(ctx, actor, id, workerID)
	if err != nil {
		h.ErrLog.Write(w, r, "assignment failed", err)
		return
	}

	h.Log.Info("complaint assigned",
		zap.String("complaint_id", res.Complaint.ID.Hex()),
		zap.String("worker_id", res.Worker.ID.Hex()),
		zap.String("mode", res.Mode))
	uierrors.WriteJSON(w, http.StatusOK, res)
}

// ServeCandidates handles GET /complaints/{id}/candidates.
func (h *Handler) ServeCandidates(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint candidates")
	defer cancel()

	list, err := h.Coordinator.Candidates(ctx, actor, id)
	if err != nil {
		h.ErrLog.Write(w, r, "candidate ranking failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, candidatesResponse{Candidates: list})
}
