// internal/app/features/complaints/vote.go
package complaints

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleVote handles POST /complaints/{id}/vote. Voting twice is a no-op.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	h.changeVote(w, r, h.Complaints.Vote)
}

// HandleUnvote handles DELETE /complaints/{id}/vote.
func (h *Handler) HandleUnvote(w http.ResponseWriter, r *http.Request) {
	h.changeVote(w, r, h.Complaints.Unvote)
}

func (h *Handler) changeVote(w http.ResponseWriter, r *http.Request, op func(context.Context, primitive.ObjectID, string) (bool, error)) {
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "complaint vote")
	defer cancel()

	changed, err := op(ctx, id, actor.UID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		uierrors.RenderNotFound(w, r, "complaint not found")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "vote update failed", err, "A database error occurred.")
		return
	}
	c, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complaint reload failed", err, "A database error occurred.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, voteResponse{Changed: changed, VoteCount: c.VoteCount()})
}
