// internal/app/features/workers/workers.go
package workers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /workers. The worker takes its city and
// department from the zone it is placed in.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid worker payload", err)
		return
	}
	zoneID, _ := inputval.ObjectID("zone_id", req.ZoneID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "worker create")
	defer cancel()

	z, ok := h.managedZone(ctx, w, r, actor, zoneID)
	if !ok {
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	created, err := h.Workers.Create(ctx, models.Worker{
		UID:          strings.TrimSpace(req.UID),
		FullName:     htmlsanitize.PlainText(req.FullName),
		Email:        strings.TrimSpace(req.Email),
		CityID:       z.CityID,
		DepartmentID: z.DepartmentID,
		ZoneID:       z.ID,
		IsAvailable:  available,
		Rating:       req.Rating,
		Status:       req.Status,
	})
	if err != nil {
		h.ErrLog.Write(w, r, "worker create failed", storeErr(err))
		return
	}

	h.Audit.WorkerCreated(ctx, actor, created)
	uierrors.WriteJSON(w, http.StatusCreated, created)
}

// HandleAvailability handles PATCH /workers/{id}/availability.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	actor, wk, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	var req availabilityRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid availability payload", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "worker availability")
	defer cancel()

	if err := h.Workers.SetAvailability(ctx, wk.ID, *req.IsAvailable); err != nil {
		h.ErrLog.Write(w, r, "availability update failed", storeErr(err))
		return
	}
	h.Audit.WorkerAvailabilityChanged(ctx, actor, wk.ID, *req.IsAvailable)
	h.respondFresh(w, r, wk)
}

// HandleStatus handles PATCH /workers/{id}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	actor, wk, ok := h.loadManaged(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid status payload", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "worker status")
	defer cancel()

	if err := h.Workers.SetStatus(ctx, wk.ID, req.Status); err != nil {
		h.ErrLog.Write(w, r, "status update failed", storeErr(err))
		return
	}
	h.Log.Info("worker status changed",
		zap.String("worker_id", wk.ID.Hex()),
		zap.String("from", wk.Status),
		zap.String("to", req.Status),
		zap.String("actor", actor.UID))
	h.respondFresh(w, r, wk)
}

// loadManaged loads the worker named in the path and checks the actor's scope.
// It writes the response itself when ok is false.
func (h *Handler) loadManaged(w http.ResponseWriter, r *http.Request) (models.Actor, models.Worker, bool) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return models.Actor{}, models.Worker{}, false
	}
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad worker id", err)
		return models.Actor{}, models.Worker{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "worker lookup")
	defer cancel()

	wk, err := h.Workers.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "worker lookup failed", storeErr(err))
		return models.Actor{}, models.Worker{}, false
	}
	if !actor.CanManage(&wk.CityID, wk.DepartmentID) {
		uierrors.RenderForbidden(w, r, "you cannot manage this worker")
		return models.Actor{}, models.Worker{}, false
	}
	return actor, wk, true
}

func (h *Handler) respondFresh(w http.ResponseWriter, r *http.Request, wk models.Worker) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "worker reload")
	defer cancel()

	fresh, err := h.Workers.GetByID(ctx, wk.ID)
	if err != nil {
		h.ErrLog.Write(w, r, "worker reload failed", storeErr(err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, fresh)
}

// managedZone loads the zone a worker is placed in and checks the actor
// administers it. It writes the error response itself.
func (h *Handler) managedZone(ctx context.Context, w http.ResponseWriter, r *http.Request, actor models.Actor, zoneID primitive.ObjectID) (models.Zone, bool) {
	z, err := h.Zones.GetByID(ctx, zoneID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.Write(w, r, "zone lookup failed", apperr.New(apperr.InvalidArgument, "zone does not exist"))
		return models.Zone{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "zone lookup failed", err, "A database error occurred.")
		return models.Zone{}, false
	}
	if !actor.CanManage(&z.CityID, z.DepartmentID) {
		uierrors.RenderForbidden(w, r, "you cannot manage workers of this zone")
		return models.Zone{}, false
	}
	return z, true
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.NotFound, err, "worker not found")
	case errors.Is(err, workerstore.ErrDuplicateUID):
		return apperr.Wrap(apperr.FailedPrecondition, err, "a worker with this uid already exists")
	case errors.Is(err, workerstore.ErrNameRequired),
		errors.Is(err, workerstore.ErrInvalidRating),
		errors.Is(err, workerstore.ErrInvalidStatus):
		return apperr.Wrap(apperr.InvalidArgument, err, "%s", err.Error())
	}
	return apperr.Wrap(apperr.Internal, err, "A database error occurred.")
}
