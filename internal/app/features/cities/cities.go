// internal/app/features/cities/cities.go
package cities

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	citystore "github.com/dalemusser/cityfix/internal/app/store/cities"
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

type createRequest struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	Boundary *struct {
		Type        string         `json:"type" validate:"omitempty,eq=Polygon"`
		Coordinates [][][2]float64 `json:"coordinates" validate:"required,min=1"`
	} `json:"boundary" validate:"required"`
}

// HandleCreate handles POST /cities.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	var req createRequest
	if err := inputval.DecodeJSON(r, &req); err != nil {
		h.ErrLog.Write(w, r, "invalid city payload", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "city create")
	defer cancel()

	c, err := h.Cities.Create(ctx, models.City{
		Name:     htmlsanitize.PlainText(req.Name),
		Boundary: models.NewPolygon(req.Boundary.Coordinates...),
	})
	if err != nil {
		h.ErrLog.Write(w, r, "city create failed", storeErr(err))
		return
	}

	h.Audit.CityCreated(ctx, actor, c)
	uierrors.WriteJSON(w, http.StatusCreated, c)
}

// ServeList handles GET /cities.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "city list")
	defer cancel()

	list, err := h.Cities.List(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "city list failed", err, "A database error occurred.")
		return
	}
	if list == nil {
		list = []models.City{}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"cities": list})
}

// ServeShow handles GET /cities/{id}.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad city id", err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "city show")
	defer cancel()

	c, err := h.Cities.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Write(w, r, "city lookup failed", storeErr(err))
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, c)
}

func storeErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return apperr.Wrap(apperr.NotFound, err, "city not found")
	case errors.Is(err, citystore.ErrDuplicateCityName):
		return apperr.Wrap(apperr.FailedPrecondition, err, "a city with this name already exists")
	case errors.Is(err, citystore.ErrNameRequired), errors.Is(err, geo.ErrInvalidPolygon):
		return apperr.Wrap(apperr.InvalidArgument, err, "%s", err.Error())
	}
	return apperr.Wrap(apperr.Internal, err, "A database error occurred.")
}
