// internal/app/features/workers/import.go
package workers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/csvutil"
	"github.com/dalemusser/cityfix/internal/app/system/htmlsanitize"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

type importResponse struct {
	Created []models.Worker    `json:"created"`
	Skipped []csvutil.RowError `json:"skipped"`
}

// HandleImport handles POST /workers/import?zone_id=. The body is a CSV file,
// either raw (text/csv) or as the "file" field of a multipart form. Any
// malformed row rejects the whole file; uids that already exist are skipped.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}
	zoneID, err := inputval.ObjectID("zone_id", query.Get(r, "zone_id"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad zone id", err)
		return
	}

	body, closeBody, err := csvBody(w, r)
	if err != nil {
		h.ErrLog.Write(w, r, "csv upload unreadable", err)
		return
	}
	defer closeBody()

	parsed, err := csvutil.ParseWorkersCSV(body, csvutil.DefaultParseOptions())
	if errors.Is(err, csvutil.ErrTooManyRows) {
		h.ErrLog.Write(w, r, "csv too large", apperr.New(apperr.InvalidArgument, "a file may hold at most %d workers", csvutil.MaxRows))
		return
	}
	if err != nil {
		h.ErrLog.Write(w, r, "csv parse failed", apperr.Wrap(apperr.InvalidArgument, err, "file is not valid CSV"))
		return
	}
	if parsed.HasErrors() {
		details := make(inputval.Errors, len(parsed.Errors))
		for _, e := range parsed.Errors {
			details["line "+strconv.Itoa(e.Line)] = e.Reason
		}
		h.ErrLog.Write(w, r, "csv rows rejected", details)
		return
	}
	if len(parsed.Rows) == 0 {
		h.ErrLog.Write(w, r, "csv empty", apperr.New(apperr.InvalidArgument, "file has no worker rows"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "worker import")
	defer cancel()

	z, ok := h.managedZone(ctx, w, r, actor, zoneID)
	if !ok {
		return
	}

	resp := importResponse{Created: []models.Worker{}, Skipped: []csvutil.RowError{}}
	for _, row := range parsed.Rows {
		created, err := h.Workers.Create(ctx, models.Worker{
			UID:          row.UID,
			FullName:     htmlsanitize.PlainText(row.FullName),
			Email:        row.Email,
			CityID:       z.CityID,
			DepartmentID: z.DepartmentID,
			ZoneID:       z.ID,
			IsAvailable:  true,
			Rating:       row.Rating,
		})
		if errors.Is(err, workerstore.ErrDuplicateUID) {
			resp.Skipped = append(resp.Skipped, csvutil.RowError{Line: row.Line, UID: row.UID, Reason: "uid already exists"})
			continue
		}
		if err != nil {
			h.Log.Error("worker import stopped",
				zap.String("zone_id", z.ID.Hex()),
				zap.Int("line", row.Line),
				zap.Int("created", len(resp.Created)),
				zap.Error(err))
			h.ErrLog.Write(w, r, "worker import failed", storeErr(err))
			return
		}
		h.Audit.WorkerCreated(ctx, actor, created)
		resp.Created = append(resp.Created, created)
	}

	h.Log.Info("workers imported",
		zap.String("zone_id", z.ID.Hex()),
		zap.Int("created", len(resp.Created)),
		zap.Int("skipped", len(resp.Skipped)))
	uierrors.WriteJSON(w, http.StatusCreated, resp)
}

// csvBody returns the uploaded CSV capped at csvutil.MaxUploadSize.
func csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(csvutil.MaxUploadSize); err != nil {
			return nil, nil, apperr.Wrap(apperr.InvalidArgument, err, "upload is too large or malformed")
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, apperr.Wrap(apperr.InvalidArgument, err, "multipart upload needs a \"file\" field")
		}
		return f, func() { _ = f.Close() }, nil
	}
	return r.Body, func() {}, nil
}
