// internal/app/features/auditlog/list.go
package auditlog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/store/audit"
	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/auth"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/timeouts"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const pageSize = 50

// ServeList handles GET /audit?complaint=&actor=&category=&action=&start_date=&end_date=&page=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentActor(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	category := strings.TrimSpace(query.Get(r, "category"))
	action := strings.TrimSpace(query.Get(r, "action"))
	if category != "" && actionsForCategory(category) == nil {
		h.ErrLog.Write(w, r, "bad audit category", apperr.New(apperr.InvalidArgument, "unknown category %q", category))
		return
	}
	if action != "" && !knownAction(category, action) {
		h.ErrLog.Write(w, r, "bad audit action", apperr.New(apperr.InvalidArgument, "unknown action %q", action))
		return
	}

	page := 1
	if p, err := strconv.Atoi(query.Get(r, "page")); err == nil && p > 0 {
		page = p
	}

	filter := audit.QueryFilter{
		Actor:    strings.TrimSpace(query.Get(r, "actor")),
		Category: category,
		Action:   action,
		Limit:    pageSize,
		Offset:   int64((page - 1) * pageSize),
	}

	complaintID, err := inputval.OptionalObjectID("complaint", query.Get(r, "complaint"))
	if err != nil {
		h.ErrLog.Write(w, r, "bad complaint id", err)
		return
	}
	filter.ComplaintID = complaintID

	if s := query.Get(r, "start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, "bad start date", apperr.New(apperr.InvalidArgument, "start_date must be YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := query.Get(r, "end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.ErrLog.Write(w, r, "bad end date", apperr.New(apperr.InvalidArgument, "end_date must be YYYY-MM-DD"))
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Second)
		filter.EndTime = &endOfDay
	}

	// Department admins read a complaint's history only inside their
	// department; otherwise they see their own actions.
	if actor.Role == models.RoleDeptAdmin {
		switch {
		case filter.ComplaintID != nil:
			c, err := h.Complaints.GetByID(ctx, *filter.ComplaintID)
			if errors.Is(err, mongo.ErrNoDocuments) {
				uierrors.RenderNotFound(w, r, "complaint not found")
				return
			}
			if err != nil {
				h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.")
				return
			}
			if !actor.CanManage(c.CityID, c.DepartmentID) {
				uierrors.RenderForbidden(w, r, "that complaint is outside your department")
				return
			}
		case filter.Actor == "" || filter.Actor == actor.UID:
			filter.Actor = actor.UID
		default:
			uierrors.RenderForbidden(w, r, "you may only browse your own actions")
			return
		}
	}

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.")
		return
	}

	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit events", zap.Error(err))
		h.ErrLog.LogServerError(w, r, "database error", err, "A database error occurred.")
		return
	}

	totalPages := int((total + pageSize - 1) / pageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	uierrors.WriteJSON(w, http.StatusOK, listResponse{
		Events:     events,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	})
}
