// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/dalemusser/cityfix/internal/app/store/audit"
	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"github.com/dalemusser/cityfix/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off" // disabled
)

// Config holds audit logging configuration.
type Config struct {
	// Assignment controls logging for complaint assignment events.
	Assignment string
	// Admin controls logging for zone, city and worker administration.
	Admin string
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via the Sink) and structured logs (via zap).
type Logger struct {
	store  Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("action", event.Action),
		zap.String("actor", event.Actor),
		zap.String("role", event.Role),
	}
	if event.ComplaintID != nil {
		fields = append(fields, zap.String("complaint_id", event.ComplaintID.Hex()))
	}
	if event.TargetUserID != nil {
		fields = append(fields, zap.String("target_user_id", event.TargetUserID.Hex()))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if id := event.Meta["request_id"]; id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Store failures are logged and swallowed; audit never fails the caller.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAssignment:
		setting = l.config.Assignment
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	if event.Meta == nil {
		if m := reqmeta.FromContext(ctx).Map(); len(m) > 0 {
			event.Meta = m
		}
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}

	if setting == All || setting == DB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("action", event.Action),
			)
		}
	}
}

// --- Assignment Events ---

// ComplaintAssigned logs a completed assignment. mode is "manual" or "automatic".
func (l *Logger) ComplaintAssigned(ctx context.Context, actor models.Actor, complaintID, workerID primitive.ObjectID, zoneID primitive.ObjectID, mode string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryAssignment,
		Action:       audit.ActionComplaintAssigned,
		Actor:        actor.UID,
		Role:         string(actor.Role),
		ComplaintID:  &complaintID,
		TargetUserID: &workerID,
		Details: map[string]string{
			"mode":    mode,
			"zone_id": zoneID.Hex(),
		},
	})
}

// --- Admin Events ---

// CityCreated logs when a city is registered.
func (l *Logger) CityCreated(ctx context.Context, actor models.Actor, city models.City) {
	l.admin(ctx, actor, audit.ActionCityCreated, nil, nil, map[string]string{
		"city_id": city.ID.Hex(),
		"name":    city.Name,
	})
}

// ZoneCreated logs when an admin creates a zone.
func (l *Logger) ZoneCreated(ctx context.Context, actor models.Actor, z models.Zone) {
	l.admin(ctx, actor, audit.ActionZoneCreated, nil, nil, map[string]string{
		"zone_id":       z.ID.Hex(),
		"zone_name":     z.Name,
		"city_id":       z.CityID.Hex(),
		"department_id": z.DepartmentID.Hex(),
	})
}

// ZoneUpdated logs when an admin changes a zone.
func (l *Logger) ZoneUpdated(ctx context.Context, actor models.Actor, z models.Zone, boundaryChanged bool) {
	changed := "false"
	if boundaryChanged {
		changed = "true"
	}
	l.admin(ctx, actor, audit.ActionZoneUpdated, nil, nil, map[string]string{
		"zone_id":          z.ID.Hex(),
		"zone_name":        z.Name,
		"boundary_changed": changed,
	})
}

// ZoneDeleted logs when an admin deletes a zone.
func (l *Logger) ZoneDeleted(ctx context.Context, actor models.Actor, zoneID primitive.ObjectID) {
	l.admin(ctx, actor, audit.ActionZoneDeleted, nil, nil, map[string]string{
		"zone_id": zoneID.Hex(),
	})
}

// ZoneAttached logs a manual zone attachment to an untagged complaint.
func (l *Logger) ZoneAttached(ctx context.Context, actor models.Actor, complaintID, zoneID primitive.ObjectID) {
	l.admin(ctx, actor, audit.ActionZoneAttached, &complaintID, nil, map[string]string{
		"zone_id": zoneID.Hex(),
	})
}

// WorkerCreated logs when a department admin registers a worker.
func (l *Logger) WorkerCreated(ctx context.Context, actor models.Actor, w models.Worker) {
	l.admin(ctx, actor, audit.ActionWorkerCreated, nil, &w.ID, map[string]string{
		"zone_id": w.ZoneID.Hex(),
	})
}

// WorkerAvailabilityChanged logs an availability flip.
func (l *Logger) WorkerAvailabilityChanged(ctx context.Context, actor models.Actor, workerID primitive.ObjectID, available bool) {
	v := "false"
	if available {
		v = "true"
	}
	l.admin(ctx, actor, audit.ActionWorkerAvailability, nil, &workerID, map[string]string{
		"is_available": v,
	})
}

func (l *Logger) admin(ctx context.Context, actor models.Actor, action string, complaintID, target *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:     audit.CategoryAdmin,
		Action:       action,
		Actor:        actor.UID,
		Role:         string(actor.Role),
		ComplaintID:  complaintID,
		TargetUserID: target,
		Details:      details,
	})
}
