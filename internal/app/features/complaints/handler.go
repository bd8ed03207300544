// internal/app/features/complaints/handler.go
package complaints

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/assignment"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/ratelimit"
	"github.com/dalemusser/cityfix/internal/app/system/zoneresolve"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the complaint endpoints.
type Handler struct {
	Complaints  *complaintstore.Store
	Zones       *zonestore.Store
	Resolver    *zoneresolve.Resolver
	Coordinator *assignment.Coordinator
	Audit       *auditlog.Logger
	ErrLog      *uierrors.ErrorLogger
	Log         *zap.Logger

	// Throttle limits complaint submission and voting per actor. Nil
	// disables it.
	Throttle *ratelimit.Limiter
}

// NewHandler constructs a complaints Handler bound to db.
func NewHandler(db *mongo.Database, resolver *zoneresolve.Resolver, coord *assignment.Coordinator, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Complaints:  complaintstore.New(db),
		Zones:       zonestore.New(db),
		Resolver:    resolver,
		Coordinator: coord,
		Audit:       audit,
		ErrLog:      errLog,
		Log:         logger,
	}
}
