// internal/app/features/zones/handler.go
package zones

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"github.com/dalemusser/cityfix/internal/app/system/zoneresolve"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves zone administration and point resolution.
type Handler struct {
	DB       *mongo.Database
	Zones    *zonestore.Store
	Resolver *zoneresolve.Resolver
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

// NewHandler constructs a zones Handler bound to db.
func NewHandler(db *mongo.Database, resolver *zoneresolve.Resolver, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Zones:    zonestore.New(db),
		Resolver: resolver,
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
	}
}
