// internal/app/features/workers/handler.go
package workers

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	workerstore "github.com/dalemusser/cityfix/internal/app/store/workers"
	zonestore "github.com/dalemusser/cityfix/internal/app/store/zones"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves worker administration.
type Handler struct {
	Workers *workerstore.Store
	Zones   *zonestore.Store
	Audit   *auditlog.Logger
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

// NewHandler constructs a workers Handler bound to db.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Workers: workerstore.New(db),
		Zones:   zonestore.New(db),
		Audit:   audit,
		ErrLog:  errLog,
		Log:     logger,
	}
}
