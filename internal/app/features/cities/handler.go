// internal/app/features/cities/handler.go
package cities

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	citystore "github.com/dalemusser/cityfix/internal/app/store/cities"
	"github.com/dalemusser/cityfix/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	Cities *citystore.Store
	Audit  *auditlog.Logger
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a cities Handler bound to db.
func NewHandler(db *mongo.Database, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Cities: citystore.New(db),
		Audit:  audit,
		ErrLog: errLog,
		Log:    logger,
	}
}
