// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"github.com/dalemusser/cityfix/internal/app/store/audit"
	complaintstore "github.com/dalemusser/cityfix/internal/app/store/complaints"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Events     *audit.Store
	Complaints *complaintstore.Store
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs an Audit Log feature handler bound to
// the given Mongo database and logger.
func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Events:     audit.New(db),
		Complaints: complaintstore.New(db),
		Log:        logger,
		ErrLog:     errLog,
	}
}
