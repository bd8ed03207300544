// internal/app/features/dashboard/handler.go
package dashboard

import (
	uierrors "github.com/dalemusser/cityfix/internal/app/features/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB     *mongo.Database
	TopN   int
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a dashboard Handler. topN caps each ranked list.
func NewHandler(db *mongo.Database, topN int, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		TopN:   topN,
		ErrLog: errLog,
		Log:    logger,
	}
}
