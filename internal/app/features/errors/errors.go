// internal/app/features/errors/errors.go
package errors

import (
	"errors"
	"net/http"

	"github.com/dalemusser/cityfix/internal/app/system/apperr"
	"github.com/dalemusser/cityfix/internal/app/system/inputval"
	"github.com/dalemusser/cityfix/internal/app/system/reqmeta"
	"go.uber.org/zap"
)

// ErrorLogger writes JSON error responses and logs them with request context.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// Write answers with the status and body that err's code calls for.
// Validation failures carry per-field details. Internal errors are logged at
// error level and their cause is never sent to the client.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var ve inputval.Errors
	if errors.As(err, &ve) {
		e.logger().Info(msg,
			zap.String("request_id", reqmeta.FromContext(r.Context()).RequestID),
			zap.String("path", r.URL.Path),
			zap.Any("fields", map[string]string(ve)))
		writeError(w, r, http.StatusBadRequest, ErrorDetail{
			Code:    CodeValidation,
			Message: "validation failed for one or more fields",
			Details: ve,
		})
		return
	}

	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	fields := []zap.Field{
		zap.String("request_id", reqmeta.FromContext(r.Context()).RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", string(code)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		e.logger().Error(msg, fields...)
	} else {
		e.logger().Info(msg, fields...)
	}
	writeError(w, r, status, ErrorDetail{Code: string(code), Message: apperr.MessageOf(err)})
}

// LogBadRequest writes a 400 with the given client message.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, clientMsg string) {
	e.Write(w, r, msg, apperr.Wrap(apperr.InvalidArgument, err, "%s", clientMsg))
}

// LogServerError writes a 500 with the given client message.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, clientMsg string) {
	e.Write(w, r, msg, apperr.Wrap(apperr.Internal, err, "%s", clientMsg))
}

func (e *ErrorLogger) logger() *zap.Logger {
	if e == nil || e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}
