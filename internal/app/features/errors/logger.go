// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/stratagate/internal/app/system/auth"
	"go.uber.org/zap"
)

// ErrorLogger logs failures with request context and writes a generic page
// that never includes the underlying error.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err at error level and responds 500 with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Error(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "Something went wrong. Please try again."
	}
	RenderError(w, r, http.StatusInternalServerError, "Server error", userMsg, backURL)
}

// LogBadRequest logs err at warn level and responds 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	e.Log.Warn(msg, e.fields(r, err)...)
	if userMsg == "" {
		userMsg = "The request could not be processed."
	}
	RenderError(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL)
}

// Record logs a failure without writing a response. Handlers that answer
// with a redirect code use it.
func (e *ErrorLogger) Record(r *http.Request, msg string, err error) {
	e.Log.Error(msg, e.fields(r, err)...)
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	return fields
}
