// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/strataimpact/internal/app/system/formutil"
	"github.com/dalemusser/strataimpact/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger is the handler-side error log. Every entry carries the
// request path and method.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the given message and error. A nil ErrorLogger
// discards the entry.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	if e == nil {
		return
	}
	e.logger.Error(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// LogWithFields logs an error with additional fields.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	if e == nil {
		return
	}
	all := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	e.logger.Error(msg, all...)
}

// Warn logs a failure that did not stop the request, such as a
// notification email that could not be sent.
func (e *ErrorLogger) Warn(r *http.Request, msg string, err error) {
	if e == nil {
		return
	}
	e.logger.Warn(msg,
		zap.Error(err),
		zap.String("path", r.URL.Path),
	)
}

// Handler renders the error pages.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

type errorVM struct {
	viewdata.BaseVM
	Message string
}

func render(w http.ResponseWriter, r *http.Request, status int, name, title, msg string) {
	vm := errorVM{BaseVM: viewdata.New(r).WithTitle(title), Message: msg}
	w.WriteHeader(status)
	templates.Render(w, r, name, vm)
}

// Forbidden renders the 403 page.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, "errors/forbidden", "Access Denied", "")
}

// Unauthorized renders the 401 page.
func (h *Handler) Unauthorized(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusUnauthorized, "errors/unauthorized", "Unauthorized", "")
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusNotFound, "errors/not_found", "Not Found", "")
}

// InternalError renders the 500 page with the generic retry message.
func (h *Handler) InternalError(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusInternalServerError, "errors/internal", "Server Error", formutil.GenericError)
}

// BadRequest renders a 400 page with msg.
func (h *Handler) BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render(w, r, http.StatusBadRequest, "errors/bad_request", "Bad Request", msg)
}
