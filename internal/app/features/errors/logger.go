package errors

import (
	"net/http"

	"github.com/dalemusser/councilhub/internal/app/system/viewdata"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorLogger logs a handler failure with request context and shows the
// user a friendly page instead of the raw error.
type ErrorLogger struct {
	Log  *zap.Logger
	Site viewdata.SiteSource
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// WithSite returns a copy that shows the organization name on error pages.
func (e *ErrorLogger) WithSite(site viewdata.SiteSource) *ErrorLogger {
	cp := *e
	cp.Site = site
	return &cp
}

// LogServerError logs err at error level and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log(zap.ErrorLevel, r, logMsg, err)
	e.respond(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log(zap.WarnLevel, r, logMsg, err)
	e.respond(w, r, http.StatusBadRequest, "Invalid request", userMsg, backURL)
}

// LogForbidden logs err at warn level and renders a 403 page.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log(zap.WarnLevel, r, logMsg, err)
	e.respond(w, r, http.StatusForbidden, "Access denied", userMsg, backURL)
}

func (e *ErrorLogger) log(level zapcore.Level, r *http.Request, msg string, err error) {
	if e == nil || e.Log == nil {
		return
	}
	if ce := e.Log.Check(level, msg); ce != nil {
		ce.Write(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
}

// respond answers HTMX requests with a short text body the page can swap
// in, and full navigations with the error page.
func (e *ErrorLogger) respond(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Reswap", "innerHTML")
		http.Error(w, userMsg, status)
		return
	}
	var site viewdata.SiteSource
	if e != nil {
		site = e.Site
	}
	if backURL == "" {
		backURL = "/"
	}
	render(w, r, site, status, title, userMsg, backURL)
}
