package handlers

import (
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/postgram/internal/handlers/render"
	"github.com/nkiryanov/postgram/internal/logger"
)

// Log and report unexpected error, user gets no details
func internalError(w http.ResponseWriter, r *http.Request, l logger.Logger, msg string, err error) {
	l.Error(msg, "error", err, "uri", r.RequestURI)
	sentry.CaptureException(err)
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
