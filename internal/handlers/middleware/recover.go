package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/nkiryanov/postgram/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// Recover from handler panics: report to sentry, log and answer 500
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Let net/http abort the response as it does by default
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				stack := string(debug.Stack())

				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", stack)
					scope.SetRequest(r)
					sentry.CaptureMessage("panic in request")
				})

				l.Error("panic recovered",
					"method", r.Method,
					"uri", r.RequestURI,
					"panic", rec,
					"stack", stack,
				)

				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
