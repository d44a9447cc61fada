package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

const flushTimeout = 2 * time.Second

// Init global sentry client
// Empty dsn leaves sentry disabled, every capture becomes no-op
func InitSentry(dsn string, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

// Wait buffered events to be sent
func FlushSentry() {
	sentry.Flush(flushTimeout)
}
