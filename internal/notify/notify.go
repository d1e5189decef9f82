// Package notify is the fire-and-forget sink for notable security events
// (collaborator created, contract signed). The core depends on the
// Notifier interface only; the Sentry implementation is wired at the
// process boundary and a no-op stands in everywhere else. Emission
// failures never affect the caller's outcome.
package notify

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Notifier accepts free-text informational messages. Implementations
// must never block the caller on delivery failures.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Noop discards every message. Used in tests and when no DSN is configured.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(ctx context.Context, message string) {}

// Sentry forwards messages to the external Sentry monitor.
type Sentry struct{}

// NewSentry initializes the Sentry SDK with the given DSN and returns a
// notifier backed by it. An empty DSN or init failure degrades to a Noop
// so a broken monitor never blocks the application.
func NewSentry(dsn string) Notifier {
	if dsn == "" {
		return Noop{}
	}
	err := sentry.Init(sentry.ClientOptions{Dsn: dsn})
	if err != nil {
		slog.Warn("sentry init failed, notifications disabled", slog.Any("error", err))
		return Noop{}
	}
	return Sentry{}
}

// Notify sends an informational message. The response is never consumed
// and errors are swallowed.
func (Sentry) Notify(ctx context.Context, message string) {
	sentry.CaptureMessage(message)
}
