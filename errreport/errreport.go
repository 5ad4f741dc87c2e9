// Package errreport forwards unexpected failures to Sentry when a DSN is configured.
package errreport

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/hannes/medvoice-private/config"
)

// Init configures the global Sentry client. The returned flush function must
// be called before exit. With an empty DSN reporting is a no-op.
func Init(cfg config.SentryConfig, release string) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     release,
		// Request bodies may carry unredacted text.
		SendDefaultPII: false,
	})
	if err != nil {
		return func() {}, fmt.Errorf("failed to initialise sentry: %w", err)
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// Capture reports err on the hub bound to ctx, or the global hub
func Capture(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
