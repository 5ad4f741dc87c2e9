package errreport

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannes/medvoice-private/config"
)

func TestInit_NoDSNIsNoop(t *testing.T) {
	flush, err := Init(config.SentryConfig{}, "test")
	require.NoError(t, err)
	flush()
}

func TestCapture_UsesContextHub(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@sentry.example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	require.NoError(t, err)

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	Capture(ctx, errors.New("provider down"), map[string]string{"component": "translation"})
	Capture(ctx, nil, nil)

	require.Len(t, events, 1)
	assert.Equal(t, "translation", events[0].Tags["component"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "provider down", events[0].Exception[0].Value)
}
