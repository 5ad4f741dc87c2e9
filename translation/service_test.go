package translation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
	"github.com/hannes/medvoice-private/pii"
	"github.com/hannes/medvoice-private/providers"
	"github.com/hannes/medvoice-private/ratelimit"
	"github.com/hannes/medvoice-private/session"
)

type fakeProvider struct {
	mu       sync.Mutex
	requests []providers.Request
	reply    func(providers.Request) (string, error)
}

func (f *fakeProvider) GetType() providers.ProviderType { return "fake" }
func (f *fakeProvider) GetName() string                 { return "Fake" }
func (f *fakeProvider) ValidateConfig() error           { return nil }

func (f *fakeProvider) Translate(_ context.Context, req providers.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.reply(req)
}

func echoProvider(prefix string) *fakeProvider {
	return &fakeProvider{reply: func(req providers.Request) (string, error) {
		return prefix + req.Text, nil
	}}
}

func newTestService(provider providers.Provider, sessions session.Store, m *metrics.TranslationMetrics) *Service {
	logger := logging.Discard()
	return NewService(Options{
		Provider: provider,
		Masker:   pii.NewMaskingService(nil, nil, nil, logger),
		Sessions: sessions,
		Metrics:  m,
		Logger:   logger,
	})
}

func TestTranslate_RedactsBothDirections(t *testing.T) {
	provider := &fakeProvider{reply: func(req providers.Request) (string, error) {
		// Provider echoes a new identifier back in the translated text.
		return "Llame al " + strings.TrimPrefix(req.Text, "Call ") + " el 04/12/2024", nil
	}}
	svc := newTestService(provider, nil, nil)

	result, err := svc.Translate(context.Background(), Request{
		Text:           "Call 555-123-4567",
		SourceLanguage: "en-US",
		TargetLanguage: "es-ES",
	})
	require.NoError(t, err)

	require.Len(t, provider.requests, 1)
	assert.Equal(t, "Call [PHONE]", provider.requests[0].Text, "provider must only see redacted text")
	assert.Equal(t, "en-US", provider.requests[0].SourceLanguage)
	assert.Equal(t, "Call [PHONE]", result.Original)
	assert.Equal(t, "Llame al [PHONE] el [DATE]", result.Translation)
}

func TestTranslate_Validation(t *testing.T) {
	provider := echoProvider("")
	svc := newTestService(provider, nil, nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		req  Request
		want error
	}{
		{"missing text", Request{SourceLanguage: "en-US", TargetLanguage: "es-ES"}, ErrMissingParameters},
		{"blank text", Request{Text: "   ", SourceLanguage: "en-US", TargetLanguage: "es-ES"}, ErrMissingParameters},
		{"missing source", Request{Text: "hi", TargetLanguage: "es-ES"}, ErrMissingParameters},
		{"missing target", Request{Text: "hi", SourceLanguage: "en-US"}, ErrMissingParameters},
		{"too long", Request{Text: strings.Repeat("a", 1001), SourceLanguage: "en-US", TargetLanguage: "es-ES"}, ErrTextTooLong},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Translate(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, provider.requests, "invalid requests never reach the provider")
}

func TestTranslate_LengthCountsCharacters(t *testing.T) {
	svc := newTestService(echoProvider(""), nil, nil)

	// 1000 multi-byte characters are within the limit.
	_, err := svc.Translate(context.Background(), Request{
		Text:           strings.Repeat("é", 1000),
		SourceLanguage: "fr-FR",
		TargetLanguage: "en-US",
	})
	assert.NoError(t, err)
}

func TestTranslate_NotConfigured(t *testing.T) {
	svc := newTestService(nil, nil, nil)
	_, err := svc.Translate(context.Background(), Request{Text: "hi", SourceLanguage: "en-US", TargetLanguage: "es-ES"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTranslate_ProviderFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewTranslationMetrics(reg)
	cause := &providers.APIError{Provider: "Fake", StatusCode: 500, Body: "upstream"}
	provider := &fakeProvider{reply: func(providers.Request) (string, error) { return "", cause }}
	svc := newTestService(provider, nil, m)

	_, err := svc.Translate(context.Background(), Request{Text: "hi", SourceLanguage: "en-US", TargetLanguage: "es-ES"})
	assert.ErrorIs(t, err, ErrTranslationFailed)

	var apiErr *providers.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)

	count, err := testutil.GatherAndCount(reg, "medvoice_translation_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTranslate_ThrottleCancelled(t *testing.T) {
	provider := echoProvider("")
	svc := NewService(Options{
		Provider: provider,
		Throttle: ratelimit.NewProviderThrottle(0.001, 1),
		Logger:   logging.Discard(),
	})
	req := Request{Text: "hi", SourceLanguage: "en-US", TargetLanguage: "es-ES"}

	_, err := svc.Translate(context.Background(), req)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Translate(ctx, req)
	assert.ErrorIs(t, err, ErrTranslationFailed)
	assert.Len(t, provider.requests, 1)
}

func TestTranslate_WithSession(t *testing.T) {
	store := session.NewMemoryStore(0)
	ctx := context.Background()
	sess, err := store.Create(ctx, "en-US", "de-DE")
	require.NoError(t, err)

	provider := echoProvider("DE: ")
	svc := newTestService(provider, store, nil)

	result, err := svc.Translate(ctx, Request{Text: "Email me at jane@example.com", SessionID: sess.ID})
	require.NoError(t, err)
	assert.Equal(t, "DE: Email me at [EMAIL]", result.Translation)
	assert.Equal(t, "de-DE", provider.requests[0].TargetLanguage, "languages come from the session")

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, "Email me at [EMAIL]", got.Entries[0].Original)
	assert.Equal(t, "DE: Email me at [EMAIL]", got.Entries[0].Translation)
}

func TestTranslate_UnknownSession(t *testing.T) {
	svc := newTestService(echoProvider(""), session.NewMemoryStore(0), nil)
	_, err := svc.Translate(context.Background(), Request{Text: "hi", SessionID: "nope"})
	assert.ErrorIs(t, err, session.ErrNotFound)
}
