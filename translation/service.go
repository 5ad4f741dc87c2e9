// Package translation validates, redacts and forwards texts to the configured
// translation provider, and redacts what comes back.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hannes/medvoice-private/errreport"
	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
	"github.com/hannes/medvoice-private/pii"
	"github.com/hannes/medvoice-private/providers"
	"github.com/hannes/medvoice-private/ratelimit"
	"github.com/hannes/medvoice-private/session"
)

const DefaultMaxTextLength = 1000

var (
	ErrMissingParameters = errors.New("translation: missing required parameters")
	ErrTextTooLong       = errors.New("translation: text too long")
	ErrNotConfigured     = errors.New("translation: service not configured")
	ErrTranslationFailed = errors.New("translation: failed to translate text")
)

// Request is a translation request as received from a client
type Request struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
	SessionID      string `json:"sessionId,omitempty"`
}

// Result carries the redacted input alongside the redacted translation
type Result struct {
	Original    string
	Translation string
}

// Options configures a Service. Provider may be nil when translation is not configured.
type Options struct {
	Provider      providers.Provider
	Masker        *pii.MaskingService
	Sessions      session.Store
	Throttle      *ratelimit.ProviderThrottle
	Metrics       *metrics.TranslationMetrics
	Tracer        trace.Tracer
	Logger        *logging.Logger
	MaxTextLength int
}

type Service struct {
	provider      providers.Provider
	masker        *pii.MaskingService
	sessions      session.Store
	throttle      *ratelimit.ProviderThrottle
	metrics       *metrics.TranslationMetrics
	tracer        trace.Tracer
	logger        *logging.Logger
	maxTextLength int
}

func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Masker == nil {
		opts.Masker = pii.NewMaskingService(nil, nil, nil, opts.Logger)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("medvoice.translation")
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = DefaultMaxTextLength
	}
	return &Service{
		provider:      opts.Provider,
		masker:        opts.Masker,
		sessions:      opts.Sessions,
		throttle:      opts.Throttle,
		metrics:       opts.Metrics,
		tracer:        opts.Tracer,
		logger:        opts.Logger,
		maxTextLength: opts.MaxTextLength,
	}
}

// MaxTextLength is the longest accepted input, in characters
func (s *Service) MaxTextLength() int {
	return s.maxTextLength
}

// Translate redacts req.Text, translates it and redacts the translation.
// With a session id, missing languages are taken from the session and the
// exchange is appended to its transcript.
func (s *Service) Translate(ctx context.Context, req Request) (Result, error) {
	var sess *session.Session
	if req.SessionID != "" && s.sessions != nil {
		var err error
		sess, err = s.sessions.Get(ctx, req.SessionID)
		if err != nil {
			return Result{}, err
		}
		if req.SourceLanguage == "" {
			req.SourceLanguage = sess.SourceLanguage
		}
		if req.TargetLanguage == "" {
			req.TargetLanguage = sess.TargetLanguage
		}
	}

	if err := s.validate(req); err != nil {
		return Result{}, err
	}
	if s.provider == nil {
		return Result{}, ErrNotConfigured
	}

	original := s.masker.Redact(ctx, req.Text, pii.DirectionManual)

	translated, err := s.callProvider(ctx, providers.Request{
		Text:           original,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		return Result{}, err
	}

	// Translation can reintroduce identifiers in the target language's formats.
	result := Result{
		Original:    original,
		Translation: s.masker.Redact(ctx, translated, pii.DirectionTranslation),
	}

	if sess != nil {
		_, err := s.sessions.AppendEntry(ctx, sess.ID, session.Entry{
			Original:    result.Original,
			Translation: result.Translation,
		})
		if err != nil {
			s.logger.Warn("failed to append session entry", "session_id", sess.ID, "error", err)
		}
	}
	return result, nil
}

func (s *Service) validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" || req.SourceLanguage == "" || req.TargetLanguage == "" {
		return ErrMissingParameters
	}
	if utf8.RuneCountInString(req.Text) > s.maxTextLength {
		return ErrTextTooLong
	}
	return nil
}

func (s *Service) callProvider(ctx context.Context, req providers.Request) (string, error) {
	name := string(s.provider.GetType())
	ctx, span := s.tracer.Start(ctx, "translation.Translate", trace.WithAttributes(
		attribute.String("translation.provider", name),
		attribute.String("translation.source_language", req.SourceLanguage),
		attribute.String("translation.target_language", req.TargetLanguage),
		attribute.Int("translation.text_length", utf8.RuneCountInString(req.Text)),
	))
	defer span.End()

	if err := s.throttle.Wait(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "throttled")
		s.metrics.ObserveTranslation(name, "throttled", 0)
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}

	start := time.Now()
	translated, err := s.provider.Translate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider error")
		s.metrics.ObserveTranslation(name, "error", elapsed.Seconds())
		s.logger.Error("translation failed", "provider", name, "duration_ms", elapsed.Milliseconds(), "error", err)
		errreport.Capture(ctx, err, map[string]string{"component": "translation", "provider": name})
		return "", fmt.Errorf("%w: %w", ErrTranslationFailed, err)
	}

	s.metrics.ObserveTranslation(name, "ok", elapsed.Seconds())
	s.logger.Info("translation completed", "provider", name, "duration_ms", elapsed.Milliseconds(),
		"source_language", req.SourceLanguage, "target_language", req.TargetLanguage)
	return translated, nil
}
