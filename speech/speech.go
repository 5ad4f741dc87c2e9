// Package speech turns redacted text into spoken audio.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hannes/medvoice-private/errreport"
	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
	"github.com/hannes/medvoice-private/pii"
)

const DefaultLanguage = "en-US"

var (
	// ErrMissingText is returned when there is nothing to speak
	ErrMissingText = errors.New("speech: missing text")
	// ErrNotConfigured is returned when no synthesizer is available
	ErrNotConfigured = errors.New("speech: TTS service not configured")
	// ErrSynthesisFailed wraps failures of the underlying synthesizer
	ErrSynthesisFailed = errors.New("speech: synthesis failed")
)

// Synthesizer converts text to MP3 audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, languageCode string) ([]byte, error)
}

// Service redacts text before handing it to a Synthesizer
type Service struct {
	synth           Synthesizer
	masker          *pii.MaskingService
	metrics         *metrics.SpeechMetrics
	logger          *logging.Logger
	defaultLanguage string
}

// NewService creates a speech service. synth may be nil when TTS is not configured.
func NewService(synth Synthesizer, masker *pii.MaskingService, m *metrics.SpeechMetrics, logger *logging.Logger, defaultLanguage string) *Service {
	if masker == nil {
		masker = pii.NewMaskingService(nil, nil, nil, logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if defaultLanguage == "" {
		defaultLanguage = DefaultLanguage
	}
	return &Service{
		synth:           synth,
		masker:          masker,
		metrics:         m,
		logger:          logger,
		defaultLanguage: defaultLanguage,
	}
}

// Configured reports whether a synthesizer is available
func (s *Service) Configured() bool {
	return s.synth != nil
}

// Speak redacts text and returns it as MP3 audio in languageCode
func (s *Service) Speak(ctx context.Context, text string, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrMissingText
	}
	if s.synth == nil {
		return nil, ErrNotConfigured
	}
	if languageCode == "" {
		languageCode = s.defaultLanguage
	}

	redacted := s.masker.Redact(ctx, text, pii.DirectionSpeech)

	audio, err := s.synth.Synthesize(ctx, redacted, languageCode)
	if err != nil {
		s.metrics.ObserveSynthesis("error")
		s.logger.Error("speech synthesis failed", "language", languageCode, "error", err)
		errreport.Capture(ctx, err, map[string]string{"component": "speech", "language": languageCode})
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	s.metrics.ObserveSynthesis("ok")
	return audio, nil
}
