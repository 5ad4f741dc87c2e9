package pii

import (
	"context"
	"time"

	"github.com/hannes/medvoice-private/logging"
	"github.com/hannes/medvoice-private/metrics"
)

// Directions recorded with every masked text.
const (
	DirectionTranscript  = "transcript"
	DirectionManual      = "manual"
	DirectionTranslation = "translation"
	DirectionSpeech      = "speech"
)

// MaskedResult represents the result of masking PII in text
type MaskedResult struct {
	MaskedText string
	Entities   []Entity
}

// MaskingService runs texts through the detector and records what was replaced
type MaskingService struct {
	detector  Detector
	loggingDB LoggingDB
	metrics   *metrics.RedactionMetrics
	logger    *logging.Logger
}

// NewMaskingService creates a new masking service. loggingDB and m may be nil.
func NewMaskingService(detector Detector, loggingDB LoggingDB, m *metrics.RedactionMetrics, logger *logging.Logger) *MaskingService {
	if detector == nil {
		detector = NewRuleDetector(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MaskingService{
		detector:  detector,
		loggingDB: loggingDB,
		metrics:   m,
		logger:    logger,
	}
}

// MaskText redacts text and records the redaction under direction
func (s *MaskingService) MaskText(ctx context.Context, text string, direction string) MaskedResult {
	if text == "" {
		return MaskedResult{MaskedText: text, Entities: []Entity{}}
	}

	output := s.detect(ctx, text)

	counts := CountByLabel(output.Entities)
	s.metrics.ObserveRedaction(direction, counts)

	if len(output.Entities) == 0 {
		s.logger.Debug("no PII detected", "direction", direction)
	} else {
		s.logger.Info("PII redacted", "direction", direction, "entities", len(output.Entities), "labels", counts)
	}

	if s.loggingDB != nil {
		logCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.loggingDB.InsertLog(logCtx, output.Text, direction, output.Entities); err != nil {
			s.logger.Warn("failed to write redaction log", "direction", direction, "error", err)
		}
	}
	return output.result()
}

// MaskInterim redacts a provisional text, such as an interim speech-recognition
// result, without writing an audit row or counting it in metrics.
func (s *MaskingService) MaskInterim(ctx context.Context, text string) MaskedResult {
	if text == "" {
		return MaskedResult{MaskedText: text, Entities: []Entity{}}
	}
	return s.detect(ctx, text).result()
}

func (s *MaskingService) detect(ctx context.Context, text string) DetectorOutput {
	output, err := s.detector.Detect(ctx, DetectorInput{Text: text})
	if err != nil {
		// Never hand back the raw text.
		s.logger.Error("detector failed, using default rules", "detector", s.detector.GetName(), "error", err)
		masked, entities := defaultRedactor.RedactWithEntities(text)
		output = DetectorOutput{Text: masked, Entities: entities}
	}
	return output
}

func (o DetectorOutput) result() MaskedResult {
	entities := o.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return MaskedResult{
		MaskedText: o.Text,
		Entities:   entities,
	}
}

// Redact is MaskText without the bookkeeping result
func (s *MaskingService) Redact(ctx context.Context, text string, direction string) string {
	return s.MaskText(ctx, text, direction).MaskedText
}

// LoggingDB returns the audit store, or nil when none is configured
func (s *MaskingService) LoggingDB() LoggingDB {
	return s.loggingDB
}

// Close releases the detector and the audit store
func (s *MaskingService) Close() error {
	if err := s.detector.Close(); err != nil {
		return err
	}
	if s.loggingDB != nil {
		return s.loggingDB.Close()
	}
	return nil
}
