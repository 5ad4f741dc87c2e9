package pii

import (
	"context"
	"fmt"
)

const DetectorNameRule = "rule_detector"

type Detector interface {
	GetName() string
	Detect(ctx context.Context, input DetectorInput) (DetectorOutput, error)
	Close() error
}

// NewDetector creates a detector by name.
func NewDetector(name string) (Detector, error) {
	switch name {
	case DetectorNameRule, "":
		return NewRuleDetector(nil), nil
	default:
		return nil, fmt.Errorf("invalid detector name: %s", name)
	}
}

// RuleDetector implements Detector on top of a Redactor
type RuleDetector struct {
	redactor *Redactor
}

// NewRuleDetector wraps redactor, or the default rule sequence when nil.
func NewRuleDetector(redactor *Redactor) *RuleDetector {
	if redactor == nil {
		redactor = defaultRedactor
	}
	return &RuleDetector{redactor: redactor}
}

// GetName returns the name of this detector
func (d *RuleDetector) GetName() string {
	return DetectorNameRule
}

// Detect redacts the input and reports the replaced spans.
func (d *RuleDetector) Detect(_ context.Context, input DetectorInput) (DetectorOutput, error) {
	text, entities := d.redactor.RedactWithEntities(input.Text)
	if entities == nil {
		entities = []Entity{}
	}
	return DetectorOutput{
		Text:     text,
		Entities: entities,
	}, nil
}

// Close implements the Detector interface
func (d *RuleDetector) Close() error {
	return nil
}
