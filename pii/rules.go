package pii

import "unicode/utf8"

// Placeholder tokens written in place of redacted spans.
const (
	PlaceholderPhone    = "[PHONE]"
	PlaceholderEmail    = "[EMAIL]"
	PlaceholderID       = "[ID]"
	PlaceholderDate     = "[DATE]"
	PlaceholderRedacted = "[REDACTED]"
)

// Rule labels, reported on entities and metrics.
const (
	LabelPhone = "PHONE"
	LabelEmail = "EMAIL"
	LabelID    = "ID"
	LabelDate  = "DATE"
	LabelMRN   = "MRN"
	LabelSSN   = "SSN"
	LabelDOB   = "DOB"
)

// MinIDLength is the shortest digit run the ID rule replaces.
const MinIDLength = 5

// numericPlaceholder matches a labeled value that an earlier rule already replaced.
const numericPlaceholder = `\[(?:PHONE|ID|DATE)\]`

// spaceChars is the whitespace set used by the rules, wider than RE2's ASCII \s:
// it includes \v, no-break spaces and the other Unicode space separators.
const spaceChars = `\t\n\x0B\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

const (
	space    = `[` + spaceChars + `]`
	phoneSep = `[-.` + spaceChars + `]`
)

// PIIPatterns lists the rule patterns in pipeline order.
var PIIPatterns = []struct {
	Label   string
	Pattern string
}{
	{LabelPhone, `\d{3}` + phoneSep + `??\d{3}` + phoneSep + `??\d{4}|\(\d{3}\)` + space + `*\d{3}` + phoneSep + `??\d{4}|\d{3}` + phoneSep + `??\d{4}`},
	{LabelEmail, `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`},
	{LabelID, `\b\d{5,10}\b`},
	{LabelDate, `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`},
	{LabelMRN, `(?i)\bMRN` + space + `*:?` + space + `*(?:\d+\b|` + numericPlaceholder + `)`},
	{LabelSSN, `(?i)\bSSN` + space + `*:?` + space + `*\d{3}-\d{2}-\d{4}\b`},
	{LabelDOB, `(?i)\bDOB` + space + `*:?` + space + `*(?:[\d/-]+\b|` + numericPlaceholder + `)`},
}

var placeholders = map[string]string{
	LabelPhone: PlaceholderPhone,
	LabelEmail: PlaceholderEmail,
	LabelID:    PlaceholderID,
	LabelDate:  PlaceholderDate,
	LabelMRN:   PlaceholderRedacted,
	LabelSSN:   PlaceholderRedacted,
	LabelDOB:   PlaceholderRedacted,
}

// DefaultRules returns a fresh copy of the built-in rule sequence.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(PIIPatterns))
	for _, p := range PIIPatterns {
		rule := NewRule(p.Label, p.Pattern, placeholders[p.Label])
		if p.Label == LabelID {
			rule = rule.WithPredicate(minLength(MinIDLength))
		}
		rules = append(rules, rule)
	}
	return rules
}

// minLength accepts matches of at least n characters. The ID pattern already
// enforces this bound; the check stays so a wider pattern keeps the same policy.
func minLength(n int) func(string) bool {
	return func(match string) bool {
		return utf8.RuneCountInString(match) >= n
	}
}
