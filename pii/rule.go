package pii

import (
	"regexp"
	"strings"
)

// Rule is one step of the redaction pipeline. Pattern finds candidate spans,
// ShouldReplace decides per match whether the span is replaced, and
// Replacement is the placeholder written in its place.
type Rule struct {
	Label         string
	Pattern       *regexp.Regexp
	ShouldReplace func(match string) bool
	Replacement   string
}

// NewRule compiles pattern and returns a rule that always replaces its matches.
// It panics if pattern does not compile.
func NewRule(label, pattern, replacement string) Rule {
	return Rule{
		Label:       label,
		Pattern:     regexp.MustCompile(pattern),
		Replacement: replacement,
	}
}

// WithPredicate returns a copy of the rule that only replaces matches accepted by fn.
func (r Rule) WithPredicate(fn func(match string) bool) Rule {
	r.ShouldReplace = fn
	return r
}

// apply replaces every non-overlapping leftmost match of the rule in text and
// appends one entity per replaced span. Offsets are relative to text.
func (r Rule) apply(text string, entities []Entity) (string, []Entity) {
	matches := r.Pattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, entities
	}

	var out strings.Builder
	out.Grow(len(text))
	last := 0
	replaced := false

	for _, m := range matches {
		start, end := m[0], m[1]
		if r.ShouldReplace != nil && !r.ShouldReplace(text[start:end]) {
			continue
		}

		out.WriteString(text[last:start])
		out.WriteString(r.Replacement)
		last = end
		replaced = true

		entities = append(entities, Entity{
			Label:       r.Label,
			Placeholder: r.Replacement,
			StartPos:    start,
			EndPos:      end,
			Confidence:  1.0,
		})
	}

	if !replaced {
		return text, entities
	}
	out.WriteString(text[last:])
	return out.String(), entities
}
