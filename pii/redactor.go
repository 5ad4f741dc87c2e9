package pii

// Redactor applies an ordered sequence of rules to free-form text. Each rule
// runs over the output of the previous one, so a span replaced early is never
// seen by a later rule. A Redactor is immutable and safe for concurrent use.
type Redactor struct {
	rules []Rule
}

// NewRedactor builds a redactor from rules, or from DefaultRules when none are given.
func NewRedactor(rules ...Rule) *Redactor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Redactor{rules: copied}
}

var defaultRedactor = NewRedactor()

// Redact runs text through the default rule sequence.
func Redact(text string) string {
	return defaultRedactor.Redact(text)
}

// Redact returns text with every rule match replaced by its placeholder.
func (r *Redactor) Redact(text string) string {
	redacted, _ := r.run(text, false)
	return redacted
}

// RedactWithEntities is Redact that also reports what was replaced, in rule order.
func (r *Redactor) RedactWithEntities(text string) (string, []Entity) {
	return r.run(text, true)
}

// Labels returns the rule labels in pipeline order.
func (r *Redactor) Labels() []string {
	labels := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		labels = append(labels, rule.Label)
	}
	return labels
}

func (r *Redactor) run(text string, collect bool) (string, []Entity) {
	if text == "" {
		return text, nil
	}

	var entities []Entity
	for _, rule := range r.rules {
		text, entities = rule.apply(text, entities)
	}
	if !collect {
		return text, nil
	}
	return text, entities
}
