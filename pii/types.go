package pii

// DetectorInput represents the input for PII detection
type DetectorInput struct {
	Text string `json:"text"`
}

// DetectorOutput represents the output of PII detection. Text is the redacted text.
type DetectorOutput struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Entity represents one replaced span. StartPos and EndPos are byte offsets
// into the text the producing rule saw, not into the original input.
type Entity struct {
	Label       string  `json:"label"`
	Placeholder string  `json:"placeholder"`
	StartPos    int     `json:"start_pos"`
	EndPos      int     `json:"end_pos"`
	Confidence  float64 `json:"confidence"`
}

// CountByLabel returns how many entities carry each label.
func CountByLabel(entities []Entity) map[string]int {
	counts := make(map[string]int, len(entities))
	for _, e := range entities {
		counts[e.Label]++
	}
	return counts
}
