// Package severity implements a deterministic symptom scorer backed by a
// fixed weight table. It is independent of the model-driven pipeline: no
// model calls, no state, safe for unlimited concurrent readers.
package severity

import "strings"

// Priority is the classification produced by the scorer.
type Priority string

const (
	PriorityHigh   Priority = "High Priority"
	PriorityMedium Priority = "Medium Priority"
	PriorityLow    Priority = "Low Priority"
)

// Classification thresholds on the summed severity score, inclusive.
const (
	highThreshold   = 15
	mediumThreshold = 5
)

// defaultWeights maps lowercased symptom names to severity weights.
// Symptoms not in the table contribute zero.
var defaultWeights = map[string]int{
	"chest pain":          10,
	"shortness of breath": 9,
	"headache":            3,
	"sore throat":         2,
}

// Scorer looks up symptoms in a read-only weight table. Construct once and
// share; the table is never written after construction.
type Scorer struct {
	weights map[string]int
}

// NewScorer returns a scorer over the built-in weight table.
func NewScorer() *Scorer {
	return &Scorer{weights: defaultWeights}
}

// NewScorerWithWeights returns a scorer over a caller-supplied table. Keys
// are lowercased at construction so lookups stay case-insensitive.
func NewScorerWithWeights(weights map[string]int) *Scorer {
	normalized := make(map[string]int, len(weights))
	for name, w := range weights {
		normalized[strings.ToLower(name)] = w
	}
	return &Scorer{weights: normalized}
}

// Score sums the weights of matched symptoms. Matching is a case-insensitive
// exact lookup; unknown symptoms add nothing.
func (s *Scorer) Score(symptoms []string) int {
	total := 0
	for _, symptom := range symptoms {
		total += s.weights[strings.ToLower(symptom)]
	}
	return total
}

// Classify scores the symptoms and maps the total onto a priority bucket.
func (s *Scorer) Classify(symptoms []string) Priority {
	score := s.Score(symptoms)
	switch {
	case score >= highThreshold:
		return PriorityHigh
	case score >= mediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
