package pkg

import (
	"fmt"
)

// TriageLevel classifies how quickly a patient needs medical attention.
// The set of values is closed; anything else fails validation.
type TriageLevel string

const (
	LevelEmergency  TriageLevel = "EMERGENCY"   // immediate attention (minutes)
	LevelUrgent     TriageLevel = "URGENT"      // prompt attention (hours)
	LevelSemiUrgent TriageLevel = "SEMI_URGENT" // attention soon (same day)
	LevelNonUrgent  TriageLevel = "NON_URGENT"  // routine care (days)
	LevelSelfCare   TriageLevel = "SELF_CARE"   // home care with monitoring
)

// triageRank orders the levels by urgency; a larger rank is more urgent.
var triageRank = map[TriageLevel]int{
	LevelSelfCare:   1,
	LevelNonUrgent:  2,
	LevelSemiUrgent: 3,
	LevelUrgent:     4,
	LevelEmergency:  5,
}

// Valid reports whether l is one of the five defined triage levels.
func (l TriageLevel) Valid() bool {
	_, ok := triageRank[l]
	return ok
}

// MoreUrgentThan reports whether l requires faster attention than other.
// Unknown levels rank below every valid level.
func (l TriageLevel) MoreUrgentThan(other TriageLevel) bool {
	return triageRank[l] > triageRank[other]
}

// MostUrgent returns whichever of the two levels is more urgent.
func MostUrgent(a, b TriageLevel) TriageLevel {
	if b.MoreUrgentThan(a) {
		return b
	}
	return a
}

// ExtractedSymptoms is the structured output of the symptom extraction
// stage. It contains only facts stated in the patient description; the
// extraction prompt forbids inferring unstated symptoms. The record is not
// modified after the stage produces it.
type ExtractedSymptoms struct {
	Symptoms        []string `json:"symptoms"`
	Duration        string   `json:"duration,omitempty"`
	Severity        string   `json:"severity,omitempty"`
	RelevantHistory string   `json:"relevant_history,omitempty"`
	Age             *int     `json:"age,omitempty"`
}

// Validate checks structural invariants of the extraction record.
func (e *ExtractedSymptoms) Validate() error {
	if e.Age != nil && *e.Age < 0 {
		return fmt.Errorf("age must be non-negative, got %d", *e.Age)
	}
	return nil
}

// RiskAssessment is the structured output of the risk assessment stage.
type RiskAssessment struct {
	TriageLevel TriageLevel `json:"triage_level"`
	Reasoning   string      `json:"reasoning"`
	Confidence  float64     `json:"confidence"`
	RedFlags    []string    `json:"red_flags"`
}

// Validate checks enum membership and the confidence range. An EMERGENCY
// assessment with no red flags is a data-quality concern but not a
// validation failure; callers log it instead.
func (r *RiskAssessment) Validate() error {
	if !r.TriageLevel.Valid() {
		return fmt.Errorf("unknown triage level %q", r.TriageLevel)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", r.Confidence)
	}
	return nil
}

// TriageRecommendation is the terminal artifact returned to the caller.
// Disclaimer must never be empty; the recommendation stage substitutes a
// standard fallback disclaimer if the model omits it.
type TriageRecommendation struct {
	TriageLevel       TriageLevel `json:"triage_level"`
	RecommendedAction string      `json:"recommended_action"`
	Timeframe         string      `json:"timeframe"`
	Reasoning         string      `json:"reasoning"`
	WarningSigns      []string    `json:"warning_signs,omitempty"`
	FollowUp          string      `json:"follow_up,omitempty"`
	Disclaimer        string      `json:"disclaimer"`
}

// Validate checks enum membership and that the disclaimer is present.
func (t *TriageRecommendation) Validate() error {
	if !t.TriageLevel.Valid() {
		return fmt.Errorf("unknown triage level %q", t.TriageLevel)
	}
	if t.Disclaimer == "" {
		return fmt.Errorf("disclaimer must not be empty")
	}
	return nil
}

// TriageResult aggregates the three stage outputs for one request. Error is
// empty on success; on the safety-fallback path it preserves the original
// failure message for diagnostics while Recommendation stays well formed.
type TriageResult struct {
	RequestID         string                `json:"request_id"`
	ExtractedSymptoms *ExtractedSymptoms    `json:"extracted_symptoms,omitempty"`
	RiskAssessment    *RiskAssessment       `json:"risk_assessment,omitempty"`
	Recommendation    *TriageRecommendation `json:"recommendation"`
	TokensUsed        int                   `json:"tokens_used"`
	Error             string                `json:"error,omitempty"`
}

// TriageRequest is the inbound payload for the triage API.
type TriageRequest struct {
	Description string `json:"description"`
}

// ScoreRequest is the inbound payload for the severity scoring API.
type ScoreRequest struct {
	Symptoms []string `json:"symptoms"`
}

// ScoreResponse carries the deterministic severity classification.
type ScoreResponse struct {
	Score    int    `json:"score"`
	Priority string `json:"priority"`
}
