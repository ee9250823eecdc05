package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage names used in errors, logs, and metrics.
const (
	stageExtraction     = "extraction"
	stageRiskAssessment = "risk_assessment"
	stageRecommendation = "recommendation"
)

// ParseError means a model response could not be coerced into the stage's
// schema: malformed JSON or a failed validation invariant. It propagates to
// the orchestrator, which converts it into the safety fallback.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s response: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// validator is implemented by every stage schema in pkg.
type validator interface {
	Validate() error
}

// stripFence removes a markdown code fence wrapping the payload. Models
// frequently wrap JSON in ```json blocks even when told not to.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeStage is the single deserialization boundary for model output. All
// violations, whatever the underlying cause, come back as one ParseError
// naming the stage.
func decodeStage[T any, PT interface {
	*T
	validator
}](stage, raw string) (PT, error) {
	out := PT(new(T))
	if err := json.Unmarshal([]byte(stripFence(raw)), out); err != nil {
		return nil, &ParseError{Stage: stage, Err: err}
	}
	if err := out.Validate(); err != nil {
		return nil, &ParseError{Stage: stage, Err: err}
	}
	return out, nil
}
