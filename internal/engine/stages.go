package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"triage-engine/internal/llm"
	"triage-engine/internal/metrics"
	"triage-engine/pkg"
)

// extractSymptoms runs stage one: raw patient text in, structured symptom
// record out. One model invocation.
func (e *Engine) extractSymptoms(ctx context.Context, patientText string) (*pkg.ExtractedSymptoms, llm.TokenUsage, error) {
	user := fmt.Sprintf("Patient description: %s\n\n%s", patientText, extractionFormat)
	raw, usage, err := e.complete(ctx, stageExtraction, extractionSystemPrompt, user)
	if err != nil {
		return nil, usage, err
	}
	symptoms, err := decodeStage[pkg.ExtractedSymptoms](stageExtraction, raw)
	if err != nil {
		return nil, usage, err
	}
	return symptoms, usage, nil
}

// assessRisk runs stage two over the extracted symptoms plus retrieved
// guideline context. One model invocation.
func (e *Engine) assessRisk(ctx context.Context, symptoms *pkg.ExtractedSymptoms, ragContext string) (*pkg.RiskAssessment, llm.TokenUsage, error) {
	encoded, err := json.Marshal(symptoms)
	if err != nil {
		return nil, llm.TokenUsage{}, fmt.Errorf("encoding extracted symptoms: %w", err)
	}
	user := fmt.Sprintf("Extracted symptoms: %s\n\n%s\n\n%s", encoded, ragContext, riskFormat)
	raw, usage, err := e.complete(ctx, stageRiskAssessment, riskSystemPrompt, user)
	if err != nil {
		return nil, usage, err
	}
	risk, err := decodeStage[pkg.RiskAssessment](stageRiskAssessment, raw)
	if err != nil {
		return nil, usage, err
	}
	if risk.TriageLevel == pkg.LevelEmergency && len(risk.RedFlags) == 0 {
		// Data-quality warning, not a hard error.
		e.logger.Warn("emergency assessment reported no red flags",
			zap.String("reasoning", risk.Reasoning))
	}
	return risk, usage, nil
}

// recommend runs stage three: risk assessment in, patient-facing
// recommendation out. A missing disclaimer is filled with the standard one
// rather than propagating an incomplete record. One model invocation.
func (e *Engine) recommend(ctx context.Context, risk *pkg.RiskAssessment) (*pkg.TriageRecommendation, llm.TokenUsage, error) {
	encoded, err := json.Marshal(risk)
	if err != nil {
		return nil, llm.TokenUsage{}, fmt.Errorf("encoding risk assessment: %w", err)
	}
	user := fmt.Sprintf("Risk Assessment: %s\n\n%s", encoded, recommendationFormat)
	raw, usage, err := e.complete(ctx, stageRecommendation, recommendationSystemPrompt, user)
	if err != nil {
		return nil, usage, err
	}

	var rec pkg.TriageRecommendation
	if jsonErr := json.Unmarshal([]byte(stripFence(raw)), &rec); jsonErr != nil {
		return nil, usage, &ParseError{Stage: stageRecommendation, Err: jsonErr}
	}
	if rec.Disclaimer == "" {
		rec.Disclaimer = StandardDisclaimer
	}
	if err := rec.Validate(); err != nil {
		return nil, usage, &ParseError{Stage: stageRecommendation, Err: err}
	}
	return &rec, usage, nil
}

// complete invokes the model once and records stage timing and token spend.
func (e *Engine) complete(ctx context.Context, stage, system, user string) (string, llm.TokenUsage, error) {
	start := time.Now()
	raw, usage, err := e.llm.Complete(ctx, system, user)
	metrics.RecordStage(stage, time.Since(start), usage.Total)
	if err != nil {
		return "", usage, err
	}
	e.logger.Debug("stage completed",
		zap.String("stage", stage),
		zap.Duration("duration", time.Since(start)),
		zap.Int("tokens", usage.Total))
	return raw, usage, nil
}
