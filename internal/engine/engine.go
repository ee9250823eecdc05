// Package engine implements the three-stage triage pipeline: symptom
// extraction, risk assessment over retrieved guideline context, and a
// patient-facing recommendation. Stages run strictly in sequence, each
// consuming the previous stage's output, with no retries; any stage failure
// is converted exactly once into a conservative safety-fallback result.
package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"triage-engine/internal/knowledge"
	"triage-engine/internal/llm"
	"triage-engine/internal/metrics"
	"triage-engine/internal/rules"
	"triage-engine/pkg"
)

// StandardDisclaimer is appended to every recommendation that arrives
// without one, and used by the safety fallback.
const StandardDisclaimer = "This is an automated recommendation. Always seek professional medical advice for health concerns."

// Fallback wording for the safety path. Under uncertainty, including system
// failure, the result is fixed at URGENT: never silently lower, never empty.
const (
	fallbackAction    = "Due to a system error in processing your symptoms, we recommend consulting with a healthcare provider to be safe."
	fallbackTimeframe = "As soon as possible"
	fallbackReasoning = "The system encountered an error while analyzing your symptoms."
)

// ErrEmptyInput is reported (through the fallback result) when the patient
// description is blank.
var ErrEmptyInput = errors.New("patient description is empty")

// Engine sequences the pipeline. It is stateless across requests and safe
// for concurrent use; the model client and knowledge store handle their own
// concurrency.
type Engine struct {
	llm           llm.Client
	retriever     knowledge.Retriever
	logger        *zap.Logger
	protocolFloor bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRetriever attaches a knowledge store. Without one, retrieval degrades
// to the no-context sentinel.
func WithRetriever(r knowledge.Retriever) Option {
	return func(e *Engine) { e.retriever = r }
}

// WithLogger attaches a structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithProtocolFloor enables the static rule protocols as a post-check that
// can upgrade, never downgrade, the model-derived triage level.
func WithProtocolFloor(enabled bool) Option {
	return func(e *Engine) { e.protocolFloor = enabled }
}

// New constructs an Engine over the given model client.
func New(client llm.Client, opts ...Option) *Engine {
	e := &Engine{
		llm:    client,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Triage processes one patient description through the full pipeline and
// always returns a well-formed result: on any stage failure the result is
// the safety fallback with the original error preserved for diagnostics.
func (e *Engine) Triage(ctx context.Context, patientText string) *pkg.TriageResult {
	result := &pkg.TriageResult{RequestID: uuid.NewString()}

	if patientText == "" {
		return e.fallback(result, ErrEmptyInput)
	}

	// Stage 1: extract symptoms.
	symptoms, usage, err := e.extractSymptoms(ctx, patientText)
	result.TokensUsed += usage.Total
	if err != nil {
		return e.fallback(result, err)
	}
	result.ExtractedSymptoms = symptoms

	// Stage 2: retrieve guideline context, then assess risk. Retrieval can
	// only degrade, never fail the pipeline.
	ragContext := knowledge.BuildContext(ctx, e.retriever, symptoms.Symptoms, e.logger)
	risk, usage, err := e.assessRisk(ctx, symptoms, ragContext)
	result.TokensUsed += usage.Total
	if err != nil {
		return e.fallback(result, err)
	}
	result.RiskAssessment = risk

	// Stage 3: produce the recommendation.
	rec, usage, err := e.recommend(ctx, risk)
	result.TokensUsed += usage.Total
	if err != nil {
		return e.fallback(result, err)
	}
	result.Recommendation = rec

	if e.protocolFloor {
		e.applyProtocolFloor(result)
	}

	metrics.RecordTriage(string(result.Recommendation.TriageLevel))
	e.logger.Info("triage completed",
		zap.String("request_id", result.RequestID),
		zap.String("level", string(result.Recommendation.TriageLevel)),
		zap.Int("tokens_used", result.TokensUsed))
	return result
}

// applyProtocolFloor runs the static protocols over the extracted symptoms
// and raises the recommendation level when a protocol demands more urgency.
func (e *Engine) applyProtocolFloor(result *pkg.TriageResult) {
	floor, ok := rules.Floor(result.ExtractedSymptoms.Symptoms, result.ExtractedSymptoms.Age)
	if !ok || !floor.MoreUrgentThan(result.Recommendation.TriageLevel) {
		return
	}
	e.logger.Info("protocol check escalated triage level",
		zap.String("request_id", result.RequestID),
		zap.String("from", string(result.Recommendation.TriageLevel)),
		zap.String("to", string(floor)))
	result.Recommendation.TriageLevel = floor
}

// fallback finishes a failed request with the fixed URGENT safety response.
func (e *Engine) fallback(result *pkg.TriageResult, cause error) *pkg.TriageResult {
	metrics.RecordFallback()
	e.logger.Error("triage failed, returning safety fallback",
		zap.String("request_id", result.RequestID),
		zap.Error(cause))

	result.Error = cause.Error()
	result.Recommendation = &pkg.TriageRecommendation{
		TriageLevel:       pkg.LevelUrgent,
		RecommendedAction: fallbackAction,
		Timeframe:         fallbackTimeframe,
		Reasoning:         fallbackReasoning,
		Disclaimer:        StandardDisclaimer,
	}
	return result
}
