package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-engine/internal/knowledge"
	"triage-engine/internal/llm"
	"triage-engine/pkg"
)

const (
	goodExtraction = `{"symptoms":["headache"],"duration":"3 days","age":30}`
	goodRisk       = `{"triage_level":"NON_URGENT","reasoning":"persistent but mild","confidence":0.8,"red_flags":[]}`
	goodRec        = `{"triage_level":"NON_URGENT","recommended_action":"See your GP this week","timeframe":"Within a few days","reasoning":"No red flags","disclaimer":"Automated triage has limits; seek professional advice."}`
)

// tokens returned by the fake client per successful call.
const callTokens = 10

type fakeCall struct {
	content string
	err     error
}

type fakeClient struct {
	calls   []fakeCall
	n       int
	systems []string
	users   []string
}

func (f *fakeClient) Complete(_ context.Context, system, user string) (string, llm.TokenUsage, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.n >= len(f.calls) {
		return "", llm.TokenUsage{}, fmt.Errorf("unexpected call %d", f.n)
	}
	call := f.calls[f.n]
	f.n++
	if call.err != nil {
		return "", llm.TokenUsage{}, call.err
	}
	return call.content, llm.TokenUsage{Prompt: 7, Completion: 3, Total: callTokens}, nil
}

type erroringRetriever struct{}

func (erroringRetriever) Search(context.Context, string, int) ([]knowledge.Document, error) {
	return nil, errors.New("store offline")
}

func TestTriageSuccess(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{
		{content: goodExtraction},
		{content: goodRisk},
		{content: goodRec},
	}}
	eng := New(client)

	result := eng.Triage(context.Background(), "I've had a headache for 3 days.")

	require.NotNil(t, result.Recommendation)
	assert.Empty(t, result.Error)
	assert.NotEmpty(t, result.RequestID)
	assert.Equal(t, 3, client.n)
	assert.Equal(t, 3*callTokens, result.TokensUsed)

	require.NotNil(t, result.ExtractedSymptoms)
	assert.Equal(t, []string{"headache"}, result.ExtractedSymptoms.Symptoms)
	require.NotNil(t, result.RiskAssessment)
	assert.Equal(t, pkg.LevelNonUrgent, result.RiskAssessment.TriageLevel)
	assert.Equal(t, pkg.LevelNonUrgent, result.Recommendation.TriageLevel)
	assert.NotEmpty(t, result.Recommendation.Disclaimer)
}

func TestTriageFallbackAtEachStage(t *testing.T) {
	boom := errors.New("provider unavailable")
	tests := []struct {
		name  string
		calls []fakeCall
	}{
		{"extraction fails", []fakeCall{{err: boom}}},
		{"risk assessment fails", []fakeCall{{content: goodExtraction}, {err: boom}}},
		{"recommendation fails", []fakeCall{{content: goodExtraction}, {content: goodRisk}, {err: boom}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := New(&fakeClient{calls: tt.calls})
			result := eng.Triage(context.Background(), "chest pain")

			require.NotNil(t, result.Recommendation)
			assert.Equal(t, pkg.LevelUrgent, result.Recommendation.TriageLevel)
			assert.NotEmpty(t, result.Recommendation.Disclaimer)
			assert.Contains(t, result.Error, "provider unavailable")
		})
	}
}

func TestTriageFallbackOnParseError(t *testing.T) {
	tests := []struct {
		name  string
		calls []fakeCall
	}{
		{"extraction is not JSON", []fakeCall{{content: "I cannot help with that."}}},
		{"confidence out of range", []fakeCall{{content: goodExtraction}, {content: `{"triage_level":"URGENT","reasoning":"x","confidence":1.5,"red_flags":[]}`}}},
		{"unknown triage level", []fakeCall{{content: goodExtraction}, {content: `{"triage_level":"PANIC","reasoning":"x","confidence":0.5,"red_flags":[]}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := New(&fakeClient{calls: tt.calls})
			result := eng.Triage(context.Background(), "chest pain")

			assert.Equal(t, pkg.LevelUrgent, result.Recommendation.TriageLevel)
			assert.NotEmpty(t, result.Error)
			assert.NotEmpty(t, result.Recommendation.Disclaimer)
		})
	}
}

func TestTriageEmptyInput(t *testing.T) {
	client := &fakeClient{}
	eng := New(client)

	result := eng.Triage(context.Background(), "")

	assert.Equal(t, 0, client.n, "no model calls for empty input")
	assert.Equal(t, pkg.LevelUrgent, result.Recommendation.TriageLevel)
	assert.Contains(t, result.Error, "empty")
}

func TestTriageStripsCodeFences(t *testing.T) {
	fenced := "```json\n" + goodExtraction + "\n```"
	eng := New(&fakeClient{calls: []fakeCall{
		{content: fenced},
		{content: goodRisk},
		{content: goodRec},
	}})
	result := eng.Triage(context.Background(), "headache for days")
	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"headache"}, result.ExtractedSymptoms.Symptoms)
}

func TestTriageFillsMissingDisclaimer(t *testing.T) {
	noDisclaimer := `{"triage_level":"SELF_CARE","recommended_action":"Rest and fluids","timeframe":"Ongoing","reasoning":"Minor"}`
	eng := New(&fakeClient{calls: []fakeCall{
		{content: goodExtraction},
		{content: goodRisk},
		{content: noDisclaimer},
	}})
	result := eng.Triage(context.Background(), "sore throat")
	assert.Empty(t, result.Error)
	assert.Equal(t, StandardDisclaimer, result.Recommendation.Disclaimer)
}

func TestTriageRetrievalNeverFailsPipeline(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{
		{content: goodExtraction},
		{content: goodRisk},
		{content: goodRec},
	}}
	eng := New(client, WithRetriever(erroringRetriever{}))

	result := eng.Triage(context.Background(), "headache")

	assert.Empty(t, result.Error)
	// The risk prompt degrades to the no-context sentinel.
	require.Len(t, client.users, 3)
	assert.Contains(t, client.users[1], knowledge.NoContextSentinel)
}

func TestRiskPromptCarriesCautionDirective(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{
		{content: goodExtraction},
		{content: goodRisk},
		{content: goodRec},
	}}
	eng := New(client)
	eng.Triage(context.Background(), "headache")

	require.Len(t, client.systems, 3)
	assert.Contains(t, client.systems[1], "Always prioritize patient safety. When in doubt, assign a higher urgency level.")
}

func TestProtocolFloorUpgrades(t *testing.T) {
	cardiacExtraction := `{"symptoms":["chest pain","shortness of breath"],"age":55}`
	eng := New(&fakeClient{calls: []fakeCall{
		{content: cardiacExtraction},
		{content: goodRisk},
		{content: goodRec},
	}}, WithProtocolFloor(true))

	result := eng.Triage(context.Background(), "chest pain and trouble breathing")

	assert.Empty(t, result.Error)
	assert.Equal(t, pkg.LevelEmergency, result.Recommendation.TriageLevel)
}

func TestProtocolFloorNeverDowngrades(t *testing.T) {
	// Model says EMERGENCY; the chest pain protocol for a young patient
	// without red flags would say SEMI_URGENT. The model's level stands.
	extraction := `{"symptoms":["chest pain"],"age":20}`
	emergencyRisk := `{"triage_level":"EMERGENCY","reasoning":"suspected cardiac event","confidence":0.9,"red_flags":["crushing pain"]}`
	emergencyRec := `{"triage_level":"EMERGENCY","recommended_action":"Call emergency services","timeframe":"Immediately","reasoning":"Red flags present","disclaimer":"Seek professional advice."}`
	eng := New(&fakeClient{calls: []fakeCall{
		{content: extraction},
		{content: emergencyRisk},
		{content: emergencyRec},
	}}, WithProtocolFloor(true))

	result := eng.Triage(context.Background(), "chest pain")

	assert.Equal(t, pkg.LevelEmergency, result.Recommendation.TriageLevel)
}

func TestProtocolFloorDisabledByDefault(t *testing.T) {
	cardiacExtraction := `{"symptoms":["chest pain","shortness of breath"],"age":55}`
	eng := New(&fakeClient{calls: []fakeCall{
		{content: cardiacExtraction},
		{content: goodRisk},
		{content: goodRec},
	}})

	result := eng.Triage(context.Background(), "chest pain and trouble breathing")

	assert.Equal(t, pkg.LevelNonUrgent, result.Recommendation.TriageLevel)
}
