// Package rules contains static triage protocols for conditions with well
// known red flags. They are deterministic sanity checks: the engine may use
// them to upgrade a model-derived triage level, never to downgrade it.
package rules

import (
	"strings"

	"triage-engine/pkg"
)

// chestPainRedFlags are heart-attack warning signs checked by the chest
// pain protocol. Matching is case-insensitive substring search.
var chestPainRedFlags = []string{
	"chest pressure",
	"chest tightness",
	"radiating pain",
	"shortness of breath",
	"nausea",
	"sweating",
}

// headInjuryRedFlags indicate a serious head injury.
var headInjuryRedFlags = []string{
	"loss of consciousness",
	"confusion",
	"severe headache",
	"vomiting",
	"seizure",
	"unequal pupils",
}

// cardiacRiskAge is the age above which chest pain without red flags is
// still treated as urgent.
const cardiacRiskAge = 40

func anyFlagPresent(symptoms, flags []string) bool {
	for _, symptom := range symptoms {
		lowered := strings.ToLower(symptom)
		for _, flag := range flags {
			if strings.Contains(lowered, flag) {
				return true
			}
		}
	}
	return false
}

// ChestPainProtocol triages a chest pain presentation. Any red flag means
// EMERGENCY regardless of age; age above the cardiac risk threshold means
// URGENT; otherwise SEMI_URGENT. Age may be nil when unknown.
func ChestPainProtocol(symptoms []string, age *int) pkg.TriageLevel {
	if anyFlagPresent(symptoms, chestPainRedFlags) {
		return pkg.LevelEmergency
	}
	if age != nil && *age > cardiacRiskAge {
		return pkg.LevelUrgent
	}
	return pkg.LevelSemiUrgent
}

// HeadInjuryProtocol triages a head injury presentation. Red flags mean
// EMERGENCY; everything else is URGENT. Head injuries have no lower path.
func HeadInjuryProtocol(symptoms []string) pkg.TriageLevel {
	if anyFlagPresent(symptoms, headInjuryRedFlags) {
		return pkg.LevelEmergency
	}
	return pkg.LevelUrgent
}

// Trigger phrases deciding whether a protocol applies to a symptom list.
var (
	chestPainTriggers  = []string{"chest pain", "chest pressure", "chest tightness"}
	headInjuryTriggers = []string{"head injury", "head trauma", "hit my head", "hit head", "hit his head", "hit her head"}
)

// Floor returns the most urgent level any applicable protocol demands for
// the given symptoms, and whether any protocol applied at all. The engine
// uses the result as a lower bound on urgency.
func Floor(symptoms []string, age *int) (pkg.TriageLevel, bool) {
	var level pkg.TriageLevel
	applied := false
	if anyFlagPresent(symptoms, chestPainTriggers) {
		level = ChestPainProtocol(symptoms, age)
		applied = true
	}
	if anyFlagPresent(symptoms, headInjuryTriggers) {
		headLevel := HeadInjuryProtocol(symptoms)
		if !applied || headLevel.MoreUrgentThan(level) {
			level = headLevel
		}
		applied = true
	}
	return level, applied
}
