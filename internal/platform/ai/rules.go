package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// pairKey builds an order-independent lookup key for two medication names.
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// knownInteractions covers common interactions among medications frequently
// prescribed to elders. Not exhaustive; the model-backed path handles the
// long tail.
var knownInteractions = map[string]Interaction{
	pairKey("warfarin", "aspirin"): {
		Severity:    SeverityMajor,
		Description: "Combined anticoagulant and antiplatelet use significantly increases bleeding risk.",
	},
	pairKey("warfarin", "ibuprofen"): {
		Severity:    SeverityMajor,
		Description: "NSAIDs increase bleeding risk and can displace warfarin from plasma proteins.",
	},
	pairKey("lisinopril", "spironolactone"): {
		Severity:    SeverityModerate,
		Description: "ACE inhibitors with potassium-sparing diuretics can cause hyperkalemia.",
	},
	pairKey("lisinopril", "ibuprofen"): {
		Severity:    SeverityModerate,
		Description: "NSAIDs can blunt the antihypertensive effect and stress kidney function.",
	},
	pairKey("digoxin", "furosemide"): {
		Severity:    SeverityModerate,
		Description: "Loop diuretics can cause potassium loss, raising the risk of digoxin toxicity.",
	},
	pairKey("metformin", "furosemide"): {
		Severity:    SeverityMinor,
		Description: "Furosemide can raise metformin levels; monitor blood glucose.",
	},
	pairKey("simvastatin", "amlodipine"): {
		Severity:    SeverityModerate,
		Description: "Amlodipine raises simvastatin exposure; doses above 20mg simvastatin are not recommended.",
	},
	pairKey("sertraline", "tramadol"): {
		Severity:    SeverityMajor,
		Description: "Combining serotonergic drugs increases the risk of serotonin syndrome.",
	},
	pairKey("levothyroxine", "calcium carbonate"): {
		Severity:    SeverityMinor,
		Description: "Calcium reduces levothyroxine absorption; separate doses by at least four hours.",
	},
	pairKey("omeprazole", "clopidogrel"): {
		Severity:    SeverityModerate,
		Description: "Omeprazole can reduce the antiplatelet effect of clopidogrel.",
	},
}

// RuleAssistant is a deterministic Assistant backed by a fixed interaction
// table and templated text. It serves deployments without a Gemini API key
// and acts as the fallback when the API is down.
type RuleAssistant struct{}

// NewRuleAssistant returns the rule-based assistant.
func NewRuleAssistant() *RuleAssistant {
	return &RuleAssistant{}
}

// CheckInteractions scans every medication pair against the known table.
func (r *RuleAssistant) CheckInteractions(_ context.Context, medications []string) (*InteractionReport, error) {
	var found []Interaction
	for i := 0; i < len(medications); i++ {
		for j := i + 1; j < len(medications); j++ {
			if hit, ok := knownInteractions[pairKey(medications[i], medications[j])]; ok {
				hit.MedicationA = medications[i]
				hit.MedicationB = medications[j]
				found = append(found, hit)
			}
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return severityRank(found[i].Severity) > severityRank(found[j].Severity)
	})

	summary := "No known interactions were found in this medication list."
	if len(found) > 0 {
		summary = fmt.Sprintf("%d potential interaction(s) found. Review with the prescribing clinician.", len(found))
	}

	return &InteractionReport{
		Medications:  medications,
		Interactions: found,
		Summary:      summary,
		Source:       "rules",
		CheckedAt:    time.Now().UTC(),
	}, nil
}

func severityRank(s InteractionSeverity) int {
	switch s {
	case SeverityMajor:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// WeeklyNarrative produces a templated summary from the week's numbers.
func (r *RuleAssistant) WeeklyNarrative(_ context.Context, input WeeklyInput) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly summary for %s (week of %s). ", input.ElderName, input.WeekStart.Format("Jan 2"))
	fmt.Fprintf(&b, "Medication adherence was %.0f%%, with %d doses taken and %d missed. ",
		input.AdherenceRate*100, input.DosesTaken, input.DosesMissed)
	fmt.Fprintf(&b, "%d meals were logged", input.MealsLogged)
	if input.DietViolations > 0 {
		fmt.Fprintf(&b, ", including %d dietary restriction concern(s)", input.DietViolations)
	}
	b.WriteString(". ")
	if input.AlertsRaised > 0 {
		fmt.Fprintf(&b, "%d alert(s) were raised", input.AlertsRaised)
		if input.AlertsCritical > 0 {
			fmt.Fprintf(&b, " (%d critical)", input.AlertsCritical)
		}
		b.WriteString(". ")
	} else {
		b.WriteString("No alerts were raised. ")
	}
	fmt.Fprintf(&b, "%d caregiver shift(s) were completed.", input.ShiftsCompleted)
	if input.AdherenceRate < 0.8 {
		b.WriteString(" Adherence was below the usual target; it may be worth discussing the schedule with the care team.")
	}
	return b.String(), nil
}

// SummarizeDocument truncates the extracted text to its opening sentences.
// Reviewers still see the full text; the summary is a convenience.
func (r *RuleAssistant) SummarizeDocument(_ context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Document contains no extractable text.", nil
	}
	const maxLen = 280
	if len(text) <= maxLen {
		return text, nil
	}
	cut := text[:maxLen]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > maxLen/2 {
		return cut[:idx+1], nil
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…", nil
}

// Chat returns a canned response directing the user appropriately.
func (r *RuleAssistant) Chat(_ context.Context, _ []ChatTurn, question string) (string, error) {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "missed") && strings.Contains(q, "dose"):
		return "If a dose was missed recently, check the medication's instructions for missed doses and log it in the app. For anything time-sensitive, contact the prescribing clinician or pharmacist.", nil
	case strings.Contains(q, "emergency") || strings.Contains(q, "fall"):
		return "If this is an emergency, call your local emergency number now. Afterwards, record the event as an alert so the whole care team is informed.", nil
	default:
		return "The assistant is running in offline mode and can only answer basic questions. Please check the care plan in the app or contact the care team directly.", nil
	}
}
