package shift

import (
	"fmt"
	"strings"
	"time"
)

// Keyword lists for bucketing note text into severity tiers. Matching is
// case-insensitive substring.
var criticalKeywords = []string{
	"fall", "fell", "emergency", "hospital", "911", "unresponsive",
	"chest pain", "bleeding", "stroke", "seizure", "choking",
}

var concernKeywords = []string{
	"refused", "missed", "pain", "dizzy", "confused", "swelling",
	"nausea", "vomit", "agitated", "fever", "wandering", "shortness of breath",
}

func classifyNote(content string) string {
	lower := strings.ToLower(content)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return "critical"
		}
	}
	for _, kw := range concernKeywords {
		if strings.Contains(lower, kw) {
			return "concern"
		}
	}
	return "routine"
}

// BuildHandoff buckets the shift's notes into severity tiers and assembles
// the templated summary for the incoming caregiver.
func BuildHandoff(s *Shift, notes []*Note, dosesTaken, dosesMissed int) *Handoff {
	start, end := s.Window()
	h := &Handoff{
		ShiftID:     s.ID,
		CaregiverID: s.CaregiverID,
		Start:       start,
		End:         end,
		DosesTaken:  dosesTaken,
		DosesMissed: dosesMissed,
		GeneratedAt: time.Now().UTC(),
	}
	for _, n := range notes {
		switch classifyNote(n.Content) {
		case "critical":
			h.Critical = append(h.Critical, n.Content)
		case "concern":
			h.Concerns = append(h.Concerns, n.Content)
		default:
			h.Routine = append(h.Routine, n.Content)
		}
	}
	h.Summary = renderSummary(h)
	return h
}

func renderSummary(h *Handoff) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shift handoff %s to %s.\n",
		h.Start.Format("Mon Jan 2 15:04"), h.End.Format("Mon Jan 2 15:04"))
	fmt.Fprintf(&b, "Medications: %d taken, %d missed.\n", h.DosesTaken, h.DosesMissed)

	writeTier := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		for _, item := range items {
			fmt.Fprintf(&b, "  - %s\n", item)
		}
	}
	writeTier("NEEDS IMMEDIATE ATTENTION", h.Critical)
	writeTier("Watch for", h.Concerns)
	writeTier("Routine", h.Routine)

	if len(h.Critical) == 0 && len(h.Concerns) == 0 && len(h.Routine) == 0 {
		b.WriteString("No notes recorded this shift.\n")
	}
	return b.String()
}
