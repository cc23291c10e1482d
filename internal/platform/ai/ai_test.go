package ai

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRuleAssistant_KnownInteraction(t *testing.T) {
	r := NewRuleAssistant()
	report, err := r.CheckInteractions(context.Background(), []string{"Warfarin", "Aspirin", "Metformin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Interactions) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(report.Interactions))
	}
	hit := report.Interactions[0]
	if hit.Severity != SeverityMajor {
		t.Errorf("expected major severity, got %s", hit.Severity)
	}
	if hit.MedicationA != "Warfarin" || hit.MedicationB != "Aspirin" {
		t.Errorf("unexpected pair: %s / %s", hit.MedicationA, hit.MedicationB)
	}
	if report.Source != "rules" {
		t.Errorf("expected source rules, got %s", report.Source)
	}
}

func TestRuleAssistant_NoInteractions(t *testing.T) {
	r := NewRuleAssistant()
	report, err := r.CheckInteractions(context.Background(), []string{"Metformin", "Levothyroxine"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Interactions) != 0 {
		t.Errorf("expected no interactions, got %+v", report.Interactions)
	}
	if !strings.Contains(report.Summary, "No known interactions") {
		t.Errorf("unexpected summary: %q", report.Summary)
	}
}

func TestRuleAssistant_SortsBySeverity(t *testing.T) {
	r := NewRuleAssistant()
	report, err := r.CheckInteractions(context.Background(),
		[]string{"levothyroxine", "calcium carbonate", "warfarin", "aspirin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Interactions) != 2 {
		t.Fatalf("expected 2 interactions, got %d", len(report.Interactions))
	}
	if report.Interactions[0].Severity != SeverityMajor {
		t.Errorf("expected major first, got %s", report.Interactions[0].Severity)
	}
}

func TestRuleAssistant_WeeklyNarrative(t *testing.T) {
	r := NewRuleAssistant()
	narrative, err := r.WeeklyNarrative(context.Background(), WeeklyInput{
		ElderName:     "Rosa",
		WeekStart:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		AdherenceRate: 0.65,
		DosesTaken:    13,
		DosesMissed:   7,
		MealsLogged:   18,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(narrative, "Rosa") || !strings.Contains(narrative, "65%") {
		t.Errorf("narrative missing basics: %q", narrative)
	}
	if !strings.Contains(narrative, "below the usual target") {
		t.Errorf("expected low-adherence note: %q", narrative)
	}
}

func TestWithFallback_PrimaryFails(t *testing.T) {
	primary := &MockAssistant{ShouldFail: true}
	secondary := &MockAssistant{Answer: "fallback answer"}
	w := &WithFallback{Primary: primary, Secondary: secondary}

	answer, err := w.Chat(context.Background(), nil, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "fallback answer" {
		t.Errorf("expected fallback answer, got %q", answer)
	}
	if primary.ChatCalls != 1 || secondary.ChatCalls != 1 {
		t.Errorf("unexpected call counts: primary=%d secondary=%d", primary.ChatCalls, secondary.ChatCalls)
	}
}

func TestWithFallback_NilPrimary(t *testing.T) {
	w := &WithFallback{Secondary: NewRuleAssistant()}
	report, err := w.CheckInteractions(context.Background(), []string{"warfarin", "ibuprofen"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Interactions) != 1 {
		t.Errorf("expected rule hit, got %+v", report.Interactions)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := extractJSON(tc.in); got != tc.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRuleAssistant_SummarizeDocument(t *testing.T) {
	r := NewRuleAssistant()

	short := "CNA license for Maria Lopez, issued by the State of Texas."
	got, err := r.SummarizeDocument(context.Background(), short)
	if err != nil {
		t.Fatalf("SummarizeDocument: %v", err)
	}
	if got != short {
		t.Errorf("short text should pass through unchanged, got %q", got)
	}

	long := strings.Repeat("Certified nursing assistant credential. ", 20)
	got, err = r.SummarizeDocument(context.Background(), long)
	if err != nil {
		t.Fatalf("SummarizeDocument: %v", err)
	}
	if len(got) > 300 {
		t.Errorf("long text should be truncated, got %d chars", len(got))
	}

	got, err = r.SummarizeDocument(context.Background(), "   ")
	if err != nil {
		t.Fatalf("SummarizeDocument: %v", err)
	}
	if !strings.Contains(got, "no extractable text") {
		t.Errorf("blank document summary = %q", got)
	}
}
