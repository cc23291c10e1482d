package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiAssistant implements Assistant against the Gemini API.
type GeminiAssistant struct {
	client *genai.Client
	model  string
}

// NewGeminiAssistant creates a client for the given API key and model name.
func NewGeminiAssistant(ctx context.Context, apiKey, model string) (*GeminiAssistant, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiAssistant{client: client, model: model}, nil
}

func (g *GeminiAssistant) generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", g.model)
	}
	return text, nil
}

// CheckInteractions asks the model for pairwise interactions as JSON and
// parses the response into a report.
func (g *GeminiAssistant) CheckInteractions(ctx context.Context, medications []string) (*InteractionReport, error) {
	prompt := interactionPrompt(medications)

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Interactions []Interaction `json:"interactions"`
		Summary      string        `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse interaction response: %w", err)
	}

	return &InteractionReport{
		Medications:  medications,
		Interactions: parsed.Interactions,
		Summary:      parsed.Summary,
		Source:       "gemini",
		CheckedAt:    time.Now().UTC(),
	}, nil
}

// WeeklyNarrative turns the week's aggregates into a short prose summary for
// family members.
func (g *GeminiAssistant) WeeklyNarrative(ctx context.Context, input WeeklyInput) (string, error) {
	return g.generate(ctx, narrativePrompt(input))
}

// Chat answers a caregiver question, replaying the prior turns as context.
func (g *GeminiAssistant) Chat(ctx context.Context, history []ChatTurn, question string) (string, error) {
	return g.generate(ctx, chatPrompt(history, question))
}

// SummarizeDocument condenses extracted document text for the verification
// review queue.
func (g *GeminiAssistant) SummarizeDocument(ctx context.Context, text string) (string, error) {
	var b strings.Builder
	b.WriteString("Summarize this caregiver verification document in 2-3 sentences for an agency reviewer. ")
	b.WriteString("Name the document type, the holder, the issuer, and any expiry date if present.\n\n")
	b.WriteString(text)
	return g.generate(ctx, b.String())
}

// extractJSON strips markdown code fences the model sometimes wraps JSON in.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

func interactionPrompt(medications []string) string {
	var b strings.Builder
	b.WriteString("You are a clinical pharmacology assistant. Review the following medication list for pairwise interactions.\n")
	b.WriteString("Medications: ")
	b.WriteString(strings.Join(medications, ", "))
	b.WriteString("\n\nRespond with JSON only, in this shape:\n")
	b.WriteString(`{"interactions":[{"medicationA":"","medicationB":"","severity":"minor|moderate|major","description":""}],"summary":""}`)
	b.WriteString("\nList only interactions you are confident about. The summary is one or two sentences for a family caregiver, not a clinician.")
	return b.String()
}

func narrativePrompt(input WeeklyInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, warm weekly care summary (3-5 sentences) for the family of %s, covering the week of %s.\n",
		input.ElderName, input.WeekStart.Format("January 2, 2006"))
	fmt.Fprintf(&b, "Medication adherence: %.0f%% (%d taken, %d missed).\n", input.AdherenceRate*100, input.DosesTaken, input.DosesMissed)
	fmt.Fprintf(&b, "Meals logged: %d, dietary restriction violations: %d.\n", input.MealsLogged, input.DietViolations)
	fmt.Fprintf(&b, "Alerts raised: %d (%d critical). Caregiver shifts completed: %d.\n", input.AlertsRaised, input.AlertsCritical, input.ShiftsCompleted)
	if len(input.HandoffHighlights) > 0 {
		b.WriteString("Caregiver notes this week:\n")
		for _, h := range input.HandoffHighlights {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}
	b.WriteString("Do not give medical advice. Mention anything concerning gently and suggest discussing it with the care team.")
	return b.String()
}

func chatPrompt(history []ChatTurn, question string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant for family caregivers coordinating elder care. ")
	b.WriteString("Answer practically and briefly. Never diagnose or prescribe; recommend contacting a clinician for medical decisions.\n\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	fmt.Fprintf(&b, "user: %s\nassistant:", question)
	return b.String()
}
