package ai

import (
	"context"
	"errors"
)

// MockAssistant is a test double for Assistant.
type MockAssistant struct {
	Report     *InteractionReport
	Narrative  string
	Answer     string
	Summary    string
	ShouldFail bool

	CheckCalls int
	ChatCalls  int
}

func (m *MockAssistant) CheckInteractions(_ context.Context, medications []string) (*InteractionReport, error) {
	m.CheckCalls++
	if m.ShouldFail {
		return nil, errors.New("mock failure")
	}
	if m.Report != nil {
		return m.Report, nil
	}
	return &InteractionReport{Medications: medications, Source: "mock"}, nil
}

func (m *MockAssistant) WeeklyNarrative(_ context.Context, _ WeeklyInput) (string, error) {
	if m.ShouldFail {
		return "", errors.New("mock failure")
	}
	return m.Narrative, nil
}

func (m *MockAssistant) Chat(_ context.Context, _ []ChatTurn, _ string) (string, error) {
	m.ChatCalls++
	if m.ShouldFail {
		return "", errors.New("mock failure")
	}
	return m.Answer, nil
}

func (m *MockAssistant) SummarizeDocument(_ context.Context, _ string) (string, error) {
	if m.ShouldFail {
		return "", errors.New("mock failure")
	}
	return m.Summary, nil
}
