package assistant

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/platform/ai"
)

// History beyond this is dropped from the prompt; old turns stay in the
// database.
const maxHistoryTurns = 20

const maxQuestionLen = 2000

// ErrConversationNotFound covers both missing threads and threads owned by
// someone else, so ownership is not probeable.
var ErrConversationNotFound = fmt.Errorf("conversation not found")

// DisclaimerChecker is satisfied by the identity service.
type DisclaimerChecker interface {
	HasAcceptedDisclaimer(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	conversations ConversationRepository
	disclaimer    DisclaimerChecker
	assistant     ai.Assistant
}

func NewService(conversations ConversationRepository, disclaimer DisclaimerChecker, assistant ai.Assistant) *Service {
	return &Service{conversations: conversations, disclaimer: disclaimer, assistant: assistant}
}

// Ask answers a care question. A nil conversationID starts a new thread
// titled from the question; both the question and the answer are persisted.
// Requires the medical disclaimer.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, question string) (*Conversation, *Message, error) {
	if question == "" {
		return nil, nil, fmt.Errorf("question is required")
	}
	if len(question) > maxQuestionLen {
		return nil, nil, fmt.Errorf("question exceeds %d characters", maxQuestionLen)
	}
	accepted, err := s.disclaimer.HasAcceptedDisclaimer(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !accepted {
		return nil, nil, medication.ErrDisclaimerRequired
	}

	var conv *Conversation
	if conversationID != nil {
		conv, err = s.getOwned(ctx, userID, *conversationID)
		if err != nil {
			return nil, nil, err
		}
	} else {
		conv = &Conversation{UserID: userID, Title: titleFrom(question)}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, nil, fmt.Errorf("create conversation: %w", err)
		}
	}

	history, err := s.chatHistory(ctx, conv.ID)
	if err != nil {
		return nil, nil, err
	}

	answer, err := s.assistant.Chat(ctx, history, question)
	if err != nil {
		return nil, nil, fmt.Errorf("assistant unavailable: %w", err)
	}

	userMsg := &Message{ConversationID: conv.ID, Role: RoleUser, Content: question}
	if err := s.conversations.AddMessage(ctx, userMsg); err != nil {
		return nil, nil, err
	}
	reply := &Message{ConversationID: conv.ID, Role: RoleAssistant, Content: answer}
	if err := s.conversations.AddMessage(ctx, reply); err != nil {
		return nil, nil, err
	}
	if err := s.conversations.Touch(ctx, conv.ID); err != nil {
		return nil, nil, err
	}
	return conv, reply, nil
}

func (s *Service) chatHistory(ctx context.Context, conversationID uuid.UUID) ([]ai.ChatTurn, error) {
	messages, err := s.conversations.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if len(messages) > maxHistoryTurns {
		messages = messages[len(messages)-maxHistoryTurns:]
	}
	history := make([]ai.ChatTurn, len(messages))
	for i, m := range messages {
		history[i] = ai.ChatTurn{Role: m.Role, Content: m.Content}
	}
	return history, nil
}

func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	return s.conversations.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) Messages(ctx context.Context, userID, conversationID uuid.UUID) ([]*Message, error) {
	if _, err := s.getOwned(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID)
}

func (s *Service) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}

func (s *Service) getOwned(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func titleFrom(question string) string {
	const maxTitle = 60
	runes := []rune(question)
	if len(runes) <= maxTitle {
		return question
	}
	cut := maxTitle
	for cut > 0 && runes[cut] != ' ' {
		cut--
	}
	if cut == 0 {
		cut = maxTitle
	}
	return string(runes[:cut]) + "…"
}
