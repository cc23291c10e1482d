package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/platform/ai"
)

type mockConversationRepo struct {
	conversations map[uuid.UUID]*Conversation
	messages      map[uuid.UUID][]*Message
}

func newMockConversationRepo() *mockConversationRepo {
	return &mockConversationRepo{
		conversations: make(map[uuid.UUID]*Conversation),
		messages:      make(map[uuid.UUID][]*Message),
	}
}

func (m *mockConversationRepo) Create(_ context.Context, c *Conversation) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

func (m *mockConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockConversationRepo) Touch(_ context.Context, id uuid.UUID) error {
	if c, ok := m.conversations[id]; ok {
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (m *mockConversationRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	var out []*Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

func (m *mockConversationRepo) AddMessage(_ context.Context, msg *Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	cp := *msg
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], &cp)
	return nil
}

func (m *mockConversationRepo) ListMessages(_ context.Context, conversationID uuid.UUID) ([]*Message, error) {
	msgs := m.messages[conversationID]
	out := make([]*Message, len(msgs))
	for i, msg := range msgs {
		cp := *msg
		out[i] = &cp
	}
	return out, nil
}

type disclaimerStub bool

func (d disclaimerStub) HasAcceptedDisclaimer(context.Context, uuid.UUID) (bool, error) {
	return bool(d), nil
}

func TestAskStartsConversation(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewService(repo, disclaimerStub(true), &ai.MockAssistant{Answer: "Keep a regular sleep schedule."})
	userID := uuid.New()

	conv, reply, err := svc.Ask(context.Background(), userID, nil, "How can I help Mom sleep better?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if conv.Title != "How can I help Mom sleep better?" {
		t.Errorf("title = %q", conv.Title)
	}
	if reply.Role != RoleAssistant || reply.Content != "Keep a regular sleep schedule." {
		t.Errorf("unexpected reply %+v", reply)
	}

	messages, err := svc.Messages(context.Background(), userID, conv.ID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected question and answer persisted, got %d messages", len(messages))
	}
	if messages[0].Role != RoleUser || messages[1].Role != RoleAssistant {
		t.Errorf("message roles = %q, %q", messages[0].Role, messages[1].Role)
	}
}

func TestAskContinuesConversation(t *testing.T) {
	repo := newMockConversationRepo()
	assistant := &ai.MockAssistant{Answer: "ok"}
	svc := NewService(repo, disclaimerStub(true), assistant)
	userID := uuid.New()

	conv, _, err := svc.Ask(context.Background(), userID, nil, "first question")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if _, _, err := svc.Ask(context.Background(), userID, &conv.ID, "second question"); err != nil {
		t.Fatalf("Ask follow-up: %v", err)
	}

	messages, _ := svc.Messages(context.Background(), userID, conv.ID)
	if len(messages) != 4 {
		t.Fatalf("expected 4 messages in thread, got %d", len(messages))
	}
	if assistant.ChatCalls != 2 {
		t.Errorf("chat calls = %d, want 2", assistant.ChatCalls)
	}
}

func TestAskRequiresDisclaimer(t *testing.T) {
	svc := NewService(newMockConversationRepo(), disclaimerStub(false), &ai.MockAssistant{})
	_, _, err := svc.Ask(context.Background(), uuid.New(), nil, "question")
	if !errors.Is(err, medication.ErrDisclaimerRequired) {
		t.Fatalf("err = %v, want ErrDisclaimerRequired", err)
	}
}

func TestAskValidation(t *testing.T) {
	svc := NewService(newMockConversationRepo(), disclaimerStub(true), &ai.MockAssistant{})
	if _, _, err := svc.Ask(context.Background(), uuid.New(), nil, ""); err == nil {
		t.Error("empty question should fail")
	}
	if _, _, err := svc.Ask(context.Background(), uuid.New(), nil, strings.Repeat("x", maxQuestionLen+1)); err == nil {
		t.Error("oversized question should fail")
	}
}

func TestAskAssistantFailureNotPersisted(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewService(repo, disclaimerStub(true), &ai.MockAssistant{ShouldFail: true})
	userID := uuid.New()

	conv, _, err := svc.Ask(context.Background(), userID, nil, "question")
	if err == nil {
		t.Fatal("expected error when assistant fails")
	}
	if conv != nil {
		for _, msgs := range repo.messages {
			if len(msgs) != 0 {
				t.Fatal("no messages should be persisted on failure")
			}
		}
	}
}

func TestConversationOwnership(t *testing.T) {
	repo := newMockConversationRepo()
	svc := NewService(repo, disclaimerStub(true), &ai.MockAssistant{Answer: "ok"})
	owner := uuid.New()

	conv, _, err := svc.Ask(context.Background(), owner, nil, "private question")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}

	stranger := uuid.New()
	if _, err := svc.Messages(context.Background(), stranger, conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("stranger read err = %v, want ErrConversationNotFound", err)
	}
	if _, _, err := svc.Ask(context.Background(), stranger, &conv.ID, "hijack"); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("stranger ask err = %v, want ErrConversationNotFound", err)
	}
	if err := svc.DeleteConversation(context.Background(), stranger, conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("stranger delete err = %v, want ErrConversationNotFound", err)
	}

	if err := svc.DeleteConversation(context.Background(), owner, conv.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := svc.Messages(context.Background(), owner, conv.ID); err == nil {
		t.Error("deleted conversation should be gone")
	}
}

func TestTitleTruncation(t *testing.T) {
	long := "What should I do when my father keeps forgetting to take his blood pressure medication in the morning"
	title := titleFrom(long)
	if len(title) > 70 {
		t.Errorf("title too long: %q", title)
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", title)
	}
}

func TestTitleTruncation_MultibyteQuestion(t *testing.T) {
	long := strings.Repeat("¿Qué hago si mi papá olvida su medicación de la presión? ", 3)
	title := titleFrom(long)
	if !utf8.ValidString(title) {
		t.Fatalf("truncation split a rune: %q", title)
	}
	if got := utf8.RuneCountInString(title); got > 61 {
		t.Errorf("title has %d runes: %q", got, title)
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", title)
	}
}
