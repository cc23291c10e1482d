package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(topics ...string) *Client {
	return &Client{
		ID:     uuid.New().String(),
		Topics: topics,
		Send:   make(chan []byte, 8),
	}
}

func TestRegisterAndBroadcast(t *testing.T) {
	hub := NewHub()
	groupID := uuid.New()
	topic := GroupTopic(groupID)

	client := newTestClient(topic)
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}
	if hub.TopicCount(topic) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.TopicCount(topic))
	}

	hub.Broadcast(topic, Event{Kind: "alert.created", Topic: topic, Timestamp: time.Now()})

	select {
	case msg := <-client.Send:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatalf("invalid event payload: %v", err)
		}
		if ev.Kind != "alert.created" {
			t.Errorf("expected kind alert.created, got %s", ev.Kind)
		}
	default:
		t.Fatal("expected event on client channel")
	}
}

func TestBroadcast_OnlyMatchingTopic(t *testing.T) {
	hub := NewHub()
	a := newTestClient("group:a")
	b := newTestClient("group:b")
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("group:a", Event{Kind: "alert.created", Topic: "group:a"})

	if len(a.Send) != 1 {
		t.Errorf("expected client a to receive event, got %d", len(a.Send))
	}
	if len(b.Send) != 0 {
		t.Errorf("expected client b to receive nothing, got %d", len(b.Send))
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := newTestClient()
	hub.Register(client)

	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: []string{"group:x", "group:y"}})
	if hub.TopicCount("group:x") != 1 || hub.TopicCount("group:y") != 1 {
		t.Fatal("expected subscriptions to both topics")
	}

	hub.ProcessMessage(client, ClientMessage{Action: "unsubscribe", Topics: []string{"group:x"}})
	if hub.TopicCount("group:x") != 0 {
		t.Error("expected group:x subscription removed")
	}
	if hub.TopicCount("group:y") != 1 {
		t.Error("expected group:y subscription to remain")
	}
	if len(client.Topics) != 1 || client.Topics[0] != "group:y" {
		t.Errorf("unexpected client topics: %v", client.Topics)
	}
}

func TestUnregister_ClosesSendChannel(t *testing.T) {
	hub := NewHub()
	client := newTestClient("group:a")
	hub.Register(client)
	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
	if _, open := <-client.Send; open {
		t.Error("expected send channel to be closed")
	}

	// Second unregister must be a no-op, not a double close.
	hub.Unregister(client)
}

func TestPublish_SetsTimestamp(t *testing.T) {
	hub := NewHub()
	client := newTestClient("group:a")
	hub.Register(client)

	if err := hub.Publish(context.Background(), Event{Kind: "dose.missed", Topic: "group:a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := <-client.Send
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if ev.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

type stubMembershipChecker struct {
	member map[uuid.UUID]uuid.UUID // groupID -> allowed userID
}

func (s *stubMembershipChecker) RequireMember(_ context.Context, groupID, userID uuid.UUID) error {
	if s.member[groupID] == userID {
		return nil
	}
	return errors.New("not a member of this group")
}

func TestAuthorizedTopics_FiltersForeignGroups(t *testing.T) {
	ownGroup := uuid.New()
	otherGroup := uuid.New()
	userID := uuid.New()

	h := NewHandler(NewHub(), &stubMembershipChecker{
		member: map[uuid.UUID]uuid.UUID{ownGroup: userID},
	})

	got := h.authorizedTopics(context.Background(), userID, []string{
		GroupTopic(ownGroup),
		GroupTopic(otherGroup),
		"group:not-a-uuid",
		"system:all",
	})

	if len(got) != 1 || got[0] != GroupTopic(ownGroup) {
		t.Errorf("expected only the member's own group topic, got %v", got)
	}
}

func TestAuthorizedTopics_ForeignGroupGetsNoEvents(t *testing.T) {
	victimGroup := uuid.New()
	attacker := uuid.New()

	hub := NewHub()
	h := NewHandler(hub, &stubMembershipChecker{member: map[uuid.UUID]uuid.UUID{}})

	client := newTestClient()
	hub.Register(client)

	topics := h.authorizedTopics(context.Background(), attacker, []string{GroupTopic(victimGroup)})
	hub.ProcessMessage(client, ClientMessage{Action: "subscribe", Topics: topics})

	hub.Broadcast(GroupTopic(victimGroup), Event{Kind: "alert.created", Topic: GroupTopic(victimGroup)})
	if len(client.Send) != 0 {
		t.Errorf("expected no events for a non-member, got %d", len(client.Send))
	}
}

func TestBroadcast_FullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub()
	client := &Client{ID: "slow", Topics: []string{"group:a"}, Send: make(chan []byte, 1)}
	hub.Register(client)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			hub.Broadcast("group:a", Event{Kind: "alert.created", Topic: "group:a"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on full client buffer")
	}
}
