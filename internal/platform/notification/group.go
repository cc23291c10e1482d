package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MemberSource resolves a care group's member ids. Satisfied by the
// caregroup service.
type MemberSource interface {
	MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}

// PhoneDirectory resolves users to SMS-reachable phone numbers. Satisfied by
// the identity service.
type PhoneDirectory interface {
	PhonesFor(ctx context.Context, ids []uuid.UUID) ([]string, error)
}

// GroupNotifier fans an alert out to every member of a care group over SMS.
// Critical alerts go out as "urgent" so they bypass quiet hours.
type GroupNotifier struct {
	members MemberSource
	phones  PhoneDirectory
	mgr     *Manager
}

func NewGroupNotifier(members MemberSource, phones PhoneDirectory, mgr *Manager) *GroupNotifier {
	return &GroupNotifier{members: members, phones: phones, mgr: mgr}
}

func (g *GroupNotifier) NotifyGroup(ctx context.Context, groupID uuid.UUID, severity, message string) error {
	ids, err := g.members.MemberIDs(ctx, groupID)
	if err != nil {
		return err
	}
	phones, err := g.phones.PhonesFor(ctx, ids)
	if err != nil {
		return err
	}

	priority := "normal"
	if severity == "critical" {
		priority = "urgent"
	}
	body := strings.ToUpper(severity) + ": " + message

	for _, phone := range phones {
		n := &Notification{
			Type:      TypeSMS,
			Recipient: phone,
			Body:      body,
			Priority:  priority,
		}
		if err := g.mgr.Send(ctx, n); err != nil {
			// keep going; one unreachable member should not block the rest
			log.Warn().Err(err).Str("group_id", groupID.String()).Msg("group notification delivery failed")
		}
	}
	return nil
}
