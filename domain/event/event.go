// Package event defines the domain events the gateway consumes and fans out
// to live connections. Events are produced elsewhere in the system (message
// service, workspace service, notification service); the gateway only routes
// them.
package event

import (
	"sup-gateway/domain"

	"github.com/google/uuid"
)

// Name identifies a domain event kind on the internal bus.
type Name string

const (
	MessageCreated Name = "message.created"
	MessageUpdated Name = "message.updated"
	MessageRemoved Name = "message.removed"

	ReactionCreated Name = "reaction.created"
	ReactionUpdated Name = "reaction.updated"
	ReactionRemoved Name = "reaction.removed"

	WorkspaceMemberAdded   Name = "workspace.member.added"
	WorkspaceMemberRemoved Name = "workspace.member.removed"

	NotificationCreated Name = "notification.created"
	NotificationRead    Name = "notification.read"
)

// WireName maps a domain event to the event field of the outbound push
// frame. Clients subscribe on these names, not on the internal ones.
func (n Name) WireName() string {
	switch n {
	case MessageCreated:
		return "message_received"
	case MessageUpdated:
		return "message_updated"
	case MessageRemoved:
		return "message_removed"
	case ReactionCreated:
		return "reaction"
	case ReactionUpdated:
		return "reaction_updated"
	case ReactionRemoved:
		return "reaction_removed"
	case NotificationCreated:
		return "notification.created"
	case NotificationRead:
		return "notification.read"
	default:
		return "message"
	}
}

// DomainEvent is implemented by every event routed through the gateway.
type DomainEvent interface {
	EventName() Name
}

// Destination carries the single delivery target of an event: a workspace
// (broadcast to all its live members) or a user (direct delivery). Exactly
// one side should be set by the producer; the notifier treats neither-set as
// a no-op.
type Destination struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
}

func (d Destination) ToWorkspace() bool { return d.WorkspaceID != uuid.Nil }
func (d Destination) ToUser() bool      { return d.UserID != uuid.Nil && !d.ToWorkspace() }
func (d Destination) Empty() bool       { return d.WorkspaceID == uuid.Nil && d.UserID == uuid.Nil }

// Message covers message.created, message.updated and message.removed.
type Message struct {
	Kind        Name
	Message     domain.Message
	Destination Destination
}

func (m Message) EventName() Name { return m.Kind }

// Reaction covers reaction.created, reaction.updated and reaction.removed.
// Reactions follow the destination of the message they are attached to.
type Reaction struct {
	Kind        Name
	Reaction    domain.Reaction
	Destination Destination
}

func (r Reaction) EventName() Name { return r.Kind }

// Notification covers notification.created and notification.read; it is
// always delivered to its recipient only.
type Notification struct {
	Kind         Name
	Notification domain.Notification
}

func (n Notification) EventName() Name { return n.Kind }

// Membership covers workspace.member.added and workspace.member.removed.
// The subject is notified directly; the remaining live members of the
// workspace are notified too, except the subject and the actor.
type Membership struct {
	Kind        Name
	WorkspaceID uuid.UUID
	SubjectID   uuid.UUID
	ActorID     uuid.UUID
}

func (m Membership) EventName() Name { return m.Kind }
