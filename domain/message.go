// Package domain contains core concepts of the Sup chat gateway.
// This file defines the Message payload carried by fan-out events.
// Messages are immutable; the gateway delivers them unmodified.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is the chat message payload as produced by the rest of the system.
// The gateway never persists it.
type Message struct {
	ID        uuid.UUID `json:"uuid"`
	Content   string    `json:"message"`
	SourceID  uuid.UUID `json:"source_uuid"`
	ChannelID uuid.UUID `json:"destination_uuid"`
	Public    bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_time"`
}

// Notification is a per-user alert pushed to its recipient only.
type Notification struct {
	ID          uuid.UUID `json:"uuid"`
	RecipientID uuid.UUID `json:"recipient_uuid"`
	Content     string    `json:"content"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_time"`
}

// Reaction is an emoji reaction attached to a message.
type Reaction struct {
	ID        uuid.UUID `json:"uuid"`
	MessageID uuid.UUID `json:"message_uuid"`
	AuthorID  uuid.UUID `json:"author_uuid"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_time"`
}
