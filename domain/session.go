package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated login of a user. The gateway only ever reads
// sessions; they are created by the auth service and revoked on logout.
type Session struct {
	UUID       uuid.UUID
	OwnerID    uuid.UUID
	Workspaces []uuid.UUID
	Token      string
	CreatedAt  time.Time
	Duration   time.Duration
	Revoked    bool
}

func (s Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(s.Duration)
}

// Valid reports whether the session can still authenticate a connection:
// not expired and not revoked.
func (s Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt())
}

// Identity returns the identity snapshot carried by this session.
func (s Session) Identity() Identity {
	return Identity{UserID: s.OwnerID, Workspaces: s.Workspaces}
}
