// Package domain contains core concepts of the Sup chat gateway.
// This file defines the Identity bound to a live connection.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"github.com/google/uuid"
)

// Identity is the authenticated user behind a connection: a stable user id
// plus the snapshot of workspace memberships taken at authentication time.
//
// The snapshot is immutable for the life of the connection. A user added to
// a workspace mid-session will not receive fan-out for it until they
// reconnect; this is a known limitation, not a bug.
type Identity struct {
	UserID     uuid.UUID
	Workspaces []uuid.UUID
}

// MemberOf reports whether the workspace is part of the snapshot.
func (i Identity) MemberOf(workspaceID uuid.UUID) bool {
	for _, ws := range i.Workspaces {
		if ws == workspaceID {
			return true
		}
	}
	return false
}
