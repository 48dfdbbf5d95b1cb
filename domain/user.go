package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the account record backing authentication. Only the fields the
// gateway needs are kept here; profile data lives elsewhere.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Workspaces   []uuid.UUID
	CreatedAt    time.Time
}
