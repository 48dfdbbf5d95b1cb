// Package repositories contains the badger-backed stores the gateway reads
// from: sessions (consumed by the session validator) and users (consumed by
// the auth service). Records are stored as JSON under prefixed keys.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	sessionTokenPrefix = "session:token:"
	sessionUUIDPrefix  = "session:uuid:"
)

// diskSession is the stored shape of a session record.
type diskSession struct {
	UUID       string    `json:"uuid"`
	OwnerID    string    `json:"owner_uuid"`
	Workspaces []string  `json:"workspaces"`
	Token      string    `json:"token"`
	CreatedAt  time.Time `json:"created_time"`
	DurationMs int64     `json:"duration_ms"`
	Revoked    bool      `json:"revoked"`
}

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

var _ contract.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(db *badger.DB, log *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, log: log}
}

// Save persists the session under both its token and its uuid. The badger
// entries expire with the session itself, so stale sessions vanish without
// a sweeper.
func (r *SessionRepository) Save(_ context.Context, session domain.Session) error {
	record := fromSession(session)
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ttl := time.Until(session.ExpiresAt())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.UUID)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionTokenPrefix+session.Token), bytes).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		index := badger.NewEntry([]byte(sessionUUIDPrefix+session.UUID.String()), []byte(session.Token)).WithTTL(ttl)
		return txn.SetEntry(index)
	})
}

// GetByToken is the single read the session validator performs per
// connection attempt.
func (r *SessionRepository) GetByToken(_ context.Context, token string) (domain.Session, error) {
	var record diskSession
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionTokenPrefix + token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Session{}, errors.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return toSession(record)
}

// Revoke flags a session as revoked without waiting for its TTL.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	return r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionUUIDPrefix + sessionID.String()))
		if err == badger.ErrKeyNotFound {
			return errors.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var token string
		if err := item.Value(func(val []byte) error {
			token = string(val)
			return nil
		}); err != nil {
			return err
		}

		sessionItem, err := txn.Get([]byte(sessionTokenPrefix + token))
		if err == badger.ErrKeyNotFound {
			return errors.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		var record diskSession
		if err := sessionItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		record.Revoked = true
		bytes, err := json.Marshal(record)
		if err != nil {
			return err
		}
		ttl := time.Until(record.CreatedAt.Add(time.Duration(record.DurationMs) * time.Millisecond))
		if ttl <= 0 {
			// Already past expiry; nothing left to protect.
			return nil
		}
		entry := badger.NewEntry([]byte(sessionTokenPrefix+token), bytes).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

func fromSession(session domain.Session) diskSession {
	return diskSession{
		UUID:    session.UUID.String(),
		OwnerID: session.OwnerID.String(),
		Workspaces: lo.Map(session.Workspaces, func(ws uuid.UUID, _ int) string {
			return ws.String()
		}),
		Token:      session.Token,
		CreatedAt:  session.CreatedAt,
		DurationMs: session.Duration.Milliseconds(),
		Revoked:    session.Revoked,
	}
}

func toSession(record diskSession) (domain.Session, error) {
	id, err := uuid.Parse(record.UUID)
	if err != nil {
		return domain.Session{}, err
	}
	ownerID, err := uuid.Parse(record.OwnerID)
	if err != nil {
		return domain.Session{}, err
	}
	workspaces := make([]uuid.UUID, 0, len(record.Workspaces))
	for _, ws := range record.Workspaces {
		parsed, err := uuid.Parse(ws)
		if err != nil {
			return domain.Session{}, err
		}
		workspaces = append(workspaces, parsed)
	}
	return domain.Session{
		UUID:       id,
		OwnerID:    ownerID,
		Workspaces: workspaces,
		Token:      record.Token,
		CreatedAt:  record.CreatedAt,
		Duration:   time.Duration(record.DurationMs) * time.Millisecond,
		Revoked:    record.Revoked,
	}, nil
}
