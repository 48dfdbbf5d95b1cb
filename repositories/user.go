//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"time"

	"sup-gateway/domain"
	"sup-gateway/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const userEmailPrefix = "user:email:"

type IUserRepository interface {
	CreateUser(email, hashedPassword string) (uuid.UUID, error)
	GetUserByEmail(email string) (domain.User, error)
	AddWorkspace(email string, workspaceID uuid.UUID) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) IUserRepository {
	return &UserRepository{db: db}
}

// diskUser is the stored shape of a user record.
type diskUser struct {
	ID           string    `json:"uuid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Workspaces   []string  `json:"workspaces"`
	CreatedAt    time.Time `json:"created_time"`
}

// CreateUser persists a new user keyed by email. The caller hashes the
// password; the repository never sees the cleartext.
func (u UserRepository) CreateUser(email, hashedPassword string) (uuid.UUID, error) {
	newID := uuid.New()
	record := diskUser{
		ID:           newID.String(),
		Email:        email,
		PasswordHash: hashedPassword,
		Workspaces:   []string{},
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userEmailPrefix + email)
		if _, err := txn.Get(key); err == nil {
			return errors.ErrUserAlreadyExists
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return newID, nil
}

// GetUserByEmail retrieves a user and converts it to the domain struct.
func (u UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var record diskUser

	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailPrefix + email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.User{}, errors.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}

	return toUser(record)
}

// AddWorkspace grants the user membership of a workspace. Adding a
// workspace the user already belongs to is a no-op.
func (u UserRepository) AddWorkspace(email string, workspaceID uuid.UUID) error {
	return u.db.Update(func(txn *badger.Txn) error {
		key := []byte(userEmailPrefix + email)
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return errors.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		var record diskUser
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		if lo.Contains(record.Workspaces, workspaceID.String()) {
			return nil
		}
		record.Workspaces = append(record.Workspaces, workspaceID.String())

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(key, data)
	})
}

func toUser(record diskUser) (domain.User, error) {
	id, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.User{}, err
	}
	workspaces := make([]uuid.UUID, 0, len(record.Workspaces))
	for _, ws := range record.Workspaces {
		parsed, err := uuid.Parse(ws)
		if err != nil {
			return domain.User{}, err
		}
		workspaces = append(workspaces, parsed)
	}
	return domain.User{
		ID:           id,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		Workspaces:   workspaces,
		CreatedAt:    record.CreatedAt,
	}, nil
}
