package services

import (
	"context"
	"testing"
	"time"

	"sup-gateway/auth"
	"sup-gateway/domain"
	"sup-gateway/errors"
	"sup-gateway/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "unit-test-secret"

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockStore := mocks.NewMockSessionStore(ctrl)
	codec := auth.NewTokenCodec([]byte(testSecret))
	svc := NewAuthService(mockRepo, mockStore, codec, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "ComplexPass123!"
		expectedUserID := uuid.New()

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser(email, gomock.Any()).
			Return(expectedUserID, nil).
			Times(1)
		mockStore.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			Return(nil).
			Times(1)

		token, err := svc.Register(context.Background(), email, password)

		req.NoError(err)
		req.NotEmpty(token)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "simple"

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Times(0)

		token, err := svc.Register(context.Background(), email, password)

		req.Error(err)
		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)
		email := "duplicate@example.com"
		password := "ComplexPass123!"

		mockRepo.EXPECT().
			CreateUser(email, gomock.Any()).
			Return(uuid.Nil, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(context.Background(), email, password)

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockStore := mocks.NewMockSessionStore(ctrl)
	codec := auth.NewTokenCodec([]byte(testSecret))
	svc := NewAuthService(mockRepo, mockStore, codec, 24*time.Hour)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"
		password := "Secret123456!"
		workspaceID := uuid.New()

		hashedPassword, _ := auth.HashPassword(password)
		storedUser := domain.User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: hashedPassword,
			Workspaces:   []uuid.UUID{workspaceID},
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		var saved domain.Session
		mockStore.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, session domain.Session) error {
				saved = session
				return nil
			}).
			Times(1)

		token, err := svc.Login(context.Background(), email, password)

		req.NoError(err)
		req.NotEmpty(token)

		// The token carries the session uuid, the session carries the identity
		sessionID, err := codec.Parse(string(token))
		req.NoError(err)
		req.Equal(saved.UUID, sessionID)
		req.Equal(storedUser.ID, saved.OwnerID)
		req.Equal([]uuid.UUID{workspaceID}, saved.Workspaces)
	})

	t.Run("should return invalid credentials when password does not match", func(t *testing.T) {
		req := require.New(t)
		email := "user@example.com"

		hashedPassword, _ := auth.HashPassword("CorrectPassword123!")
		storedUser := domain.User{
			Email:        email,
			PasswordHash: hashedPassword,
		}

		mockRepo.EXPECT().
			GetUserByEmail(email).
			Return(storedUser, nil).
			Times(1)

		_, err := svc.Login(context.Background(), email, "WrongPassword123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should hide unknown users behind the same error", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetUserByEmail("ghost@example.com").
			Return(domain.User{}, errors.ErrInvalidCredentials).
			Times(1)

		_, err := svc.Login(context.Background(), "ghost@example.com", "Whatever123456!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	mockStore := mocks.NewMockSessionStore(ctrl)
	codec := auth.NewTokenCodec([]byte(testSecret))
	svc := NewAuthService(mockRepo, mockStore, codec, 24*time.Hour)

	sessionID := uuid.New()
	mockStore.EXPECT().Revoke(gomock.Any(), sessionID).Return(nil).Times(1)

	req.NoError(svc.Logout(context.Background(), sessionID))
}
