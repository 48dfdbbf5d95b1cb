package auth

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"sup-gateway/domain"
	"sup-gateway/errors"
	"sup-gateway/mocks"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const validatorSecret = "validator-test-secret"

func signedSession(t *testing.T, codec TokenCodec, duration time.Duration) domain.Session {
	t.Helper()
	sessionID := uuid.New()
	token, err := codec.Sign(sessionID, duration)
	require.NoError(t, err)
	return domain.Session{
		UUID:       sessionID,
		OwnerID:    uuid.New(),
		Workspaces: []uuid.UUID{uuid.New()},
		Token:      token,
		CreatedAt:  time.Now().UTC(),
		Duration:   duration,
	}
}

func TestValidator_Validate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	codec := NewTokenCodec([]byte(validatorSecret))
	mockStore := mocks.NewMockSessionStore(ctrl)
	validator := NewValidator(codec, mockStore, log)

	t.Run("valid session yields the owner identity", func(t *testing.T) {
		req := require.New(t)
		session := signedSession(t, codec, time.Hour)
		mockStore.EXPECT().
			GetByToken(gomock.Any(), session.Token).
			Return(session, nil).
			Times(1)

		identity, err := validator.Validate(context.Background(), session.Token)

		req.NoError(err)
		req.Equal(session.OwnerID, identity.UserID)
		req.Equal(session.Workspaces, identity.Workspaces)
	})

	t.Run("garbage token never reaches the store", func(t *testing.T) {
		req := require.New(t)
		mockStore.EXPECT().GetByToken(gomock.Any(), gomock.Any()).Times(0)

		_, err := validator.Validate(context.Background(), "not-a-jwt")

		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("unknown session fails closed", func(t *testing.T) {
		req := require.New(t)
		session := signedSession(t, codec, time.Hour)
		mockStore.EXPECT().
			GetByToken(gomock.Any(), session.Token).
			Return(domain.Session{}, errors.ErrSessionNotFound).
			Times(1)

		_, err := validator.Validate(context.Background(), session.Token)

		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("store outage fails closed with the same error", func(t *testing.T) {
		req := require.New(t)
		session := signedSession(t, codec, time.Hour)
		mockStore.EXPECT().
			GetByToken(gomock.Any(), session.Token).
			Return(domain.Session{}, fmt.Errorf("connection refused")).
			Times(1)

		_, err := validator.Validate(context.Background(), session.Token)

		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("revoked session is rejected", func(t *testing.T) {
		req := require.New(t)
		session := signedSession(t, codec, time.Hour)
		session.Revoked = true
		mockStore.EXPECT().
			GetByToken(gomock.Any(), session.Token).
			Return(session, nil).
			Times(1)

		_, err := validator.Validate(context.Background(), session.Token)

		req.ErrorIs(err, errors.ErrUnauthenticated)
	})

	t.Run("expired session is rejected", func(t *testing.T) {
		req := require.New(t)
		session := signedSession(t, codec, time.Hour)
		session.CreatedAt = time.Now().UTC().Add(-2 * time.Hour)
		mockStore.EXPECT().
			GetByToken(gomock.Any(), session.Token).
			Return(session, nil).
			Times(1)

		_, err := validator.Validate(context.Background(), session.Token)

		req.ErrorIs(err, errors.ErrUnauthenticated)
	})
}

func TestTokenCodec_Sign_And_Parse(t *testing.T) {
	req := require.New(t)
	codec := NewTokenCodec([]byte(validatorSecret))
	sessionID := uuid.New()

	token, err := codec.Sign(sessionID, time.Hour)
	req.NoError(err)

	parsed, err := codec.Parse(token)
	req.NoError(err)
	req.Equal(sessionID, parsed)
}

func TestTokenCodec_Parse_Rejects_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	codec := NewTokenCodec([]byte(validatorSecret))
	other := NewTokenCodec([]byte("a-different-secret"))

	token, err := other.Sign(uuid.New(), time.Hour)
	req.NoError(err)

	_, err = codec.Parse(token)
	req.Error(err)
}
