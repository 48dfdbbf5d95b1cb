package services

import (
	"context"
	"fmt"
	"time"

	"sup-gateway/auth"
	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"
	"sup-gateway/repositories"

	"github.com/google/uuid"
)

type IAuthService interface {
	Register(ctx context.Context, email, password string) (Token, error)
	Login(ctx context.Context, email, password string) (Token, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
}

type AuthService struct {
	userRepository  repositories.IUserRepository
	sessionStore    contract.SessionStore
	codec           auth.TokenCodec
	sessionDuration time.Duration
}

type Token string

func NewAuthService(repo repositories.IUserRepository, store contract.SessionStore,
	codec auth.TokenCodec, sessionDuration time.Duration) IAuthService {
	return &AuthService{
		userRepository:  repo,
		sessionStore:    store,
		codec:           codec,
		sessionDuration: sessionDuration,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (Token, error) {
	valReq := auth.RegisterRequest{
		Email:    email,
		Password: password,
	}

	// Validate business rules before any expensive cryptographic operation.
	if err := auth.ValidateRegister(valReq); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hash in the service layer to keep the repository unaware of plain passwords.
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.CreateUser(email, hashedPassword)
	if err != nil {
		return "", err // Propagates ErrUserAlreadyExists if the email is taken
	}

	return s.openSession(ctx, userID, nil)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.userRepository.GetUserByEmail(email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	return s.openSession(ctx, user.ID, user.Workspaces)
}

// Logout revokes the session; the presence record of any live connection
// survives until the socket closes or the client re-authenticates.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessionStore.Revoke(ctx, sessionID)
}

// openSession mints a session record, signs a token carrying the session
// uuid, and persists the session so the validator can resolve the token.
func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID,
	workspaces []uuid.UUID) (Token, error) {
	sessionID := uuid.New()

	signed, err := s.codec.Sign(sessionID, s.sessionDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}

	session := domain.Session{
		UUID:       sessionID,
		OwnerID:    userID,
		Workspaces: workspaces,
		Token:      signed,
		CreatedAt:  time.Now().UTC(),
		Duration:   s.sessionDuration,
	}
	if err := s.sessionStore.Save(ctx, session); err != nil {
		return "", err
	}

	return Token(signed), nil
}
