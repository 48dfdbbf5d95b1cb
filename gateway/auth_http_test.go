package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sup-gateway/errors"
	"sup-gateway/services"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// stubAuthService returns canned answers per email, enough to exercise the
// HTTP status mapping.
type stubAuthService struct {
	registerErr error
	loginErr    error
	token       services.Token
}

func (s *stubAuthService) Register(_ context.Context, _, _ string) (services.Token, error) {
	return s.token, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (services.Token, error) {
	return s.token, s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, _ uuid.UUID) error {
	return nil
}

func authServer(t *testing.T, service services.IAuthService) *httptest.Server {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mux := http.NewServeMux()
	NewAuthAPI(service, log).Mount(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestAuthAPI_Register(t *testing.T) {
	tests := []struct {
		name       string
		service    *stubAuthService
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "successful registration returns the token",
			service:    &stubAuthService{token: "session-token"},
			body:       `{"email":"a@b.com","password":"ComplexPass123!"}`,
			wantStatus: http.StatusCreated,
			wantBody:   "session-token",
		},
		{
			name:       "duplicate email conflicts",
			service:    &stubAuthService{registerErr: errors.ErrUserAlreadyExists},
			body:       `{"email":"a@b.com","password":"ComplexPass123!"}`,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "weak password is a bad request",
			service:    &stubAuthService{registerErr: errors.ErrInvalidPassword},
			body:       `{"email":"a@b.com","password":"weak"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body is a bad request",
			service:    &stubAuthService{},
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ts := authServer(t, tt.service)

			resp, err := http.Post(ts.URL+"/auth/register", "application/json",
				strings.NewReader(tt.body))
			req.NoError(err)
			defer resp.Body.Close()

			req.Equal(tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				buf := make([]byte, 256)
				n, _ := resp.Body.Read(buf)
				req.Contains(string(buf[:n]), tt.wantBody)
			}
		})
	}
}

func TestAuthAPI_Login(t *testing.T) {
	t.Run("valid credentials return the token", func(t *testing.T) {
		req := require.New(t)
		ts := authServer(t, &stubAuthService{token: "session-token"})

		resp, err := http.Post(ts.URL+"/auth/login", "application/json",
			strings.NewReader(`{"email":"a@b.com","password":"ComplexPass123!"}`))
		req.NoError(err)
		defer resp.Body.Close()

		req.Equal(http.StatusOK, resp.StatusCode)
	})

	t.Run("bad credentials are unauthorized", func(t *testing.T) {
		req := require.New(t)
		ts := authServer(t, &stubAuthService{loginErr: errors.ErrInvalidCredentials})

		resp, err := http.Post(ts.URL+"/auth/login", "application/json",
			strings.NewReader(`{"email":"a@b.com","password":"wrong"}`))
		req.NoError(err)
		defer resp.Body.Close()

		req.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}
