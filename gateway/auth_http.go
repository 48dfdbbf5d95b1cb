package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"sup-gateway/errors"
	"sup-gateway/services"

	goerrors "errors"
)

// AuthAPI exposes the plain HTTP endpoints clients call before opening a
// websocket: register and login both answer with a session token.
type AuthAPI struct {
	service services.IAuthService
	log     *slog.Logger
}

func NewAuthAPI(service services.IAuthService, log *slog.Logger) *AuthAPI {
	return &AuthAPI{service: service, log: log}
}

func (a *AuthAPI) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", a.handleRegister)
	mux.HandleFunc("POST /auth/login", a.handleLogin)
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (a *AuthAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}

	token, err := a.service.Register(r.Context(), body.Email, body.Password)
	switch {
	case goerrors.Is(err, errors.ErrUserAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: "email already registered"})
	case goerrors.Is(err, errors.ErrInvalidPassword):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case err != nil:
		a.log.Error("Registration failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "registration failed"})
	default:
		writeJSON(w, http.StatusCreated, tokenBody{Token: string(token)})
	}
}

func (a *AuthAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed body"})
		return
	}

	token, err := a.service.Login(r.Context(), body.Email, body.Password)
	switch {
	case goerrors.Is(err, errors.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	case err != nil:
		a.log.Error("Login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "login failed"})
	default:
		writeJSON(w, http.StatusOK, tokenBody{Token: string(token)})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
