package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"
)

// Validator checks a bearer credential against the session store and returns
// the identity snapshot it authenticates.
//
// Three checks must all pass: the token parses and carries a valid
// signature, a session exists for it, and that session is neither expired
// nor revoked. Every failure collapses into errors.ErrUnauthenticated so a
// caller can never tell which check failed. A store error is treated the
// same way: fail closed, never admit on upstream trouble.
type Validator struct {
	codec TokenCodec
	store contract.SessionStore
	log   *slog.Logger
}

var _ contract.SessionValidator = (*Validator)(nil)

func NewValidator(codec TokenCodec, store contract.SessionStore, log *slog.Logger) *Validator {
	return &Validator{codec: codec, store: store, log: log}
}

func (v *Validator) Validate(ctx context.Context, credential string) (domain.Identity, error) {
	if _, err := v.codec.Parse(credential); err != nil {
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	// Single read against the external store; no retry here. Retry policy,
	// if any, belongs to the store client.
	session, err := v.store.GetByToken(ctx, credential)
	if err != nil {
		v.log.Warn("Session lookup failed, failing closed", "error", err)
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	if !session.Valid(time.Now()) {
		v.log.Debug(fmt.Sprintf("Session %s expired or revoked", session.UUID))
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	return session.Identity(), nil
}
