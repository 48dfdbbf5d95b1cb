package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload carried by a session token: the session uuid,
// nothing else. Everything about the user is resolved through the session
// store, so a token alone never grants access.
type SessionClaims struct {
	SessionUUID string `json:"session_uuid"`
	jwt.RegisteredClaims
}

// TokenCodec signs and parses session tokens with a shared HMAC secret.
// The secret comes from configuration; it is never hardcoded here.
type TokenCodec struct {
	secret []byte
}

func NewTokenCodec(secret []byte) TokenCodec {
	return TokenCodec{secret: secret}
}

// Sign creates an HS256 token embedding the session uuid, expiring with the
// session itself.
func (c TokenCodec) Sign(sessionID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		SessionUUID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "sup-gateway",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse validates the signature and expiration of a token string and
// returns the session uuid it carries.
func (c TokenCodec) Parse(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, jwt.ErrSignatureInvalid
	}
	return uuid.Parse(claims.SessionUUID)
}
