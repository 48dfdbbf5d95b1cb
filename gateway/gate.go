package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"
)

const (
	headerAuthorization = "Authorization"
	headerAuthorize     = "Authorize"
	bearerPrefix        = "Bearer"
)

// ExtractCredential pulls the bearer credential out of handshake headers.
// Precedence: Authorization first, the Authorize alias as fallback. When the
// value starts with "Bearer", the first token after the prefix is used
// verbatim; otherwise the whole header value is the credential.
func ExtractCredential(header http.Header) (string, bool) {
	value := header.Get(headerAuthorization)
	if value == "" {
		value = header.Get(headerAuthorize)
	}
	if value == "" {
		return "", false
	}
	fields := strings.Fields(value)
	if len(fields) >= 2 && fields[0] == bearerPrefix {
		return fields[1], true
	}
	return value, true
}

// Gate decides, per connection attempt, whether to admit or reject it, and
// binds the authenticated identity to the admitted connection.
//
// Authentication runs before registration, so the registry lock is never
// held while the session store is consulted. Every decision leaves an audit
// line in the log.
type Gate struct {
	validator contract.SessionValidator
	registry  contract.IRegistry
	log       *slog.Logger
}

func NewGate(validator contract.SessionValidator, registry contract.IRegistry, log *slog.Logger) *Gate {
	return &Gate{validator: validator, registry: registry, log: log}
}

// Authenticate resolves the handshake headers into an identity. A missing
// credential and a validator rejection both come back as ErrUnauthenticated.
func (g *Gate) Authenticate(ctx context.Context, header http.Header) (domain.Identity, error) {
	credential, ok := ExtractCredential(header)
	if !ok {
		g.log.Info("Connection rejected", "reason", "no credential")
		return domain.Identity{}, errors.ErrUnauthenticated
	}

	identity, err := g.validator.Validate(ctx, credential)
	if err != nil {
		g.log.Info("Connection rejected", "reason", "invalid session")
		return domain.Identity{}, err
	}
	return identity, nil
}

// Admit registers the connection under the identity. Called after
// Authenticate succeeded and the transport is established; also used by the
// auth route to overwrite the binding on re-authentication.
func (g *Gate) Admit(conn contract.Conn, identity domain.Identity) {
	g.registry.Register(conn, identity)
	g.log.Info("Connection admitted",
		"conn", conn.ID(),
		"user", identity.UserID,
		"workspaces", len(identity.Workspaces))
}
