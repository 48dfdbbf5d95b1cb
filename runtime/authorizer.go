package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sup-gateway/contract"

	"github.com/google/uuid"
)

// MembershipAuthorizer answers policy questions from the presence registry:
// a user may address a workspace only if their identity snapshot lists it.
// Direct messages to other users are always allowed.
type MembershipAuthorizer struct {
	registry contract.IRegistry
	log      *slog.Logger
}

var _ contract.Authorizer = (*MembershipAuthorizer)(nil)

func NewMembershipAuthorizer(registry contract.IRegistry, log *slog.Logger) *MembershipAuthorizer {
	return &MembershipAuthorizer{registry: registry, log: log}
}

// Can evaluates a resource of the form "workspace:<uuid>" or "user:<uuid>".
// Unknown resource kinds are denied, not errored, so a new producer cannot
// accidentally open a hole.
func (a *MembershipAuthorizer) Can(_ context.Context, userID uuid.UUID, resource string) (bool, error) {
	kind, raw, found := strings.Cut(resource, ":")
	if !found {
		return false, fmt.Errorf("malformed resource %q", resource)
	}

	switch kind {
	case "workspace":
		workspaceID, err := uuid.Parse(raw)
		if err != nil {
			return false, fmt.Errorf("malformed resource %q: %w", resource, err)
		}
		record, ok := a.registry.LookupByUser(userID)
		if !ok {
			return false, nil
		}
		return record.Identity.MemberOf(workspaceID), nil
	case "user":
		if _, err := uuid.Parse(raw); err != nil {
			return false, fmt.Errorf("malformed resource %q: %w", resource, err)
		}
		return true, nil
	default:
		a.log.Warn("Denying unknown resource kind", "resource", resource, "user", userID)
		return false, nil
	}
}
