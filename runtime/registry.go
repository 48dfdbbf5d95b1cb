// Package runtime holds the live state of the gateway: which users are
// connected, through which connection, and which workspaces they can
// receive fan-out for. It contains no transport or business logic.
package runtime

import (
	"fmt"
	"log/slog"
	"sync"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"

	"github.com/google/uuid"
)

type connSet map[uuid.UUID]contract.Conn

// Registry is the presence registry: one record per authenticated
// connection, plus a workspace membership index derived from those records.
//
// All state is guarded by a single RWMutex; every operation observes a
// consistent snapshot. The registry is process-local by design: running
// several gateway instances behind a load balancer fragments presence.
type Registry struct {
	mu sync.RWMutex
	// users maps user id -> live presence record. At most one record per
	// user: a second authentication for the same user replaces the first.
	users map[uuid.UUID]contract.Record
	// identities maps connection id -> bound identity. A connection absent
	// here is unauthenticated (or was replaced and is now orphaned).
	identities map[uuid.UUID]domain.Identity
	// workspaceMembers maps workspace id -> set of member connections.
	// Derived entirely from presence records, never mutated independently.
	workspaceMembers map[uuid.UUID]connSet
	log              *slog.Logger
}

var _ contract.IRegistry = (*Registry)(nil)

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		users:            make(map[uuid.UUID]contract.Record),
		identities:       make(map[uuid.UUID]domain.Identity),
		workspaceMembers: make(map[uuid.UUID]connSet),
		log:              log,
	}
}

// Register creates or replaces the presence record for identity.UserID and
// indexes the connection under every workspace of the identity snapshot.
//
// If the user already has a live record on another connection, that record
// is replaced and the old connection is evicted from the registry, but not
// closed: it stays an orphaned live socket until its own disconnect. That
// mirrors the observed behavior of the original pool and is deliberate.
//
// If conn itself was already bound (re-authentication), the previous
// identity is dropped first and the new snapshot overwrites it.
func (r *Registry) Register(conn contract.Conn, identity domain.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.identities[conn.ID()]; ok {
		r.evictLocked(conn.ID(), prev)
	}
	if rec, ok := r.users[identity.UserID]; ok && rec.Conn.ID() != conn.ID() {
		r.evictLocked(rec.Conn.ID(), rec.Identity)
	}

	r.users[identity.UserID] = contract.Record{Conn: conn, Identity: identity}
	r.identities[conn.ID()] = identity
	for _, ws := range identity.Workspaces {
		members, ok := r.workspaceMembers[ws]
		if !ok {
			members = make(connSet)
			r.workspaceMembers[ws] = members
		}
		members[conn.ID()] = conn
	}
}

// Unregister drops the presence record bound to conn and removes it from
// every workspace of its identity snapshot. Calling it for an unknown or
// already-removed connection is a no-op, so disconnect paths may race.
func (r *Registry) Unregister(conn contract.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[conn.ID()]
	if !ok {
		return
	}
	r.evictLocked(conn.ID(), identity)
}

// evictLocked removes every trace of one (connection, identity) binding.
// Caller must hold the write lock.
func (r *Registry) evictLocked(connID uuid.UUID, identity domain.Identity) {
	delete(r.identities, connID)

	if rec, ok := r.users[identity.UserID]; ok && rec.Conn.ID() == connID {
		delete(r.users, identity.UserID)
	}

	for _, ws := range identity.Workspaces {
		members, ok := r.workspaceMembers[ws]
		if !ok {
			// The record listed a workspace the index never knew about.
			// Should be unreachable while all mutations go through this lock.
			r.log.Error(fmt.Sprintf("%v: workspace %s missing for connection %s",
				errors.ErrRegistryInconsistency, ws, connID))
			continue
		}
		delete(members, connID)
		if len(members) == 0 {
			delete(r.workspaceMembers, ws)
		}
	}
}

// LookupByUser returns the live presence record of a user, if any.
func (r *Registry) LookupByUser(userID uuid.UUID) (contract.Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.users[userID]
	return rec, ok
}

// LookupByWorkspace returns the connections currently registered for a
// workspace. The slice is a copy; callers never observe later mutations.
func (r *Registry) LookupByWorkspace(workspaceID uuid.UUID) []contract.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.workspaceMembers[workspaceID]
	if !ok {
		return nil
	}
	conns := make([]contract.Conn, 0, len(members))
	for _, conn := range members {
		conns = append(conns, conn)
	}
	return conns
}

// IsAuthenticated reports whether conn currently has an identity bound.
// Used as a guard before any dispatch that requires identity.
func (r *Registry) IsAuthenticated(conn contract.Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.identities[conn.ID()]
	return ok
}

// Identity returns the identity snapshot bound to conn.
func (r *Registry) Identity(conn contract.Conn) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[conn.ID()]
	return identity, ok
}
