// Package gateway is the websocket edge of the Sup chat system: it admits
// and authenticates connections, dispatches their inbound frames to named
// routes, and owns the transport objects the presence registry points at.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/errors"
)

// Request is what a route handler receives: the originating connection, the
// identity bound to it, and the raw payload of the frame.
type Request struct {
	Conn     contract.Conn
	Identity domain.Identity
	Payload  json.RawMessage
}

// Handler processes one inbound frame. The returned value, if non-nil, is
// pushed back to the caller as a result frame.
type Handler func(ctx context.Context, req Request) (any, error)

// Routes is the route table: a name-to-handler mapping built once at
// startup and read-only afterwards. There is no dynamic registration and no
// reflection; handlers are registered explicitly in the composition root.
type Routes struct {
	handlers map[string]Handler
}

func NewRoutes() *Routes {
	return &Routes{handlers: make(map[string]Handler)}
}

// Register adds a handler under a route name. Registering the same name
// twice is a startup configuration error, not a runtime condition.
func (r *Routes) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("routes: empty route name")
	}
	if h == nil {
		return fmt.Errorf("routes: nil handler for route %q", name)
	}
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %q", errors.ErrRouteConflict, name)
	}
	r.handlers[name] = h
	return nil
}

// Lookup resolves a route name with exact, case-sensitive matching.
func (r *Routes) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
