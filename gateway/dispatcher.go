package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"sup-gateway/contract"
	"sup-gateway/errors"
)

// InboundFrame is the wire shape of every client event:
// a route name plus an opaque payload.
type InboundFrame struct {
	Route   string          `json:"route"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorFrame is pushed back when a frame cannot be dispatched.
type ErrorFrame struct {
	Route string `json:"route,omitempty"`
	Error string `json:"error"`
}

// Dispatcher routes inbound frames from authenticated connections to the
// handlers of the route table. Dispatch is synchronous per frame; frames
// from different connections run concurrently on their own read loops.
type Dispatcher struct {
	routes   *Routes
	registry contract.IRegistry
	log      *slog.Logger
}

func NewDispatcher(routes *Routes, registry contract.IRegistry, log *slog.Logger) *Dispatcher {
	return &Dispatcher{routes: routes, registry: registry, log: log}
}

// HandleInbound processes one raw frame from conn. Failures are reported
// back to the connection as error frames, never silently dropped, and the
// returned error mirrors what was reported so callers can count failures.
func (d *Dispatcher) HandleInbound(ctx context.Context, conn contract.Conn, raw []byte) error {
	identity, ok := d.registry.Identity(conn)
	if !ok {
		d.pushError(conn, ErrorFrame{Error: errors.ErrUnauthenticated.Error()})
		return errors.ErrUnauthenticated
	}

	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.pushError(conn, ErrorFrame{Error: "malformed frame"})
		return fmt.Errorf("dispatcher: malformed frame from %s: %w", conn.ID(), err)
	}

	handler, found := d.routes.Lookup(frame.Route)
	if !found {
		err := errors.RouteNotFound(frame.Route)
		d.pushError(conn, ErrorFrame{Route: frame.Route, Error: err.Error()})
		return err
	}

	resp, err := handler(ctx, Request{Conn: conn, Identity: identity, Payload: frame.Payload})
	if err != nil {
		d.log.Warn("Route handler failed", "route", frame.Route, "user", identity.UserID, "error", err)
		d.pushError(conn, ErrorFrame{Route: frame.Route, Error: err.Error()})
		return err
	}
	if resp != nil {
		if err := conn.Push("result", resp); err != nil {
			return fmt.Errorf("dispatcher: push result for route %q: %w", frame.Route, err)
		}
	}
	return nil
}

func (d *Dispatcher) pushError(conn contract.Conn, frame ErrorFrame) {
	if err := conn.Push("error", frame); err != nil {
		d.log.Debug("Could not report dispatch error", "conn", conn.ID(), "error", err)
	}
}
