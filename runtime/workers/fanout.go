package workers

import (
	"context"
	"log/slog"
	"time"

	"sup-gateway/contract"
	"sup-gateway/domain/event"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// FanoutNotifier reacts to domain events and pushes them to the right set
// of live connections, resolved through the presence registry.
//
// Delivery is best-effort to currently-live connections only: there is no
// queuing and no at-least-once guarantee. A push that fails on one target
// (closed socket, full buffer) is skipped and never aborts delivery to the
// remaining targets.
type FanoutNotifier struct {
	log      *slog.Logger
	registry contract.IRegistry
	events   chan event.DomainEvent
	sink     contract.EventSink
}

// NewFanoutNotifier builds the notifier. sink receives every routed event
// for audit purposes and may be nil.
func NewFanoutNotifier(log *slog.Logger, registry contract.IRegistry,
	events chan event.DomainEvent, sink contract.EventSink) *FanoutNotifier {
	return &FanoutNotifier{log: log, registry: registry, events: events, sink: sink}
}

func (w *FanoutNotifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fan-out")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				return nil
			}
			w.Notify(evt)
			if w.sink != nil {
				if err := w.sink.Consume(ctx, evt); err != nil {
					w.log.Debug("Audit sink rejected event", "event", evt.EventName(), "error", err)
				}
			}
		}
	}
}

// Notify routes one event to its targets.
func (w *FanoutNotifier) Notify(evt event.DomainEvent) {
	switch e := evt.(type) {
	case event.Message:
		w.deliver(e.EventName(), e.Destination, e.Message)
	case event.Reaction:
		w.deliver(e.EventName(), e.Destination, e.Reaction)
	case event.Notification:
		w.pushToUser(e.EventName().WireName(), e.Notification.RecipientID, e.Notification)
	case event.Membership:
		w.notifyMembership(e)
	default:
		w.log.Debug("No delivery rule for event", "event", evt.EventName())
	}
}

// deliver resolves the single destination of an event. Neither-set is a
// logged no-op, not an error; the producer owns the exactly-one rule.
func (w *FanoutNotifier) deliver(name event.Name, destination event.Destination, payload any) {
	switch {
	case destination.ToWorkspace():
		w.pushToWorkspace(name.WireName(), destination.WorkspaceID, payload)
	case destination.ToUser():
		w.pushToUser(name.WireName(), destination.UserID, payload)
	default:
		w.log.Info("Event carries no destination, ignoring", "event", name)
	}
}

func (w *FanoutNotifier) pushToWorkspace(wireName string, workspaceID uuid.UUID, payload any) {
	conns := w.registry.LookupByWorkspace(workspaceID)
	delivered := 0
	for _, conn := range conns {
		if err := conn.Push(wireName, payload); err != nil {
			w.log.Debug("Skipping unreachable target", "conn", conn.ID(), "error", err)
			continue
		}
		delivered++
	}
	w.log.Debug("Workspace fan-out done",
		"workspace", workspaceID, "event", wireName, "targets", len(conns), "delivered", delivered)
}

// pushToUser delivers to the user's single live connection; a user with no
// presence record simply misses the event.
func (w *FanoutNotifier) pushToUser(wireName string, userID uuid.UUID, payload any) {
	record, ok := w.registry.LookupByUser(userID)
	if !ok {
		w.log.Debug("User not connected, dropping event", "user", userID, "event", wireName)
		return
	}
	if err := record.Conn.Push(wireName, payload); err != nil {
		w.log.Debug("Skipping unreachable target", "conn", record.Conn.ID(), "error", err)
	}
}

// MembershipNotice is the payload pushed for workspace membership changes.
type MembershipNotice struct {
	WorkspaceID uuid.UUID `json:"workspace_uuid"`
	UserID      uuid.UUID `json:"user_uuid"`
	ActorID     uuid.UUID `json:"actor_uuid"`
	Timestamp   time.Time `json:"timestamp"`
}

// notifyMembership tells the subject directly, then the rest of the
// workspace except the subject and the actor who made the change.
func (w *FanoutNotifier) notifyMembership(e event.Membership) {
	wireName := e.EventName().WireName()
	notice := MembershipNotice{
		WorkspaceID: e.WorkspaceID,
		UserID:      e.SubjectID,
		ActorID:     e.ActorID,
		Timestamp:   time.Now().UTC(),
	}

	w.pushToUser(wireName, e.SubjectID, notice)

	conns := w.registry.LookupByWorkspace(e.WorkspaceID)
	targets := lo.Filter(conns, func(conn contract.Conn, _ int) bool {
		identity, ok := w.registry.Identity(conn)
		return ok && identity.UserID != e.SubjectID && identity.UserID != e.ActorID
	})
	for _, conn := range targets {
		if err := conn.Push(wireName, notice); err != nil {
			w.log.Debug("Skipping unreachable target", "conn", conn.ID(), "error", err)
		}
	}
}
