//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"sup-gateway/domain"
	"sup-gateway/domain/event"

	"github.com/google/uuid"
)

// Conn is one live bidirectional channel to a remote client. Implementations
// must make Push and Close safe for concurrent use; Close must be idempotent.
type Conn interface {
	ID() uuid.UUID
	// Push writes an outbound frame {event, payload} to the client.
	// It fails with errors.ErrConnClosed once the connection is gone.
	Push(eventName string, payload any) error
	Close() error
}

// SessionStore is the external session storage the validator reads from.
// The gateway never creates sessions on its own; the auth service does.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
	Revoke(ctx context.Context, sessionID uuid.UUID) error
}

// SessionValidator turns an opaque credential into an identity, or rejects
// it with a uniform unauthenticated error.
type SessionValidator interface {
	Validate(ctx context.Context, credential string) (domain.Identity, error)
}

// Authorizer is the policy collaborator consulted before non-connection
// actions. The gateway only calls out to it, it never evaluates policy.
type Authorizer interface {
	Can(ctx context.Context, userID uuid.UUID, resource string) (bool, error)
}

// Record is the live binding of one identity to one connection.
type Record struct {
	Conn     Conn
	Identity domain.Identity
}

// IRegistry tracks which users are connected and which workspaces their
// identity snapshot belongs to.
type IRegistry interface {
	Register(conn Conn, identity domain.Identity)
	Unregister(conn Conn)
	LookupByUser(userID uuid.UUID) (Record, bool)
	LookupByWorkspace(workspaceID uuid.UUID) []Conn
	IsAuthenticated(conn Conn) bool
	Identity(conn Conn) (domain.Identity, bool)
}

// EventSink consumes domain events for side effects (audit, telemetry).
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type WorkerName string

// Worker doesn't protect itself; the supervisor does.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, avoiding manual naming in Worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
