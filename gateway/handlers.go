package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sup-gateway/contract"
	"sup-gateway/domain"
	"sup-gateway/domain/event"
	"sup-gateway/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Result is the reply shape of the built-in routes, mirroring what clients
// already expect from the gateway.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type AuthPayload struct {
	Token string `json:"token" validate:"required"`
}

type CreateMessagePayload struct {
	Content              string `json:"message" validate:"required"`
	DestinationWorkspace string `json:"destination_workspace" validate:"omitempty,uuid"`
	DestinationUser      string `json:"destination_user" validate:"omitempty,uuid"`
	DestinationChannel   string `json:"destination_channel" validate:"omitempty,uuid"`
	Public               bool   `json:"is_public"`
}

type UpdateMessagePayload struct {
	UUID                 string `json:"uuid" validate:"required,uuid"`
	Content              string `json:"message" validate:"required"`
	DestinationWorkspace string `json:"destination_workspace" validate:"omitempty,uuid"`
	DestinationUser      string `json:"destination_user" validate:"omitempty,uuid"`
}

// HandlerSet carries the dependencies of the built-in routes. Handlers only
// validate, authorize and publish; message persistence happens elsewhere.
type HandlerSet struct {
	validator  contract.SessionValidator
	gate       *Gate
	authorizer contract.Authorizer
	events     chan<- event.DomainEvent
	log        *slog.Logger
}

func NewHandlerSet(v contract.SessionValidator, gate *Gate, authorizer contract.Authorizer,
	events chan<- event.DomainEvent, log *slog.Logger) *HandlerSet {
	return &HandlerSet{validator: v, gate: gate, authorizer: authorizer, events: events, log: log}
}

// RegisterRoutes builds the route table of the gateway. Called once at
// startup; a duplicate name surfaces as a configuration error.
func (h *HandlerSet) RegisterRoutes(routes *Routes) error {
	if err := routes.Register("auth", h.Auth); err != nil {
		return err
	}
	if err := routes.Register("message.create", h.CreateMessage); err != nil {
		return err
	}
	if err := routes.Register("message.update", h.UpdateMessage); err != nil {
		return err
	}
	return nil
}

// Auth re-authenticates an already-admitted connection. The new identity
// snapshot overwrites the previous binding; the old one is not preserved.
func (h *HandlerSet) Auth(ctx context.Context, req Request) (any, error) {
	var payload AuthPayload
	if err := decode(req.Payload, &payload); err != nil {
		return nil, err
	}

	identity, err := h.validator.Validate(ctx, payload.Token)
	if err != nil {
		return nil, err
	}
	h.gate.Admit(req.Conn, identity)
	return Result{Success: true}, nil
}

// CreateMessage validates and authorizes a client message, then publishes a
// message.created event for moderation and fan-out.
func (h *HandlerSet) CreateMessage(ctx context.Context, req Request) (any, error) {
	var payload CreateMessagePayload
	if err := decode(req.Payload, &payload); err != nil {
		return nil, err
	}

	destination, err := parseDestination(payload.DestinationWorkspace, payload.DestinationUser)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, req.Identity.UserID, destination); err != nil {
		return nil, err
	}

	message := domain.Message{
		ID:        uuid.New(),
		Content:   payload.Content,
		SourceID:  req.Identity.UserID,
		Public:    payload.Public,
		CreatedAt: time.Now().UTC(),
	}
	if payload.DestinationChannel != "" {
		message.ChannelID = uuid.MustParse(payload.DestinationChannel)
	}

	h.publish(event.Message{Kind: event.MessageCreated, Message: message, Destination: destination})
	return Result{Success: true, Message: "message created", Data: message}, nil
}

// UpdateMessage publishes a message.updated event for an edited message.
func (h *HandlerSet) UpdateMessage(ctx context.Context, req Request) (any, error) {
	var payload UpdateMessagePayload
	if err := decode(req.Payload, &payload); err != nil {
		return nil, err
	}

	destination, err := parseDestination(payload.DestinationWorkspace, payload.DestinationUser)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(ctx, req.Identity.UserID, destination); err != nil {
		return nil, err
	}

	message := domain.Message{
		ID:       uuid.MustParse(payload.UUID),
		Content:  payload.Content,
		SourceID: req.Identity.UserID,
	}

	h.publish(event.Message{Kind: event.MessageUpdated, Message: message, Destination: destination})
	return Result{Success: true, Message: "message updated", Data: message}, nil
}

// authorize consults the policy collaborator before acting. The gateway
// never evaluates policy itself; an unreachable authorizer denies.
func (h *HandlerSet) authorize(ctx context.Context, userID uuid.UUID, destination event.Destination) error {
	resource := "user:" + destination.UserID.String()
	if destination.ToWorkspace() {
		resource = "workspace:" + destination.WorkspaceID.String()
	}
	can, err := h.authorizer.Can(ctx, userID, resource)
	if err != nil {
		h.log.Warn("Authorizer unreachable, denying", "user", userID, "resource", resource, "error", err)
		return errors.ErrForbidden
	}
	if !can {
		return errors.ErrForbidden
	}
	return nil
}

// publish hands the event to the moderation/fan-out pipeline without ever
// blocking the connection's read loop.
func (h *HandlerSet) publish(evt event.DomainEvent) {
	select {
	case h.events <- evt:
	default:
		h.log.Warn(fmt.Sprintf("Event channel full, dropping %s", evt.EventName()))
	}
}

func decode(raw json.RawMessage, payload any) error {
	if err := json.Unmarshal(raw, payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if err := validate.Struct(payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func parseDestination(workspace, user string) (event.Destination, error) {
	var destination event.Destination
	if workspace != "" {
		id, err := uuid.Parse(workspace)
		if err != nil {
			return destination, fmt.Errorf("invalid destination_workspace: %w", err)
		}
		destination.WorkspaceID = id
	}
	if user != "" {
		id, err := uuid.Parse(user)
		if err != nil {
			return destination, fmt.Errorf("invalid destination_user: %w", err)
		}
		destination.UserID = id
	}
	return destination, nil
}
