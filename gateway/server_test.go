package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sup-gateway/domain"
	"sup-gateway/domain/event"
	"sup-gateway/mocks"
	"sup-gateway/moderation"
	"sup-gateway/runtime"
	"sup-gateway/runtime/workers"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// receivedFrame mirrors PushFrame on the client side of the socket.
type receivedFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// gatewayFixture wires a full gateway around a mocked session validator:
// real registry, real routes and handlers, real moderation and fan-out
// workers, all behind an httptest server.
type gatewayFixture struct {
	url       string
	validator *mocks.MockSessionValidator
	registry  *runtime.Registry
	cancel    context.CancelFunc
}

func startGateway(t *testing.T, ctrl *gomock.Controller) *gatewayFixture {
	t.Helper()
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	mockValidator := mocks.NewMockSessionValidator(ctrl)
	registry := runtime.NewRegistry(log)
	authorizer := runtime.NewMembershipAuthorizer(registry, log)
	gate := NewGate(mockValidator, registry, log)

	incoming := make(chan event.DomainEvent, 16)
	outgoing := make(chan event.DomainEvent, 16)

	routes := NewRoutes()
	handlers := NewHandlerSet(mockValidator, gate, authorizer, incoming, log)
	req.NoError(handlers.RegisterRoutes(routes))
	dispatcher := NewDispatcher(routes, registry, log)
	server := NewServer(gate, dispatcher, registry, 16, log)

	moderator, err := moderation.NewModerator([]string{"badger"}, '*', log)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = workers.NewModerationWorker(moderator, incoming, outgoing, log).Run(ctx) }()
	go func() { _ = workers.NewFanoutNotifier(log, registry, outgoing, nil).Run(ctx) }()

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		cancel()
		server.Shutdown()
		ts.Close()
	})

	return &gatewayFixture{
		url:       "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
		validator: mockValidator,
		registry:  registry,
		cancel:    cancel,
	}
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

// readUntil drains frames until one matches the wanted event name.
func readUntil(t *testing.T, ws *websocket.Conn, eventName string) receivedFrame {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, ws.SetReadDeadline(deadline))
	for {
		var frame receivedFrame
		require.NoError(t, ws.ReadJSON(&frame))
		if frame.Event == eventName {
			return frame
		}
	}
}

func TestGateway_EndToEnd_Workspace_Message(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	fixture := startGateway(t, ctrl)

	// Given users A and B sharing one workspace
	workspaceID := uuid.New()
	userA := uuid.New()
	userB := uuid.New()
	fixture.validator.EXPECT().Validate(gomock.Any(), "token-a").
		Return(domain.Identity{UserID: userA, Workspaces: []uuid.UUID{workspaceID}}, nil)
	fixture.validator.EXPECT().Validate(gomock.Any(), "token-b").
		Return(domain.Identity{UserID: userB, Workspaces: []uuid.UUID{workspaceID}}, nil)

	wsA := dial(t, fixture.url, "token-a")
	wsB := dial(t, fixture.url, "token-b")

	// Wait until both presences are visible
	req.Eventually(func() bool {
		return len(fixture.registry.LookupByWorkspace(workspaceID)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// When A posts a message with a censored word to the workspace
	frame := fmt.Sprintf(
		`{"route":"message.create","payload":{"message":"hello badger","destination_workspace":"%s"}}`,
		workspaceID)
	req.NoError(wsA.WriteMessage(websocket.TextMessage, []byte(frame)))

	// Then A gets an acknowledgement
	result := readUntil(t, wsA, "result")
	req.Contains(string(result.Payload), `"success":true`)

	// And both members receive exactly one censored copy
	for _, ws := range []*websocket.Conn{wsA, wsB} {
		pushed := readUntil(t, ws, "message_received")
		var message domain.Message
		req.NoError(json.Unmarshal(pushed.Payload, &message))
		req.Equal("hello ******", message.Content)
		req.Equal(userA, message.SourceID)
	}
}

func TestGateway_EndToEnd_Rejects_Unauthenticated_Handshake(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	fixture := startGateway(t, ctrl)

	// No Authorization header at all
	_, resp, err := websocket.DefaultDialer.Dial(fixture.url, nil)

	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestGateway_EndToEnd_Unauthorized_Workspace_Is_Forbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	fixture := startGateway(t, ctrl)

	userID := uuid.New()
	fixture.validator.EXPECT().Validate(gomock.Any(), "token-x").
		Return(domain.Identity{UserID: userID, Workspaces: []uuid.UUID{uuid.New()}}, nil)

	ws := dial(t, fixture.url, "token-x")
	req.Eventually(func() bool {
		_, ok := fixture.registry.LookupByUser(userID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	// A workspace the user is not a member of
	frame := fmt.Sprintf(
		`{"route":"message.create","payload":{"message":"hi","destination_workspace":"%s"}}`,
		uuid.New())
	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte(frame)))

	errFrame := readUntil(t, ws, "error")
	req.Contains(string(errFrame.Payload), "forbidden")
}

func TestGateway_EndToEnd_Unknown_Route_Is_Named(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	fixture := startGateway(t, ctrl)

	userID := uuid.New()
	fixture.validator.EXPECT().Validate(gomock.Any(), "token-y").
		Return(domain.Identity{UserID: userID}, nil)

	ws := dial(t, fixture.url, "token-y")
	req.Eventually(func() bool {
		_, ok := fixture.registry.LookupByUser(userID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(ws.WriteMessage(websocket.TextMessage, []byte(`{"route":"no.such.route"}`)))

	errFrame := readUntil(t, ws, "error")
	req.Contains(string(errFrame.Payload), "no.such.route")
}

func TestGateway_EndToEnd_Disconnect_Clears_Presence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	req := require.New(t)
	fixture := startGateway(t, ctrl)

	userID := uuid.New()
	workspaceID := uuid.New()
	fixture.validator.EXPECT().Validate(gomock.Any(), "token-z").
		Return(domain.Identity{UserID: userID, Workspaces: []uuid.UUID{workspaceID}}, nil)

	ws := dial(t, fixture.url, "token-z")
	req.Eventually(func() bool {
		_, ok := fixture.registry.LookupByUser(userID)
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	req.NoError(ws.Close())

	req.Eventually(func() bool {
		_, ok := fixture.registry.LookupByUser(userID)
		return !ok && len(fixture.registry.LookupByWorkspace(workspaceID)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
