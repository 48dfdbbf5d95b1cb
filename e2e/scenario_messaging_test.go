package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// MessagingSuite runs against a deployed gateway. It registers a fresh
// account over HTTP, opens a websocket with the returned token, and checks
// the connection survives a round trip.
type MessagingSuite struct {
	suite.Suite
	Config Config
}

func (s *MessagingSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GatewayAddr == "" {
		s.T().Skip("GATEWAY_ADDR not set, skipping e2e suite")
	}
}

func (s *MessagingSuite) registerAccount(email string) string {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": s.Config.Password,
	})
	s.Require().NoError(err)

	resp, err := http.Post(
		fmt.Sprintf("http://%s/auth/register", s.Config.GatewayAddr),
		"application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var reply struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&reply))
	s.Require().NotEmpty(reply.Token)
	return reply.Token
}

func (s *MessagingSuite) dial(token string) *websocket.Conn {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ws, resp, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/ws", s.Config.GatewayAddr), header)
	s.Require().NoError(err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return ws
}

func (s *MessagingSuite) TestRegisterConnectAndSend() {
	email := fmt.Sprintf("e2e-%s@example.com", uuid.NewString())

	// Register, then connect with the issued token
	token := s.registerAccount(email)
	ws := s.dial(token)
	defer ws.Close()

	// A direct message to ourselves comes back as an acknowledged result
	frame := fmt.Sprintf(
		`{"route":"message.create","payload":{"message":"e2e ping","destination_user":"%s"}}`,
		uuid.NewString())
	s.Require().NoError(ws.WriteMessage(websocket.TextMessage, []byte(frame)))

	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var reply struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	s.Require().NoError(ws.ReadJSON(&reply))
	s.Require().Equal("result", reply.Event)
	s.Require().Contains(string(reply.Payload), `"success":true`)
}

func (s *MessagingSuite) TestRejectsBadToken() {
	header := http.Header{}
	header.Set("Authorization", "Bearer not-a-real-token")
	_, resp, err := websocket.DefaultDialer.Dial(
		fmt.Sprintf("ws://%s/ws", s.Config.GatewayAddr), header)

	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, new(MessagingSuite))
}
