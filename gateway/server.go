package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sup-gateway/contract"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Server owns the websocket endpoint: it upgrades admitted handshakes,
// spawns the per-connection pumps, and guarantees that every connection is
// unregistered exactly once, whichever path closed it.
type Server struct {
	gate       *Gate
	dispatcher *Dispatcher
	registry   contract.IRegistry
	upgrader   websocket.Upgrader
	sendBuffer int
	log        *slog.Logger

	mu    sync.Mutex
	conns map[uuid.UUID]*Conn
	wg    sync.WaitGroup
}

func NewServer(gate *Gate, dispatcher *Dispatcher, registry contract.IRegistry,
	sendBuffer int, log *slog.Logger) *Server {
	return &Server{
		gate:       gate,
		dispatcher: dispatcher,
		registry:   registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin filtering belongs to the fronting proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuffer: sendBuffer,
		conns:      make(map[uuid.UUID]*Conn),
		log:        log,
	}
}

// Handler returns the HTTP handler exposing the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	return mux
}

// HandleWS authenticates the handshake, upgrades it, and registers the new
// connection. Rejections happen before the upgrade, so an unauthenticated
// client gets a plain 401 and never reaches the presence registry.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	identity, err := s.gate.Authenticate(r.Context(), r.Header)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConn(ws, s.sendBuffer, s.log)
	s.track(conn)
	s.gate.Admit(conn, identity)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		conn.writePump()
	}()
	go func() {
		defer s.wg.Done()
		s.readLoop(conn)
	}()
}

// readLoop feeds inbound frames to the dispatcher until the connection
// drops. Its deferred cleanup is the single owner of unregistration.
func (s *Server) readLoop(conn *Conn) {
	defer func() {
		s.registry.Unregister(conn)
		_ = conn.Close()
		s.untrack(conn)
		s.log.Info("Connection closed", "conn", conn.ID())
	}()

	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}
		// Dispatch errors are already reported to the connection.
		_ = s.dispatcher.HandleInbound(context.Background(), conn, raw)
	}
}

// Shutdown closes every live connection and waits for their pumps.
func (s *Server) Shutdown() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for _, conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	s.wg.Wait()
	s.log.Info("All connections closed", "count", len(conns))
}

func (s *Server) track(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ID()] = conn
}

func (s *Server) untrack(conn *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn.ID())
}
