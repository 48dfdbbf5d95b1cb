package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"sup-gateway/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// PushFrame is the wire shape of every server-originated event.
type PushFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Conn wraps one websocket connection. Identity is never attached to the
// transport object; the presence registry keeps that binding in its own
// tables, keyed by the connection id.
//
// Push is safe for concurrent use: frames go through a buffered channel
// drained by a single writer goroutine, so fan-out from several workers
// never interleaves writes on the socket.
type Conn struct {
	id   uuid.UUID
	ws   *websocket.Conn
	send chan PushFrame
	done chan struct{}
	once sync.Once
	log  *slog.Logger
}

func newConn(ws *websocket.Conn, bufferSize int, log *slog.Logger) *Conn {
	return &Conn{
		id:   uuid.New(),
		ws:   ws,
		send: make(chan PushFrame, bufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

// Push enqueues an outbound frame. It fails once the connection is closed
// or when the send buffer is full; the caller decides whether that matters
// (fan-out skips the target, dispatch reports it).
func (c *Conn) Push(eventName string, payload any) error {
	frame := PushFrame{Event: eventName, Payload: payload}
	select {
	case <-c.done:
		return errors.ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errors.ErrConnClosed
	default:
		return fmt.Errorf("%w: send buffer full", errors.ErrConnClosed)
	}
}

// Close tears the connection down. Idempotent: every close path (read
// error, write error, shutdown, gate rejection) may call it safely.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
	return nil
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. It owns all writes; it exits when the
// connection closes and closes it on any write error.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.log.Debug("Write failed, closing connection", "conn", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
