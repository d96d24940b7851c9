// Package ws implements the WebSocket frontend. Each text message carries
// exactly one protocol frame, so browser clients speak the same line protocol
// as raw TCP clients without the newline plumbing.
package ws

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn adapts a WebSocket connection to the frame-based session interface.
type Conn struct {
	socket *websocket.Conn
	mu     sync.Mutex

	writeTimeout time.Duration
}

// NewConn wraps an upgraded WebSocket connection.
//
// Precondition: socket must be a live, upgraded connection.
func NewConn(socket *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{socket: socket, writeTimeout: writeTimeout}
}

// ReadFrame returns the next text message as one frame.
//
// Postcondition: Returns the message payload, or an error when the socket is
// closed or fails.
func (c *Conn) ReadFrame() ([]byte, error) {
	for {
		msgType, payload, err := c.socket.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		return payload, nil
	}
}

// WriteFrame writes one frame as a single text message, trailing newline
// stripped. Safe for concurrent use.
func (c *Conn) WriteFrame(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.socket.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.socket.WriteMessage(websocket.TextMessage, bytes.TrimRight(frame, "\n"))
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.socket.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() string {
	return c.socket.RemoteAddr().String()
}
