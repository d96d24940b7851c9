package ws

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/sketch/internal/config"
)

func startServer(t *testing.T, handler SessionHandler) *Server {
	t.Helper()

	cfg := config.ServerConfig{
		Host:         "127.0.0.1",
		WSPort:       0, // random port
		WriteTimeout: 5 * time.Second,
	}
	srv := NewServer(cfg, handler, zaptest.NewLogger(t))

	go func() {
		_ = srv.Start()
	}()
	t.Cleanup(srv.Stop)

	deadline := time.After(2 * time.Second)
	for {
		if srv.IsRunning() && srv.Addr() != "" {
			return srv
		}
		select {
		case <-deadline:
			t.Fatal("server did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	socket, resp, err := websocket.DefaultDialer.Dial("ws://"+srv.Addr()+"/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { socket.Close() })
	return socket
}

func TestServerEchoSession(t *testing.T) {
	echo := SessionHandlerFunc(func(_ context.Context, conn *Conn) {
		for {
			frame, err := conn.ReadFrame()
			if err != nil {
				return
			}
			_ = conn.WriteFrame(append([]byte("echo: "), frame...))
		}
	})
	srv := startServer(t, echo)

	socket := dial(t, srv)
	require.NoError(t, socket.WriteMessage(websocket.TextMessage, []byte(`{"type":"connect"}`)))

	_ = socket.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := socket.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `echo: {"type":"connect"}`, string(payload))
}

func TestConnStripsTrailingNewlineOnWrite(t *testing.T) {
	echo := SessionHandlerFunc(func(_ context.Context, conn *Conn) {
		frame, err := conn.ReadFrame()
		if err != nil {
			return
		}
		// Reply with a newline-terminated frame, the way the router encodes.
		_ = conn.WriteFrame(append(frame, '\n'))
	})
	srv := startServer(t, echo)

	socket := dial(t, srv)
	require.NoError(t, socket.WriteMessage(websocket.TextMessage, []byte("payload")))

	_ = socket.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := socket.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(payload))
}

func TestServerRejectsPlainHTTP(t *testing.T) {
	srv := startServer(t, SessionHandlerFunc(func(context.Context, *Conn) {}))

	resp, err := http.Get("http://" + srv.Addr() + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServerStopUnblocksStart(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", WSPort: 0}
	srv := NewServer(cfg, SessionHandlerFunc(func(context.Context, *Conn) {}), zaptest.NewLogger(t))

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	deadline := time.After(2 * time.Second)
	for !srv.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("server did not start in time")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}

	srv.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop in time")
	}
}
