package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cory-johannsen/sketch/internal/config"
)

// SessionHandler processes one connected WebSocket session.
type SessionHandler interface {
	HandleSession(ctx context.Context, conn *Conn)
}

// SessionHandlerFunc adapts a function into the SessionHandler interface.
type SessionHandlerFunc func(ctx context.Context, conn *Conn)

// HandleSession calls the underlying function.
func (f SessionHandlerFunc) HandleSession(ctx context.Context, conn *Conn) { f(ctx, conn) }

// Server upgrades HTTP requests at /ws and hands each connection to a
// SessionHandler. It implements the server Service interface.
type Server struct {
	cfg     config.ServerConfig
	handler SessionHandler
	logger  *zap.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewServer creates a WebSocket server with the given configuration.
//
// Precondition: cfg must have a valid ws port; handler and logger must be non-nil.
func NewServer(cfg config.ServerConfig, handler SessionHandler, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy is the deployment proxy's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start binds the HTTP listener and serves upgrade requests until Stop is
// called. This method blocks until the server is stopped.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)

	listener, err := net.Listen("tcp", s.cfg.WSAddr())
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = listener
	s.httpSrv = &http.Server{Handler: mux}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("websocket server listening",
		zap.String("addr", listener.Addr().String()),
	)

	if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, waiting briefly for in-flight upgrades.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Warn("websocket server shutdown", zap.Error(err))
	}
	s.logger.Info("websocket server stopped")
}

// Addr returns the actual listening address, or empty string if not yet listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// IsRunning returns whether the server is accepting upgrade requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	addr := socket.RemoteAddr().String()
	s.logger.Info("websocket client connected", zap.String("remote_addr", addr))
	start := time.Now()

	conn := NewConn(socket, s.cfg.WriteTimeout)
	defer conn.Close()

	s.handler.HandleSession(r.Context(), conn)

	s.logger.Info("websocket client disconnected",
		zap.String("remote_addr", addr),
		zap.Duration("duration", time.Since(start)),
	)
}
