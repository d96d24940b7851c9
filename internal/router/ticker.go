package router

import (
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sketch/internal/game/registry"
	"github.com/cory-johannsen/sketch/internal/game/room"
	"github.com/cory-johannsen/sketch/internal/protocol"
)

// Ticker is the background round-timeout driver: on a fixed interval it calls
// UpdateTimeouts on every live room and notifies members when a round expired.
// Rooms never schedule themselves; this is the only timing source.
//
// Ticker implements the server Service interface.
type Ticker struct {
	logger   *zap.Logger
	registry *registry.Registry
	router   *Router
	interval time.Duration
	quit     chan struct{}
	done     chan struct{}
}

// NewTicker creates a ticker over the given registry. A non-positive interval
// falls back to one second.
//
// Precondition: logger, reg, and rt must be non-nil.
func NewTicker(logger *zap.Logger, reg *registry.Registry, rt *Router, interval time.Duration) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		logger:   logger,
		registry: reg,
		router:   rt,
		interval: interval,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called.
func (t *Ticker) Start() error {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return nil
		case <-ticker.C:
			t.Tick()
		}
	}
}

// Stop terminates the tick loop and waits for it to exit.
func (t *Ticker) Stop() {
	close(t.quit)
	<-t.done
}

// Tick sweeps every live room once, force-ending expired rounds and
// broadcasting the change. Exported so tests can drive sweeps directly.
func (t *Ticker) Tick() {
	t.registry.ForEach(func(r *room.Room) {
		if !r.UpdateTimeouts() {
			return
		}
		t.logger.Info("round timed out", zap.String("room_id", r.ID()))
		t.router.broadcastEvent(r.ID(), protocol.Event("round_timeout", map[string]any{
			"room_id": r.ID(),
		}))
		t.router.broadcastRoomUpdate(r)
	})
}
