// Package server coordinates the long-running pieces of the game binary.
// Listeners and the round ticker register as services; they start together
// and wind down in reverse order on a signal or on the first failure.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component owned by the lifecycle.
type Service interface {
	// Start blocks until the service is stopped or fails.
	Start() error
	// Stop gracefully stops the service.
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

func (f *FuncService) Start() error { return f.StartFn() }
func (f *FuncService) Stop()        { f.StopFn() }

type entry struct {
	name string
	svc  Service
}

// Lifecycle starts registered services in order and stops them in reverse,
// so transports come down before the shared state they feed.
type Lifecycle struct {
	logger  *zap.Logger
	mu      sync.Mutex
	entries []entry
}

// NewLifecycle creates an empty lifecycle.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger) *Lifecycle {
	return &Lifecycle{logger: logger}
}

// Add registers a named service. Start order is registration order.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry{name: name, svc: svc})
}

// Run starts every registered service and blocks until SIGINT/SIGTERM, a
// context cancellation, or a service failure, then stops all services in
// reverse order.
//
// Postcondition: All services are stopped; if a service's Start failed, its
// error is returned so the caller can exit non-zero.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(l.entries))
	for _, e := range l.entries {
		e := e
		go func() {
			l.logger.Info("starting service", zap.String("service", e.name))
			if err := e.svc.Start(); err != nil {
				errCh <- fmt.Errorf("service %s: %w", e.name, err)
				cancel()
			}
		}()
	}

	l.logger.Info("all services started",
		zap.Int("count", len(l.entries)),
		zap.Duration("startup", time.Since(start)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case runErr = <-errCh:
		l.logger.Error("service failed, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	l.stopAll()

	if runErr == nil {
		// A failing service cancels the context itself, so its
		// cancellation can win the select above before its error lands.
		select {
		case runErr = <-errCh:
		default:
		}
	}

	l.logger.Info("shutdown complete",
		zap.Duration("uptime", time.Since(start)),
	)
	return runErr
}

func (l *Lifecycle) stopAll() {
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		stopStart := time.Now()
		e.svc.Stop()
		l.logger.Info("service stopped",
			zap.String("service", e.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}
}
