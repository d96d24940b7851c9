// Package main provides the sketchd binary: the draw-and-guess session
// server speaking the line-delimited JSON protocol over TCP and,
// optionally, WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/sketch/internal/config"
	"github.com/cory-johannsen/sketch/internal/frontend/stream"
	"github.com/cory-johannsen/sketch/internal/frontend/ws"
	"github.com/cory-johannsen/sketch/internal/game/registry"
	"github.com/cory-johannsen/sketch/internal/game/room"
	"github.com/cory-johannsen/sketch/internal/game/words"
	"github.com/cory-johannsen/sketch/internal/observability"
	"github.com/cory-johannsen/sketch/internal/router"
	"github.com/cory-johannsen/sketch/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	wordsDir := flag.String("words-dir", "", "directory of YAML word packs; overrides words.dir from config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting sketch server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Load the word pool.
	dir := cfg.Words.Dir
	if *wordsDir != "" {
		dir = *wordsDir
	}
	wordStart := time.Now()
	pool, err := words.LoadPool(dir)
	if err != nil {
		logger.Fatal("loading word packs", zap.String("dir", dir), zap.Error(err))
	}
	logger.Info("word pool loaded",
		zap.Int("words", len(pool)),
		zap.Duration("elapsed", time.Since(wordStart)),
	)

	// Build the game core.
	reg := registry.New(func(id string) *room.Room {
		return room.New(id, pool, room.Options{
			MinPlayers: cfg.Game.MinPlayers,
			MaxPlayers: cfg.Game.MaxPlayers,
			DrawTime:   cfg.Game.DrawTime,
		}, room.SystemClock())
	})
	rt := router.New(logger, reg)
	ticker := router.NewTicker(logger, reg, rt, cfg.Game.TickInterval)

	// Frontends hand every connection to the same router.
	acceptor := stream.NewAcceptor(cfg.Server, stream.SessionHandlerFunc(
		func(ctx context.Context, conn *stream.Conn) {
			rt.HandleSession(ctx, conn)
		},
	), logger)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("stream", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	if cfg.Server.WSPort > 0 {
		wsServer := ws.NewServer(cfg.Server, ws.SessionHandlerFunc(
			func(ctx context.Context, conn *ws.Conn) {
				rt.HandleSession(ctx, conn)
			},
		), logger)
		lifecycle.Add("websocket", wsServer)
	}

	lifecycle.Add("ticker", ticker)

	logger.Info("sketch server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
