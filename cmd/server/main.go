package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/asciitv/internal/channel"
	"github.com/dgnsrekt/asciitv/internal/config"
	"github.com/dgnsrekt/asciitv/internal/logging"
	"github.com/dgnsrekt/asciitv/internal/server"
	"github.com/dgnsrekt/asciitv/internal/stream"
	"github.com/dgnsrekt/asciitv/internal/ws"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load config
	cfg, err := config.Load(os.Getenv("ASCIITV_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Setup logger
	logger, err := logging.New(cfg.Logging, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("addr", cfg.Server.Address()),
		zap.Duration("interval", cfg.Server.Interval),
		zap.Int("channels", len(cfg.Channels)),
		zap.String("statusAddr", cfg.Status.Addr),
		zap.Bool("wsEnabled", cfg.Status.WebSocket),
	)

	defs := make([]channel.Definition, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		defs[i] = channel.Definition{Name: cfg.ChannelName(i), Source: ch.File}
	}
	registry := channel.NewRegistry(defs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One broadcaster per channel. A failed channel goes off air on its own.
	for _, state := range registry.All() {
		b := channel.NewBroadcaster(state, cfg.Server.Interval, nil, logger)
		go b.Run(ctx)
	}

	dispatcher := stream.NewDispatcher(registry, stream.Options{
		Interval:         cfg.Server.Interval,
		HandshakeTimeout: cfg.Server.HandshakeTimeout,
		AcceptRate:       cfg.Server.AcceptRate,
		AcceptBurst:      cfg.Server.AcceptBurst,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.ListenAndServe(gctx, cfg.Server.Address())
	})

	if cfg.Status.Addr != "" {
		var viewers http.Handler
		if cfg.Status.WebSocket {
			viewers = ws.NewHandler(gctx, registry, cfg.Server.Interval, nil, logger)
		}

		httpServer := &http.Server{
			Addr:        cfg.Status.Addr,
			Handler:     server.NewRouter(registry, viewers, logger),
			ReadTimeout: 30 * time.Second,
		}

		g.Go(func() error {
			logger.Info("starting status server", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
