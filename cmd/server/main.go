package main

import (
	"context"
	"errors"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"bigtwo/internal/app"
	"bigtwo/internal/config"
	"bigtwo/internal/ports"
	"bigtwo/internal/ports/redisfanout"
	"bigtwo/internal/ports/ws"
	"bigtwo/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML/JSON/TOML config file")
	flag.Parse()

	if err := config.LoadServerConfig(*configPath); err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	cfg := config.GetServerConfig()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(cfg *config.ServerConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg *config.ServerConfig, logger zerolog.Logger) error {
	signer, err := session.NewSigner(cfg.Session.Secret, cfg.Session.TTL)
	if err != nil {
		return err
	}
	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())))
	hub := ws.NewHub(logger)

	var (
		events ports.EventPublisher = hub
		rdb    *redis.Client
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		events = redisfanout.NewPublisher(rdb, cfg.Redis.ChannelPrefix)
	}

	server := ws.NewServer(svc, signer, hub, events, cfg, logger)
	if rdb != nil {
		server.WithForwarder(redisfanout.NewForwarder(rdb, cfg.Redis.ChannelPrefix))
		relay := redisfanout.NewRelay(rdb, cfg.Redis.ChannelPrefix, hub, logger)
		actions := redisfanout.NewActionRelay(rdb, cfg.Redis.ChannelPrefix, server, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("redis relay stopped")
			}
		}()
		go func() {
			if err := actions.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("redis action relay stopped")
			}
		}()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis fan-out enabled")
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
