package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilichat/bili-parse-bot/internal/app"
	"github.com/bilichat/bili-parse-bot/internal/platform/config"
)

func main() {
	mode := flag.String("mode", "bot", "Service mode (bot, resolve)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, &logger)

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := runMode(ctx, application, *mode); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func runMode(ctx context.Context, application *app.App, mode string) error {
	switch mode {
	case "bot":
		return application.RunBot(ctx)
	case "resolve":
		text := strings.Join(flag.Args(), " ")
		if text == "" {
			log.Fatalf("Usage: %s --mode=resolve <message text or url>", os.Args[0])
		}

		return application.ResolveOnce(ctx, text)
	default:
		log.Fatalf("Usage: %s --mode=[bot|resolve]", os.Args[0])

		return nil
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
