package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Houeta/pricewatch/internal/bot"
	"github.com/Houeta/pricewatch/internal/config"
	"github.com/Houeta/pricewatch/internal/parser"
	"github.com/Houeta/pricewatch/internal/repository/memory"
	"github.com/Houeta/pricewatch/internal/repository/sqlite"
	"github.com/Houeta/pricewatch/internal/services/alerts"
	"github.com/Houeta/pricewatch/internal/services/checker"
	"github.com/Houeta/pricewatch/internal/services/monitor"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	repo, err := sqlite.NewRepository(ctx, logger, cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer repo.Close()

	catalog, err := memory.NewFixtureCatalog(logger, cfg.Search.Latency)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	alertService := alerts.NewService(logger, repo, catalog)

	pwBot, err := bot.NewBot(logger, cfg.Tg.Token, cfg.Tg.Timeout, bot.Deps{
		Alerts:        alertService,
		Catalog:       catalog,
		SearchTimeout: cfg.Search.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to init bot: %v", err)
	}
	alertService.SetNotifier(pwBot)

	// Without a feed the catalog never changes, the monitor only evaluates alerts.
	var priceChecker monitor.Checker
	if cfg.FeedURL != "" {
		priceChecker = checker.NewChecker(logger, parser.NewParser(logger, cfg.FeedURL), repo, catalog)
	} else {
		logger.WarnContext(ctx, "PW_FEED_URL is not set, vendor prices will not be refreshed")
	}
	priceMonitor := monitor.New(logger, priceChecker, alertService, cfg.Monitor.Interval)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the bot and the monitor in goroutines to allow main to listen for signals.
	go pwBot.Start()
	monitorDone := make(chan struct{})
	go func() {
		priceMonitor.Run(ctx)
		close(monitorDone)
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	// Stop the bot gracefully and let the running refresh cycle finish.
	pwBot.Stop()
	<-monitorDone

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified	 or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
