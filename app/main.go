package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/dokibot/club-assistant/app/api"
	"github.com/dokibot/club-assistant/app/bot"
	"github.com/dokibot/club-assistant/app/cfg"
	"github.com/dokibot/club-assistant/app/database"
	"github.com/dokibot/club-assistant/app/dedup"
	"github.com/dokibot/club-assistant/app/liveness"
	"github.com/dokibot/club-assistant/app/notify"
	"github.com/dokibot/club-assistant/app/quotes"
	"github.com/dokibot/club-assistant/app/source"
	"github.com/dokibot/club-assistant/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting ClubAssistant", "version", appCfg.Version)

	quoteStore, err := quotes.Load(appCfg.QuotesFile)
	if err != nil {
		slog.Error("Failed to load quotes", "file", appCfg.QuotesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Quotes loaded", "characters", len(quoteStore.Characters()))

	configCache := source.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load source configurations", "dir", appCfg.SourcesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Source configurations loaded", "total", configCache.GetConfigCount(), "enabled", configCache.GetEnabledCount())

	store, cleanup, err := newSeenStore(appCfg.StateDB)
	if err != nil {
		slog.Error("Failed to initialize seen-state store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	fetcher := source.NewFetcher(httpClient, appCfg.UserAgent)
	checker := liveness.NewChecker(appCfg.UserAgent)
	serverCfg := notify.NewServerConfig()

	discordBot, err := bot.New(serverCfg, configCache, fetcher, checker, quoteStore)
	if err != nil {
		slog.Error("Failed to create discord bot", "error", err)
		os.Exit(1)
	}
	if err := discordBot.Run(); err != nil {
		slog.Error("Failed to start discord bot", "error", err)
		os.Exit(1)
	}
	defer discordBot.Close()

	pipeline := notify.NewPipeline(configCache, fetcher, store, checker,
		discordBot.Delivery(), serverCfg, appCfg.NotifyOnStartup)

	scheduler := tasks.NewScheduler(pipeline, time.Duration(appCfg.CheckInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "interval", appCfg.CheckInterval)

	apiHandler := api.NewHandler(configCache, store, serverCfg, pipeline, appCfg.Version)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// newSeenStore selects the seen-state backend: sqlite when a path is
// configured, in-memory otherwise.
func newSeenStore(path string) (dedup.Store, func(), error) {
	if path == "" {
		slog.Info("Using in-memory seen-state store")
		return dedup.NewMemoryStore(), func() {}, nil
	}

	db, err := database.NewConnection(path)
	if err != nil {
		return nil, nil, err
	}

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty, "path", path)

	return database.NewSeenRepository(db), func() { db.Close() }, nil
}
