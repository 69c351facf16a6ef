package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danbi-labs/joonggo-radar/app/api"
	"github.com/danbi-labs/joonggo-radar/app/cfg"
	"github.com/danbi-labs/joonggo-radar/app/config"
	"github.com/danbi-labs/joonggo-radar/app/database"
	"github.com/danbi-labs/joonggo-radar/app/dispatch"
	"github.com/danbi-labs/joonggo-radar/app/engine"
	"github.com/danbi-labs/joonggo-radar/app/enrich"
	"github.com/danbi-labs/joonggo-radar/app/notifier"
	"github.com/danbi-labs/joonggo-radar/app/sources"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return // help was requested
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting joonggo-radar", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath)

	configCache := config.NewCache(appCfg.ConfigDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load watch configuration", "dir", appCfg.ConfigDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Watch configuration loaded",
		"keywords", configCache.GetKeywordCount(),
		"channels", len(configCache.GetChannels()))

	listingRepo := database.NewListingRepository(db, nil)
	notificationRepo := database.NewNotificationRepository(db)
	statsRepo := database.NewStatsRepository(db)

	timeout := time.Duration(appCfg.RequestTimeout) * time.Second
	client := sources.NewClient(timeout, appCfg.UserAgent, 1)

	registry := sources.NewRegistry()
	registry.Register(sources.NewDanggeunSource(client))
	registry.Register(sources.NewBunjangSource(client))
	registry.Register(sources.NewJoonggonaraSource(client))
	for _, feed := range configCache.GetRSSFeeds() {
		registry.Register(sources.NewRSSSource(client, feed.Name, feed.URL))
	}
	slog.Info("Sources registered", "platforms", registry.Names())

	dispatcher := dispatch.New(notificationRepo, buildChannels(configCache))
	extractor := enrich.NewExtractor(client)

	eng := engine.New(configCache, registry, listingRepo, statsRepo, dispatcher, extractor)
	eng.Start()
	defer eng.Stop()

	handler := api.NewHandler(listingRepo, notificationRepo, statsRepo, configCache, eng)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	// Engine is stopped via defer.
}

// buildChannels turns the channel configuration into dispatcher channels.
func buildChannels(configCache *config.Cache) []dispatch.Channel {
	var channels []dispatch.Channel
	for _, ch := range configCache.GetChannels() {
		if !ch.Enabled {
			slog.Debug("Channel disabled, skipping", "type", ch.Type, "name", ch.Name)
			continue
		}

		var n notifier.Notifier
		switch ch.Type {
		case "telegram":
			n = notifier.NewTelegram(ch.ChannelKey(), ch.Token, ch.ChatID)
		case "discord":
			n = notifier.NewDiscord(ch.ChannelKey(), ch.WebhookURL)
		case "slack":
			n = notifier.NewSlack(ch.ChannelKey(), ch.WebhookURL)
		default:
			continue
		}

		channels = append(channels, dispatch.Channel{
			Notifier: n,
			Key:      ch.ChannelKey(),
			Schedule: ch.Schedule,
		})
		slog.Info("Notification channel configured", "channel", ch.ChannelKey())
	}
	return channels
}
