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

	"github.com/WildDogOne/RSS/app/api"
	"github.com/WildDogOne/RSS/app/cfg"
	"github.com/WildDogOne/RSS/app/database"
	"github.com/WildDogOne/RSS/app/llm"
	"github.com/WildDogOne/RSS/app/opml"
	"github.com/WildDogOne/RSS/app/pipeline"
	"github.com/WildDogOne/RSS/app/seed"
	"github.com/WildDogOne/RSS/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// Help was shown, exit gracefully
		return
	}

	level := slog.LevelInfo
	if config.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting RSS reader", "version", config.Version)

	db, err := database.NewConnection(config.DBPath)
	if err != nil {
		slog.Error("Database connection failed", "path", config.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", config.DBPath, "schema_version", version, "dirty", dirty)

	model := llm.NewClient(config.OllamaURL, config.OllamaModel,
		time.Duration(config.LLMTimeout)*time.Second)

	service := pipeline.NewService(db, model, config.UserAgent, 30*time.Second)

	registerSeedFeeds(service, config)

	scheduler := tasks.NewScheduler(service, time.Duration(config.RefreshInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(service, model, config.Version)
	router := api.NewServer(handler, config.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", config.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// registerSeedFeeds imports feeds from the optional YAML seed file and OPML
// file. Failures are logged, not fatal: the server is still useful with
// whatever feeds are already registered.
func registerSeedFeeds(service *pipeline.Service, config *cfg.Cfg) {
	ctx := context.Background()

	seeds, err := seed.Load(config.FeedsFile)
	if err != nil {
		slog.Error("Seed file load failed", "path", config.FeedsFile, "error", err)
	}
	for _, f := range seeds {
		if _, err := service.RegisterFeed(ctx, f.URL, f.Title, f.Category, f.Security); err != nil {
			slog.Error("Seed feed registration failed", "url", f.URL, "error", err)
		}
	}
	if len(seeds) > 0 {
		slog.Info("Seed feeds registered", "count", len(seeds), "path", config.FeedsFile)
	}

	if config.OPMLFile == "" {
		return
	}
	data, err := os.ReadFile(config.OPMLFile)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("OPML file read failed", "path", config.OPMLFile, "error", err)
		}
		return
	}
	feeds, err := opml.Parse(data)
	if err != nil {
		slog.Error("OPML parse failed", "path", config.OPMLFile, "error", err)
		return
	}
	for _, f := range feeds {
		if _, err := service.RegisterFeed(ctx, f.URL, f.Title, f.Category, false); err != nil {
			slog.Error("OPML feed registration failed", "url", f.URL, "error", err)
		}
	}
	slog.Info("OPML feeds registered", "count", len(feeds), "path", config.OPMLFile)
}
