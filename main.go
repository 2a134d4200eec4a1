package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alliabson/cotacaoprodutos/internal/agroapi"
	"github.com/Alliabson/cotacaoprodutos/internal/bcb"
	"github.com/Alliabson/cotacaoprodutos/internal/cache"
	"github.com/Alliabson/cotacaoprodutos/internal/catalog"
	"github.com/Alliabson/cotacaoprodutos/internal/config"
	"github.com/Alliabson/cotacaoprodutos/internal/ratelimit"
	"github.com/Alliabson/cotacaoprodutos/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Product reference list: loaded once, passed explicitly from here on
	cat, err := catalog.Load(cfg.ProductsFile)
	if err != nil {
		log.Fatalf("Failed to load product catalog: %v", err)
	}
	logger.Info("product catalog loaded", "products", cat.Len())

	limiter := ratelimit.New()
	provider := agroapi.New(cfg.AgroAPIKey, cfg.AgroBaseURL, cfg.RequestTimeout, limiter, logger)
	rates := bcb.New(cfg.BCBBaseURL, cfg.RequestTimeout, limiter, logger)

	// A broken cache directory is not fatal: the service degrades to
	// direct fetches without caching.
	store, err := cache.NewStore(cfg.CacheDir, cfg.CacheTTL)
	if err != nil {
		logger.Warn("cache unavailable, running without local cache", "dir", cfg.CacheDir, "error", err)
		store = nil
	}

	svc := service.New(cat, provider, store, rates, logger)
	srv := newServer(svc, logger, cfg.DefaultWindow)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-sigChan
	fmt.Println("\nReceived interrupt signal, shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

// newLogger builds the process-wide structured logger.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
