package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmarchetti/cadenza/internal/catalog"
	"github.com/dmarchetti/cadenza/internal/config"
	"github.com/dmarchetti/cadenza/internal/handlers"
	"github.com/dmarchetti/cadenza/internal/logger"
	"github.com/dmarchetti/cadenza/internal/parsework"
	"github.com/dmarchetti/cadenza/internal/prefetch"
	"github.com/dmarchetti/cadenza/internal/store"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Provider, read-through cached
	provider := catalog.NewCachedProvider(catalog.NewHifiProvider(cfg.ProviderURL), db)

	// Initialize Parse Worker
	broker := parsework.NewBroker(appLogger)
	defer broker.Close()

	// Initialize Prefetch Scheduler
	scheduler := prefetch.NewScheduler(appLogger, provider, db, broker, prefetch.NewMemoryTable(), prefetch.Config{
		Behind:     cfg.PrefetchBehind,
		Ahead:      cfg.PrefetchAhead,
		StepDelay:  cfg.StepDelay,
		LocatorTTL: cfg.LocatorTTL,
	})
	defer scheduler.Close()

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	h := handlers.NewHandler(provider, db, scheduler, cfg.Quality, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
