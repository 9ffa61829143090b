package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codyseavey/rivals-companion/internal/api"
	"github.com/codyseavey/rivals-companion/internal/config"
	"github.com/codyseavey/rivals-companion/internal/database"
	"github.com/codyseavey/rivals-companion/internal/services"
)

func main() {
	cfg := config.Load()

	if cfg.RivalsAPIKey == "" {
		log.Println("WARNING: RIVALS_API_KEY is not set; game-data requests will be rejected upstream")
	}

	// Initialize database
	db, err := database.Initialize(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize services; each one is constructed once here and passed by
	// reference, so rate-limit state and the roster cache are shared without
	// package-level singletons.
	rivalsService := services.NewRivalsService(cfg.RivalsAPIKey, cfg.RivalsBaseURL, cfg.RivalsImageBase)
	favoritesService := services.NewFavoritesService(db)
	assistantService := services.NewAssistantService(
		cfg.GeminiAPIKey, cfg.GeminiModel,
		cfg.MinRequestInterval, cfg.RequestsPerMinute,
		rivalsService, favoritesService,
	)

	router := api.SetupRouter(rivalsService, assistantService, favoritesService)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
