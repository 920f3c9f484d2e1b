package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"rent-stress/internal/api"
	"rent-stress/internal/api/handlers"
	"rent-stress/internal/api/middleware"
	"rent-stress/internal/config"
	"rent-stress/internal/scenario"
	"rent-stress/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not read .env: %v", err)
	}

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	assumptions := os.Getenv("ASSUMPTIONS_FILE")
	if assumptions == "" {
		assumptions = "examples/assumptions.yaml"
	}

	cfg, err := config.Load(assumptions)
	if err != nil {
		log.Fatalf("Failed to load assumptions %s: %v", assumptions, err)
	}
	log.Printf("Loaded assumptions from %s (%d presets, default %q)",
		assumptions, len(cfg.Calibration.Presets), cfg.Calibration.DefaultPreset)

	// The run archive is optional; without it sweeps are served but not kept.
	var runs handlers.RunStore
	if dbPath := os.Getenv("RUNS_DB"); dbPath != "" {
		s, err := store.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open run archive %s: %v", dbPath, err)
		}
		defer s.Close()
		runs = s
		log.Printf("Archiving runs to %s", dbPath)
	} else {
		log.Printf("RUNS_DB not set, run archive disabled")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var cache *scenario.Cache
	if raw := os.Getenv("SWEEP_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("Invalid SWEEP_CACHE_TTL %q: %v", raw, err)
		}
		cache = scenario.StartCache(ctx, ttl)
		log.Printf("Caching sweep outcomes for %s", ttl)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(cfg, api.Options{
		Runs:        runs,
		Cache:       cache,
		CORSOrigins: middleware.SplitOrigins(os.Getenv("CORS_ORIGINS")),
	})

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
