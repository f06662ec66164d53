// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elsharkawy159/tallaby-sub003/internal/config"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/cart"
	"github.com/elsharkawy159/tallaby-sub003/internal/domain/checkout"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/cartrepo"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/database/postgres"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/database/redis"
	"github.com/elsharkawy159/tallaby-sub003/internal/infrastructure/orderrepo"
	"github.com/elsharkawy159/tallaby-sub003/internal/interfaces/http"
	"github.com/elsharkawy159/tallaby-sub003/internal/interfaces/http/routes"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/identity"
	"github.com/elsharkawy159/tallaby-sub003/internal/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	logger := logging.New(cfg)

	// Connect to database
	db, err := postgres.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Health check
	if err := db.Health(); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}

	if err := redisClient.Health(); err != nil {
		log.Fatalf("Redis health check failed: %v", err)
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB())

	if err := migration.RunAutoMigrations(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	if err := migration.CreateIndexes(); err != nil {
		log.Printf("Warning: Index creation failed: %v", err)
	}

	// Wire the cart engine and its collaborators
	cartRepo := cartrepo.NewRepository(db.GetDB(), redisClient, logger)
	registry := cart.NewRegistry(cartRepo, identity.ContextProvider{}, redisClient,
		cfg.Cart.GuestCartTTL, cfg.Cart.Currency, logger)

	orderRepo := orderrepo.NewRepository(db.GetDB(), logger)
	submission := checkout.NewSubmission(orderRepo, orderRepo, cfg.Cart.RequireTerms, logger)

	log.Println("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(cfg, db.GetDB(), redisClient.GetClient(), routes.Dependencies{
		Registry:   registry,
		Submission: submission,
		Stock:      orderRepo,
		Config:     cfg,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("👋 Shutting down gracefully...")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	log.Println("✅ Server shutdown completed")
}
