package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parley-backend/internal/config"
	"parley-backend/internal/database"
	"parley-backend/internal/handlers"
	"parley-backend/internal/middleware"
	"parley-backend/internal/repository"
	"parley-backend/internal/router"
	"parley-backend/internal/services"
	"parley-backend/internal/websocket"
	"parley-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Parley Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	chatRepo := repository.NewChatRepo(pool)
	messageRepo := repository.NewMessageRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, redisClients.Queue, jwtAuth)
	openRouter := services.NewOpenRouterService(services.OpenRouterConfig{
		Endpoint:        cfg.OpenRouterEndpoint,
		APIKey:          cfg.OpenRouterAPIKey,
		Temperature:     cfg.OpenRouterTemperature,
		MaxTokens:       cfg.OpenRouterMaxTokens,
		AllowedModels:   cfg.AllowedModels,
		ResponseTimeout: cfg.OpenRouterTimeout,
	})
	fileExtractService := services.NewFileExtractService()
	log.Println("✓ OpenRouter client initialized")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, openRouter, redisClients.Queue)
	messageHandler := handlers.NewMessageHandler(chatRepo, messageRepo, openRouter)
	uploadHandler := handlers.NewUploadHandler(cfg.StoragePath, fileExtractService)

	// ──── Step 5: Start Title Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, chatRepo, cfg.TitleWorkers)
	workerPool.Start()
	log.Printf("✓ Title worker pool started (%d goroutines)", cfg.TitleWorkers)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		chatHandler,
		messageHandler,
		uploadHandler,
		wsHub,
		cfg.StoragePath,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: a completion stream may legitimately outlive any
		// fixed deadline; the upstream timeout is configured separately.
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Parley Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
