package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/replyhub/admin-gateway/internal/cache"
	"github.com/replyhub/admin-gateway/internal/config"
	"github.com/replyhub/admin-gateway/internal/database"
	"github.com/replyhub/admin-gateway/internal/handlers"
	"github.com/replyhub/admin-gateway/internal/middleware"
	"github.com/replyhub/admin-gateway/internal/models"
	"github.com/replyhub/admin-gateway/internal/repository"
	"github.com/replyhub/admin-gateway/internal/session"
	"github.com/replyhub/admin-gateway/internal/upstream"
	"github.com/replyhub/admin-gateway/pkg/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting admin gateway")

	// Connect to database
	dbConfig := database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
		LogLevel: cfg.Database.LogLevel,
	}

	if err := database.Connect(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	// Initialize cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		cacheImpl, err = cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis cache initialized")
	} else {
		cacheImpl = cache.NewMemoryCache()
		log.Info().Msg("Memory cache initialized")
	}
	defer cacheImpl.Close()

	queryCache := cache.NewQueryCache(cacheImpl, cfg.Cache.TTL)

	// Initialize session store and restore any persisted session
	sessions := session.NewStore(
		session.NewFileStore(cfg.Session.TicketPath),
		[]byte(cfg.Session.Secret),
		cfg.Session.TTL,
		queryCache,
	)
	sessions.Init()

	// Initialize platform client
	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, cfg.Upstream.Timeout)

	// Initialize repositories
	companyRepo := repository.NewCompanyRepository()
	auditRepo := repository.NewAuditRepository()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(client, sessions, companyRepo)
	adminHandler := handlers.NewAdminHandler(client, sessions, queryCache, auditRepo)
	defer adminHandler.Close()
	managementHandler := handlers.NewManagementHandler(companyRepo, auditRepo)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{"Content-Length", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health endpoints (no session required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Auth endpoints
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)
	})

	// Dashboard resource endpoints (require an active session)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireCompany(sessions))

		r.Get("/conversations", adminHandler.ListResource(models.ResourceConversations))
		r.Patch("/conversations/{id}/auto-reply", adminHandler.SetConversationAutoReply)

		r.Get("/products", adminHandler.ListResource(models.ResourceProducts))
		r.Post("/products", adminHandler.CreateProduct)
		r.Put("/products/{id}", adminHandler.UpdateProduct)
		r.Delete("/products/{id}", adminHandler.DeleteProduct)

		r.Get("/categories", adminHandler.ListResource(models.ResourceCategories))
		r.Post("/categories", adminHandler.CreateCategory)
		r.Delete("/categories/{id}", adminHandler.DeleteCategory)

		r.Get("/orders", adminHandler.ListResource(models.ResourceOrders))
		r.Patch("/orders/{id}", adminHandler.UpdateOrderStatus)

		r.Get("/plans", adminHandler.ListResource(models.ResourcePlans))
		r.Post("/plans/{id}/subscribe", adminHandler.SubscribePlan)

		r.Get("/invitations", adminHandler.ListResource(models.ResourceInvitations))
		r.Post("/invitations", adminHandler.CreateInvitation)

		r.Get("/audit", managementHandler.ListAuditLogs)
		r.Get("/companies", managementHandler.ListCompanies)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
