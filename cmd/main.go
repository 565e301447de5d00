package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/YusufHabib317/chat-service/internal/ai"
	"github.com/YusufHabib317/chat-service/internal/auth"
	"github.com/YusufHabib317/chat-service/internal/cache"
	"github.com/YusufHabib317/chat-service/internal/config"
	"github.com/YusufHabib317/chat-service/internal/directory"
	"github.com/YusufHabib317/chat-service/internal/domain"
	"github.com/YusufHabib317/chat-service/internal/genlock"
	"github.com/YusufHabib317/chat-service/internal/handler"
	"github.com/YusufHabib317/chat-service/internal/hub"
	"github.com/YusufHabib317/chat-service/internal/ratelimit"
	"github.com/YusufHabib317/chat-service/internal/repository"
	"github.com/YusufHabib317/chat-service/internal/service"
	"github.com/YusufHabib317/chat-service/pkg/database"
	"github.com/YusufHabib317/chat-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log)
	log.L().Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting chat service")

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.L().Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db,
		&domain.MerchantModel{},
		&domain.ProductModel{},
		&domain.AuthSessionModel{},
		&domain.ConversationModel{},
		&domain.MessageModel{},
	); err != nil {
		log.L().Fatal().Err(err).Msg("database migration failed")
	}
	log.L().Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Repositories
	convRepo := repository.NewGormConversationRepository(db)
	msgRepo := repository.NewGormMessageRepository(db)
	merchantRepo := repository.NewGormMerchantRepository(db)
	sessionRepo := repository.NewGormAuthSessionRepository(db)

	// Optional Redis history cache; the service runs without it.
	var msgCache cache.MessageCache
	if cfg.Redis.Address != "" {
		redisCache, err := cache.NewRedisMessageCache(cfg.Redis, cfg.Log.ServiceName)
		if err != nil {
			log.L().Warn().Err(err).Msg("redis unavailable, history cache disabled")
		} else {
			defer redisCache.Close()
			msgCache = redisCache
			log.L().Info().Str("address", cfg.Redis.Address).Msg("connected to redis")
		}
	}

	// Core components
	dir := directory.New(convRepo, msgRepo)
	wsHub := hub.New()
	history := service.NewHistoryService(msgRepo, msgCache, cfg.History.CacheTTL)
	authn := auth.NewAuthenticator(sessionRepo, merchantRepo)

	joinLimiter := ratelimit.New(ratelimit.Config{
		Max:           cfg.RateLimit.JoinMax,
		Window:        cfg.RateLimit.JoinWindow,
		SweepInterval: cfg.RateLimit.SweepInterval,
	})
	defer joinLimiter.Stop()
	msgLimiter := ratelimit.New(ratelimit.Config{
		Max:           cfg.RateLimit.MessageMax,
		Window:        cfg.RateLimit.MessageWindow,
		SweepInterval: cfg.RateLimit.SweepInterval,
	})
	defer msgLimiter.Stop()

	provider, err := ai.NewOpenAIClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	if err != nil {
		log.L().Fatal().Err(err).Msg("failed to create ai provider")
	}

	coord := service.NewCoordinator(
		dir,
		merchantRepo,
		wsHub,
		joinLimiter, msgLimiter,
		genlock.New(),
		provider,
		cfg.AI,
		cfg.History.PageSize,
	)

	// HTTP surface
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	wsHandler := handler.NewWSHandler(wsHub, coord, authn, cfg.WebSocket)
	router.GET("/ws", wsHandler.HandleWebSocket)

	httpHandler := handler.NewHTTPHandler(dir, history, authn)
	httpHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.L().Info().Str("address", server.Addr).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.L().Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.L().Info().Msg("shutting down chat service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.L().Error().Err(err).Msg("server forced to shutdown")
	}

	log.L().Info().Msg("chat service stopped")
}
