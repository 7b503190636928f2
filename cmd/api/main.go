package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"neon-nexus/internal/config"
	"neon-nexus/internal/db"
	apihttp "neon-nexus/internal/http"
	"neon-nexus/internal/llm"
	"neon-nexus/internal/repository"
	"neon-nexus/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	database, err := db.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("mongo connect", zap.Error(err))
	}
	if err := db.EnsureChatIndexes(ctx, database); err != nil {
		logger.Warn("ensure chat indexes failed", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	convRepo := repository.NewMongoConversationRepository(database)
	msgRepo := repository.NewMongoMessageRepository(database)

	llmClient := llm.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("gemini api key not configured")
	}

	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo)
	chatSvc := service.NewChatService(logger, convRepo, msgRepo, llmClient, cfg.GeminiModel, cfg.GeminiAPIKey)
	convSvc := service.NewConversationService(convRepo, msgRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc)
	convHandler := apihttp.NewConversationHandler(logger, convSvc)
	router := apihttp.NewRouter(logger, userHandler, chatHandler, convHandler, jwtSvc)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
