package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"companion-llm/internal/config"
	"companion-llm/internal/db"
	apihttp "companion-llm/internal/http"
	"companion-llm/internal/llm"
	"companion-llm/internal/repository"
	"companion-llm/internal/service"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	personalityRepo := repository.NewPgPersonalityRepository(pool)
	memoryRepo := repository.NewPgMemoryRepository(pool)
	relationshipRepo := repository.NewPgRelationshipRepository(pool)
	emotionRepo := repository.NewPgEmotionRepository(pool)
	goalRepo := repository.NewPgGoalRepository(pool)
	preferenceRepo := repository.NewPgPreferenceRepository(pool)
	auditRepo := repository.NewPgAuditRepository(pool)

	sessionTTL := time.Duration(cfg.SessionTimeoutHours) * time.Hour
	var (
		sessionStore service.SessionStore    = service.NewMemorySessionStore(sessionTTL)
		buffer       service.ShortTermBuffer = service.NewMemoryShortTermBuffer(cfg.ShortTermMaxMessages)
		cachePinger  apihttp.Pinger
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient, sessionTTL)
			buffer = service.NewRedisShortTermBuffer(redisClient, cfg.ShortTermMaxMessages, sessionTTL)
			cachePinger = apihttp.PingerFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			})
		}
		cancel()
	}

	llmClient := llm.NewHTTPClient(
		cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMEmbedModel,
		time.Duration(cfg.StreamIdleTimeoutSeconds)*time.Second, logger,
	)

	classifier := service.NewContentClassifier(service.ClassifierConfig{
		JudgeEnabled:   cfg.JudgeEnabled,
		JudgeThreshold: cfg.JudgeThreshold,
		JudgeModel:     cfg.LLMModelNormal,
	}, llmClient, logger)

	router := service.NewContentRouter()
	sessions := service.NewSessionManager(sessionStore, router, cfg.RouteLockMessages, logger)
	personalities := service.NewPersonalityService(personalityRepo)

	detectorTimeout := time.Duration(cfg.DetectorTimeoutSeconds) * time.Second
	detOpts := func(method string, minConf float64) service.DetectorOptions {
		return service.DetectorOptions{
			Method:        method,
			MinConfidence: minConf,
			Timeout:       detectorTimeout,
			Model:         cfg.LLMModelNormal,
		}
	}
	emotionDet := service.NewEmotionDetector(llmClient, detOpts(cfg.EmotionMethod, cfg.EmotionMinConfidence), logger)
	personalityDet := service.NewPersonalityDetector(llmClient, detOpts(cfg.PersonalityMethod, cfg.PersonalityMinConfidence), logger)
	preferenceDet := service.NewPreferenceDetector(llmClient, detOpts(cfg.PreferenceMethod, cfg.PreferenceMinConfidence), logger)
	goalDet := service.NewGoalDetector(llmClient, detOpts(cfg.GoalMethod, cfg.GoalMinConfidence), logger)
	contradictionDet := service.NewContradictionDetector(llmClient, detOpts(cfg.ContradictionMethod, cfg.ContradictionMinConfidence), logger)
	extractor := service.NewMemoryExtractor(llmClient, detOpts(cfg.ExtractionMethod, cfg.ExtractionMinConfidence), logger)

	memories := service.NewMemoryEngine(memoryRepo, llmClient, contradictionDet, service.MemoryEngineConfig{
		TopK:                    cfg.MemoryTopK,
		SimilarityFloor:         cfg.MemorySimilarityFloor,
		ContradictionSimilarity: cfg.ContradictionSimilarity,
		ContradictionConfidence: cfg.ContradictionConfidence,
		RetrievalAlpha:          cfg.RetrievalAlpha,
		RetrievalBeta:           cfg.RetrievalBeta,
		EmbeddingDim:            cfg.EmbeddingDimension,
	}, logger)

	relationships := service.NewRelationshipTracker(relationshipRepo, cfg.RelationshipMilestones, logger)
	audit := service.NewAuditService(auditRepo, logger)

	background, err := service.NewBackgroundRunner(
		cfg.BackgroundWorkers,
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
		logger,
	)
	if err != nil {
		logger.Fatal("worker pool init", zap.Error(err))
	}

	chat := service.NewChatService(service.ChatServiceDeps{
		Users:         userRepo,
		Conversations: conversationRepo,
		Messages:      messageRepo,
		Emotions:      emotionRepo,
		Goals:         goalRepo,
		Preferences:   preferenceRepo,

		Buffer:        buffer,
		Classifier:    classifier,
		Sessions:      sessions,
		Personalities: personalities,
		Memories:      memories,
		Relationships: relationships,
		Audit:         audit,
		Prompts:       service.NewPromptBuilder(),
		Background:    background,

		EmotionDetector:     emotionDet,
		PersonalityDetector: personalityDet,
		PreferenceDetector:  preferenceDet,
		GoalDetector:        goalDet,
		Extractor:           extractor,

		LLM: llmClient,
		Config: service.ChatServiceConfig{
			Models: service.RouteModels{
				Normal:   cfg.LLMModelNormal,
				Romance:  cfg.LLMModelRomance,
				Explicit: cfg.LLMModelExplicit,
				Fetish:   cfg.LLMModelFetish,
			},
			BackgroundMinTurns: cfg.BackgroundMinTurns,
			RequestTimeout:     time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		Logger: logger,
	})

	jwtSvc := service.NewJWTService(cfg.JWTSecret)
	if jwtSvc == nil {
		logger.Warn("jwt secret not configured")
	}

	chatHandler := apihttp.NewChatHandler(logger, chat)
	personalityHandler := apihttp.NewPersonalityHandler(logger, personalities)
	sessionHandler := apihttp.NewSessionHandler(logger, sessions)
	profileHandler := apihttp.NewProfileHandler(logger, emotionRepo, goalRepo, memories, relationships, personalities)
	adminHandler := apihttp.NewAdminHandler(logger, classifier, router, audit)
	healthHandler := apihttp.NewHealthHandler(logger, pool, cachePinger)

	engine := apihttp.NewRouter(logger, apihttp.AuthConfig{
		JWT:              jwtSvc,
		APIKeyHash:       cfg.APIKeyHash,
		DebugAuthEnabled: cfg.DebugAuthEnabled,
	}, userRepo, chatHandler, personalityHandler, sessionHandler, profileHandler, adminHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	background.Shutdown(10 * time.Second)
}
