package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hmm29/conversational-emotion-ai/adapters/geminichat"
	"github.com/hmm29/conversational-emotion-ai/adapters/hume"
	"github.com/hmm29/conversational-emotion-ai/adapters/keyword"
	"github.com/hmm29/conversational-emotion-ai/adapters/memstore"
	"github.com/hmm29/conversational-emotion-ai/adapters/mongostore"
	"github.com/hmm29/conversational-emotion-ai/adapters/openaichat"
	"github.com/hmm29/conversational-emotion-ai/domain/repositories"
	"github.com/hmm29/conversational-emotion-ai/internal/api"
	"github.com/hmm29/conversational-emotion-ai/internal/auth"
	"github.com/hmm29/conversational-emotion-ai/internal/cache"
	"github.com/hmm29/conversational-emotion-ai/internal/config"
	"github.com/hmm29/conversational-emotion-ai/internal/pipeline"
	"github.com/hmm29/conversational-emotion-ai/internal/taxonomy"
	"github.com/hmm29/conversational-emotion-ai/internal/websocket"
	"github.com/hmm29/conversational-emotion-ai/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		logger.Fatal("Failed to load emotion taxonomy",
			zap.String("path", cfg.Taxonomy.Path),
			zap.Error(err))
	}

	// Initialize adapters
	remoteScorer, err := hume.NewScorer(hume.Config{
		APIKey:     cfg.Hume.APIKey,
		SecretKey:  cfg.Hume.SecretKey,
		APIBaseURL: cfg.Hume.BaseURL,
		Timeout:    cfg.Hume.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize emotion API client", zap.Error(err))
	}
	localScorer := keyword.NewScorer(tax, logger)

	completer, err := newCompleter(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize completion client", zap.Error(err))
	}

	store := memstore.New(cfg.Conversation.Capacity)

	var archive repositories.ConversationArchive
	if cfg.Mongo.Enabled() {
		db, err := mongostore.Connect(context.Background(), cfg.Mongo.URI, cfg.Mongo.Database, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		archive = mongostore.NewArchive(db)
	}

	// Initialize usecase services
	analysisCache := cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL)
	emotionService := usecase.NewEmotionService(
		remoteScorer,
		localScorer,
		tax,
		analysisCache,
		taxonomyRevision(cfg.Taxonomy.Path),
		cfg.Hume.Timeout,
		logger,
	)
	selector := usecase.NewStrategySelector(tax)
	responseService := usecase.NewResponseService(completer, tax, cfg.LLM.ContextWindow, logger)
	conversationService := usecase.NewConversationService(
		store,
		archive,
		emotionService,
		selector,
		responseService,
		tax,
		logger,
	)
	go logPipelineEvents(conversationService.Events(), logger)

	tokens := auth.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Initialize WebSocket hub with conversation service
	hub := websocket.NewHub(conversationService, logger)
	go hub.Run()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	server := api.NewServer(conversationService, tokens, hub, cfg.JWT.Expiry, logger)
	server.InitRoutes(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(cfg.Server.Addr()); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("archive_enabled", cfg.Mongo.Enabled()))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newCompleter(cfg *config.Config, logger *zap.Logger) (repositories.ChatCompleter, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		return geminichat.NewCompleter(context.Background(), geminichat.Config{
			APIKey:  cfg.LLM.GeminiKey,
			Model:   cfg.LLM.GeminiModel,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	default:
		return openaichat.NewCompleter(openaichat.Config{
			APIKey:  cfg.LLM.OpenAIKey,
			Model:   cfg.LLM.OpenAIModel,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	}
}

// taxonomyRevision fingerprints the taxonomy file so cached analysis
// results are invalidated when the emotion configuration changes.
func taxonomyRevision(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func logPipelineEvents(events <-chan pipeline.Event, logger *zap.Logger) {
	for ev := range events {
		logger.Debug("pipeline step",
			zap.String("session_id", ev.SessionID),
			zap.String("phase", string(ev.Phase)),
			zap.String("state", string(ev.State)))
	}
}
