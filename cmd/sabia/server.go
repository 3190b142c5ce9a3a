package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sabia-ai/sabia/agent"
	"github.com/sabia-ai/sabia/api/handlers"
	"github.com/sabia-ai/sabia/config"
	"github.com/sabia-ai/sabia/internal/cache"
	"github.com/sabia-ai/sabia/internal/metrics"
	"github.com/sabia-ai/sabia/internal/server"
	"github.com/sabia-ai/sabia/internal/store"
	"github.com/sabia-ai/sabia/llm"
	"github.com/sabia-ai/sabia/llm/embedding"
	"github.com/sabia-ai/sabia/rag"
)

// Server assembles the backend: knowledge base, agent, handlers, middleware
// and the two HTTP listeners (API and metrics).
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB

	httpManager    *server.Manager
	metricsManager *server.Manager

	collector    *metrics.Collector
	cacheManager *cache.Manager
	kb           *rag.KnowledgeBase

	healthHandler       *handlers.HealthHandler
	authHandler         *handlers.AuthHandler
	chatHandler         *handlers.ChatHandler
	conversationHandler *handlers.ConversationHandler
	documentHandler     *handlers.DocumentHandler
	knowledgeHandler    *handlers.KnowledgeHandler
	transactionHandler  *handlers.TransactionHandler

	rateLimiterCancel context.CancelFunc
}

// NewServer creates a server over an open database connection.
func NewServer(cfg *config.Config, logger *zap.Logger, db *gorm.DB) *Server {
	return &Server{cfg: cfg, logger: logger, db: db}
}

// Start wires all components and starts both listeners.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("sabia", s.logger)

	if err := s.initKnowledgeBase(); err != nil {
		return fmt.Errorf("failed to init knowledge base: %w", err)
	}
	s.initCache()
	s.initHandlers()

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// initKnowledgeBase builds the retrieval engine. A configured embedding
// backend is probed and the deterministic hash embedder is used when it is
// absent or unreachable.
func (s *Server) initKnowledgeBase() error {
	var candidate rag.Embedder
	if s.cfg.Embedding.BaseURL != "" || s.cfg.Embedding.APIKey != "" {
		candidate = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     s.cfg.Embedding.APIKey,
			BaseURL:    s.cfg.Embedding.BaseURL,
			Model:      s.cfg.Embedding.Model,
			Dimensions: s.cfg.RAG.Dimensions,
			Timeout:    s.cfg.Embedding.Timeout,
		})
	}

	kb, err := rag.NewKnowledgeBaseFromConfig(context.Background(), s.cfg.RAG, candidate, s.logger)
	if err != nil {
		return err
	}
	s.kb = kb

	s.logger.Info("knowledge base initialized",
		zap.String("embedder", kb.Embedder().Name()),
		zap.Int("chunks", kb.ChunkCount()),
	)
	return nil
}

// initCache connects the redis context cache when enabled. A connection
// failure disables caching instead of blocking startup.
func (s *Server) initCache() {
	if !s.cfg.Redis.Enabled {
		return
	}
	manager, err := cache.NewManager(s.cfg.Redis, s.logger)
	if err != nil {
		s.logger.Warn("Redis not available, context cache disabled", zap.Error(err))
		return
	}
	s.cacheManager = manager
}

func (s *Server) initHandlers() {
	users := store.NewUserRepository(s.db)
	conversations := store.NewConversationRepository(s.db)
	messages := store.NewMessageRepository(s.db)
	documents := store.NewDocumentRepository(s.db)
	transactions := store.NewTransactionRepository(s.db)

	var provider llm.Provider
	if s.cfg.LLM.APIKey != "" || s.cfg.LLM.BaseURL != "" {
		provider = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:      s.cfg.LLM.APIKey,
			BaseURL:     s.cfg.LLM.BaseURL,
			Model:       s.cfg.LLM.Model,
			MaxTokens:   s.cfg.LLM.MaxTokens,
			Temperature: s.cfg.LLM.Temperature,
			Timeout:     s.cfg.LLM.Timeout,
		})
	}

	contextCache := cache.NewContextCache(s.cacheManager)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", s.pingDatabase))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("cache", s.cacheManager.Ping))
	}

	s.authHandler = handlers.NewAuthHandler(users, s.cfg.Auth, s.logger)
	s.conversationHandler = handlers.NewConversationHandler(conversations, messages, s.logger)
	s.documentHandler = handlers.NewDocumentHandler(documents, s.kb, s.collector, s.logger)
	s.knowledgeHandler = handlers.NewKnowledgeHandler(s.kb, users, contextCache, s.collector, s.logger)
	s.transactionHandler = handlers.NewTransactionHandler(transactions, s.logger)

	if provider != nil {
		var agentOpts []agent.Option
		if s.cacheManager != nil {
			agentOpts = append(agentOpts, agent.WithContextCache(contextCache))
		}
		conversationAgent := agent.NewConversationAgent(s.kb, provider, s.logger, agentOpts...)
		s.chatHandler = handlers.NewChatHandler(conversationAgent, conversations, messages, s.logger)
		s.logger.Info("Chat handler initialized", zap.String("provider", provider.Name()))
	} else {
		s.logger.Info("LLM not configured, chat endpoint disabled")
	}
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /api/v1/auth/login", s.authHandler.HandleLogin)

	if s.chatHandler != nil {
		mux.HandleFunc("POST /api/v1/chat", s.chatHandler.HandleChat)
	}

	mux.HandleFunc("GET /api/v1/conversations", s.conversationHandler.HandleList)
	mux.HandleFunc("GET /api/v1/conversations/{id}", s.conversationHandler.HandleGet)
	mux.HandleFunc("DELETE /api/v1/conversations/{id}", s.conversationHandler.HandleDelete)

	mux.HandleFunc("POST /api/v1/documents", s.documentHandler.HandleUpload)
	mux.HandleFunc("GET /api/v1/documents", s.documentHandler.HandleList)

	mux.HandleFunc("POST /api/v1/knowledge/search", s.knowledgeHandler.HandleSearch)
	mux.HandleFunc("GET /api/v1/knowledge/stats", s.knowledgeHandler.HandleStats)
	mux.HandleFunc("DELETE /api/v1/knowledge", s.knowledgeHandler.HandleClear)

	mux.HandleFunc("POST /api/v1/transactions", s.transactionHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/transactions", s.transactionHandler.HandleList)

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/version", "/api/v1/auth/login"}
	rateLimiterCtx, rateLimiterCancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = rateLimiterCancel

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(rateLimiterCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		MetricsMiddleware(s.collector),
		JWTAuth(s.cfg.Auth, skipAuthPaths, s.logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.httpManager.Start()
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s.metricsManager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}, s.logger)

	return s.metricsManager.Start()
}

func (s *Server) pingDatabase(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WaitForShutdown blocks until a shutdown signal, then cleans up.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops both listeners, persists the vector index snapshot and
// closes the cache connection.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.kb != nil && s.cfg.RAG.IndexPath != "" {
		if err := s.kb.SaveIndex(s.cfg.RAG.IndexPath); err != nil {
			s.logger.Error("Index snapshot failed", zap.Error(err))
		} else {
			s.logger.Info("Index snapshot saved", zap.String("path", s.cfg.RAG.IndexPath))
		}
	}

	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			s.logger.Error("Cache shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown completed")
}
