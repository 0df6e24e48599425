// internal/app/server.go
package app

import (
	"context"
	"fmt"
	"log"

	"gestock-gateway/internal/config"
	"gestock-gateway/internal/db"
	authHandler "gestock-gateway/internal/handlers/auth"
	pagesHandler "gestock-gateway/internal/handlers/pages"
	wsHandler "gestock-gateway/internal/handlers/websocket"
	"gestock-gateway/internal/middleware"
	"gestock-gateway/internal/pkg/session"
	"gestock-gateway/internal/pkg/token"
	"gestock-gateway/internal/upstream"
	"gestock-gateway/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("[REDIS] ✅ Connected successfully")

	// ----- Session store -----
	var store session.Store = session.NewRedisStore(redisClient)

	// Optional PostgreSQL fallback so sessions survive a Redis flush.
	if s.cfg.DatabaseURL != "" {
		pool, err := db.NewPostgresPool(ctx, s.cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		pgStore := session.NewPostgresStore(pool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = session.NewFallbackStore(store, pgStore, s.cfg.SessionTTL, logger)
		log.Println("[POSTGRES] ✅ Session fallback enabled")
	}

	// ----- Core services -----
	sessionManager := session.NewManager(store, s.cfg.SessionTTL, logger)
	upstreamClient := upstream.NewClient(s.cfg.UpstreamURL, s.cfg.UpstreamTimeout, logger)
	validator := token.NewValidator(upstreamClient, sessionManager, logger)
	guard := middleware.NewGuard(sessionManager, validator, s.cfg.CookieName, logger)

	// Every transition changes the session identity, so the memoized
	// verification outcome is dead either way.
	sessionManager.Subscribe(func(sid string, _ session.Event, _ session.State) {
		validator.Forget(sid)
	})

	// ----- Session event hub -----
	hub := websocket.NewHub(logger)
	detach := hub.Attach(sessionManager)
	defer detach()
	go hub.Run(ctx)

	// ----- Handlers -----
	cookieMaxAge := int(s.cfg.SessionTTL.Seconds())
	authHandlerInst := authHandler.NewAuthHandler(
		upstreamClient,
		sessionManager,
		s.cfg.CookieName,
		cookieMaxAge,
		s.cfg.CookieSecure,
		logger,
	)
	pagesHandlerInst := pagesHandler.NewPagesHandler(upstreamClient, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, logger)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:  authHandlerInst,
		PagesHandler: pagesHandlerInst,
		WSHandler:    wsHandlerInst,
		Guard:        guard,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	log.Printf("🚀 Gateway running on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}
