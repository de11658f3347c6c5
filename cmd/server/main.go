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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/config"
	"github.com/idle-shapes/game-service/internal/database"
	"github.com/idle-shapes/game-service/internal/handlers"
	customMiddleware "github.com/idle-shapes/game-service/internal/middleware"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/internal/storage"
	"github.com/idle-shapes/game-service/pkg/logger"
	"github.com/idle-shapes/game-service/pkg/metrics"
	"github.com/idle-shapes/game-service/pkg/sessiontoken"
)

const serviceVersion = "2.0.0"

func main() {
	// Local development convenience; absence of .env is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	startTime := time.Now()
	go func() {
		for {
			metrics.ServiceUptime.Set(time.Since(startTime).Seconds())
			time.Sleep(cfg.Metrics.UpdateInterval)
		}
	}()
	metrics.ServiceInfo.WithLabelValues(serviceVersion, time.Now().Format(time.RFC3339)).Set(1)

	// Save store: Redis in production, in-process for dependency-free runs
	var kv storage.KV
	var redisClient *database.RedisClient
	switch cfg.Storage.Backend {
	case "redis":
		redisClient, err = database.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		kv = storage.NewRedisKV(redisClient.Client())
	case "memory":
		logger.Warn("Using in-memory save store; progress is lost on restart")
		kv = storage.NewMemoryKV()
	}

	// High-score archive: Postgres when configured, else in-process
	var scores storage.ScoreRepository
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.NewDB(&cfg.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		pgScores := storage.NewPostgresScoreRepository(db)
		schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pgScores.EnsureSchema(schemaCtx); err != nil {
			schemaCancel()
			logger.Fatal("Failed to ensure high-score schema", zap.Error(err))
		}
		schemaCancel()
		scores = pgScores
	} else {
		logger.Warn("No database configured; high scores are kept in memory")
		scores = storage.NewMemoryScoreRepository(cfg.Game.HighScoreLimit)
	}

	tokens, err := sessiontoken.New(cfg.Auth.TokenSecret, cfg.Auth.TokenIssuer, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal("Failed to initialize session tokens", zap.Error(err))
	}

	saves := storage.NewSaveRepository(kv, cfg.Game.MaxSaveSlots)
	gameService := service.NewGameService(saves, scores, cfg.Game, nil)

	// Background loops: production ticking and autosave
	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	go gameService.RunTickLoop(loopCtx)
	go gameService.RunAutosaveLoop(loopCtx)

	handlerDeps := &handlers.HandlerDependencies{
		Service: gameService,
		Tokens:  tokens,
		Redis:   redisClient,
		DB:      db,
		Logger:  logger.Get(),
	}
	allHandlers := handlers.NewHandlers(handlerDeps)

	// Public router
	publicRouter := chi.NewRouter()
	publicRouter.Use(middleware.RequestID)
	publicRouter.Use(middleware.RealIP)
	publicRouter.Use(customMiddleware.Recovery())
	publicRouter.Use(customMiddleware.Logging())
	publicRouter.Use(customMiddleware.Metrics())
	publicRouter.Use(middleware.Timeout(cfg.Timeouts.HTTPMiddleware))
	publicRouter.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	publicRouter.Post("/sessions", allHandlers.Session.Create)
	publicRouter.Get("/scores", allHandlers.Score.Top)

	publicRouter.Route("/game", func(r chi.Router) {
		r.Use(customMiddleware.Auth(tokens))

		r.Get("/state", allHandlers.Game.GetState)
		r.Post("/click", allHandlers.Game.Click)
		r.Post("/buildings/{id}/buy", allHandlers.Game.BuyBuilding)
		r.Post("/upgrades/{id}/buy", allHandlers.Game.BuyUpgrade)
		r.Post("/bonus", allHandlers.Game.CollectBonus)
		r.Get("/prestige", allHandlers.Game.PrestigePreview)
		r.Post("/prestige", allHandlers.Game.ConfirmPrestige)
		r.Post("/new", allHandlers.Game.NewGame)
		r.Post("/suspend", allHandlers.Game.Suspend)
		r.Post("/resume", allHandlers.Game.Resume)
		r.Get("/settings", allHandlers.Game.GetSettings)
		r.Put("/settings", allHandlers.Game.UpdateSettings)

		r.Post("/save", allHandlers.Save.Save)
		r.Route("/saves", func(r chi.Router) {
			r.Get("/", allHandlers.Save.ListSlots)
			r.Post("/{slot}", allHandlers.Save.SaveSlot)
			r.Post("/{slot}/load", allHandlers.Save.LoadSlot)
			r.Delete("/{slot}", allHandlers.Save.DeleteSlot)
		})
	})

	// Internal router: health and metrics only
	internalRouter := chi.NewRouter()
	internalRouter.Use(middleware.RequestID)
	internalRouter.Use(middleware.RealIP)
	internalRouter.Use(customMiddleware.Recovery())
	internalRouter.Use(customMiddleware.Logging())
	internalRouter.Use(middleware.Timeout(cfg.Timeouts.HTTPMiddleware))

	internalRouter.Get("/health", allHandlers.Health.Health)
	internalRouter.Get("/ready", allHandlers.Health.Ready)
	internalRouter.Handle("/metrics", promhttp.Handler())

	publicServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      publicRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	internalServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.InternalPort),
		Handler:      internalRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting game service public server",
			zap.String("host", cfg.Server.Host),
			zap.String("port", cfg.Server.Port),
		)
		if err := publicServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start public server", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Starting game service internal server",
			zap.String("host", cfg.Server.Host),
			zap.String("port", cfg.Server.InternalPort),
		)
		if err := internalServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start internal server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop the loops first, then flush every live session to storage
	loopCancel()
	saveCtx, saveCancel := context.WithTimeout(context.Background(), cfg.Timeouts.GracefulShutdown)
	gameService.SaveAll(saveCtx)
	saveCancel()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.GracefulShutdown)
	defer cancel()

	shutdownErr := make(chan error, 2)
	go func() {
		if err := publicServer.Shutdown(ctx); err != nil {
			shutdownErr <- fmt.Errorf("public server shutdown error: %w", err)
		} else {
			shutdownErr <- nil
		}
	}()
	go func() {
		if err := internalServer.Shutdown(ctx); err != nil {
			shutdownErr <- fmt.Errorf("internal server shutdown error: %w", err)
		} else {
			shutdownErr <- nil
		}
	}()

	for i := 0; i < 2; i++ {
		if err := <-shutdownErr; err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	logger.Info("Servers exited")
}
