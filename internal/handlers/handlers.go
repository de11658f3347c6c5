package handlers

import (
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/database"
	"github.com/idle-shapes/game-service/internal/handlers/public"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/pkg/sessiontoken"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Health  *HealthHandler
	Session *public.SessionHandler
	Game    *public.GameHandler
	Save    *public.SaveHandler
	Score   *public.ScoreHandler
}

// HandlerDependencies contains the dependencies for creating handlers.
// Redis and DB are nil when the corresponding backend is not configured.
type HandlerDependencies struct {
	Service *service.GameService
	Tokens  *sessiontoken.Service
	Redis   *database.RedisClient
	DB      *database.DB
	Logger  *zap.Logger
}

// NewHandlers creates a Handlers instance with all handlers wired up
func NewHandlers(deps *HandlerDependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Redis, deps.DB, deps.Service),
		Session: public.NewSessionHandler(deps.Service, deps.Tokens, deps.Logger),
		Game:    public.NewGameHandler(deps.Service, deps.Logger),
		Save:    public.NewSaveHandler(deps.Service, deps.Logger),
		Score:   public.NewScoreHandler(deps.Service, deps.Logger),
	}
}
