package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/idle-shapes/game-service/internal/database"
	"github.com/idle-shapes/game-service/internal/service"
)

// HealthHandler reports liveness of the service and its backends. Redis and
// db may be nil (memory backends); they are simply skipped.
type HealthHandler struct {
	redis *database.RedisClient
	db    *database.DB
	svc   *service.GameService
}

func NewHealthHandler(redis *database.RedisClient, db *database.DB, svc *service.GameService) *HealthHandler {
	return &HealthHandler{
		redis: redis,
		db:    db,
		svc:   svc,
	}
}

type HealthResponse struct {
	Status         string            `json:"status"`
	Services       map[string]string `json:"services"`
	ActiveSessions int               `json:"active_sessions"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	response := HealthResponse{
		Status:         "ok",
		Services:       make(map[string]string),
		ActiveSessions: h.svc.SessionCount(),
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Services["redis"] = "down: " + err.Error()
		} else {
			response.Services["redis"] = "ok"
		}
	}

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			response.Status = "unhealthy"
			response.Services["database"] = "down: " + err.Error()
		} else {
			response.Services["database"] = "ok"
		}
	}

	statusCode := http.StatusOK
	if response.Status != "ok" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
			return
		}
	}
	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			http.Error(w, "Database not ready", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
