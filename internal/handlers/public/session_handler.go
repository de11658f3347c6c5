package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/pkg/sessiontoken"
)

// SessionHandler opens game sessions and issues the bearer tokens the rest
// of the API requires.
type SessionHandler struct {
	svc       *service.GameService
	tokens    *sessiontoken.Service
	logger    *zap.Logger
	validator *validator.Validate
}

func NewSessionHandler(svc *service.GameService, tokens *sessiontoken.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		svc:       svc,
		tokens:    tokens,
		logger:    logger,
		validator: validator.New(),
	}
}

// Create handles POST /sessions. The body is optional; send a player_id to
// resume an existing player, omit it for a new one.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "player_id must be a UUID")
		return
	}

	playerID := uuid.Nil
	if req.PlayerID != "" {
		var err error
		playerID, err = uuid.Parse(req.PlayerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "player_id must be a UUID")
			return
		}
	}

	playerID, resumed, notices, err := h.svc.OpenSession(r.Context(), playerID)
	if err != nil {
		h.logger.Error("Failed to open session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to open session")
		return
	}

	info, err := h.tokens.Issue(playerID)
	if err != nil {
		h.logger.Error("Failed to issue session token",
			zap.String("player_id", playerID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to issue session token")
		return
	}

	writeJSON(w, http.StatusCreated, models.CreateSessionResponse{
		PlayerID:  playerID.String(),
		Token:     info.Token,
		ExpiresAt: info.ExpiresAt,
		Resumed:   resumed,
		Notices:   notices,
	})
}
