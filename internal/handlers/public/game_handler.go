package public

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/auth"
	"github.com/idle-shapes/game-service/internal/economy"
	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/pkg/numfmt"
)

// GameHandler serves the gameplay operations: state, clicks, purchases,
// prestige, bonus pickups and settings.
type GameHandler struct {
	svc       *service.GameService
	logger    *zap.Logger
	validator *validator.Validate
}

func NewGameHandler(svc *service.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		svc:       svc,
		logger:    logger,
		validator: validator.New(),
	}
}

func playerFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	playerID, err := auth.GetPlayerID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, models.CodeUnauthorized, "Player not found in context")
		return uuid.Nil, false
	}
	return playerID, true
}

// writeServiceError maps service-layer failures onto HTTP responses.
func (h *GameHandler) writeServiceError(w http.ResponseWriter, err error, operation string) {
	if errors.Is(err, service.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, models.CodeNotFound, "No active session; open one via POST /sessions")
		return
	}
	h.logger.Error("Game operation failed", zap.String("operation", operation), zap.Error(err))
	writeError(w, http.StatusInternalServerError, models.CodeInternal, "Operation failed")
}

func actionResponse(snap *game.State, result game.OpResult) models.ActionResponse {
	return models.ActionResponse{
		Applied:  result.Applied,
		Reason:   result.Reason,
		Unlocked: result.Unlocked,
		State:    models.StateResponseFromGame(snap),
	}
}

// GetState handles GET /game/state
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.State(playerID)
	if err != nil {
		h.writeServiceError(w, err, "get_state")
		return
	}
	writeJSON(w, http.StatusOK, models.StateResponseFromGame(snap))
}

// Click handles POST /game/click. An empty body means a single click.
func (h *GameHandler) Click(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}

	req := models.ClickRequest{Count: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "count must be between 1 and 100")
		return
	}

	snap, result, err := h.svc.Click(playerID, req.Count)
	if err != nil {
		h.writeServiceError(w, err, "click")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, result))
}

// BuyBuilding handles POST /game/buildings/{id}/buy
func (h *GameHandler) BuyBuilding(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, result, err := h.svc.BuyBuilding(playerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "buy_building")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, result))
}

// BuyUpgrade handles POST /game/upgrades/{id}/buy
func (h *GameHandler) BuyUpgrade(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, result, err := h.svc.BuyUpgrade(playerID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err, "buy_upgrade")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, result))
}

// CollectBonus handles POST /game/bonus
func (h *GameHandler) CollectBonus(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}

	var req models.CollectBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid bonus payload")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "amount must be a non-negative decimal string")
		return
	}

	snap, result, err := h.svc.CollectBonus(playerID, amount, req.Multiplier, req.DurationSec)
	if err != nil {
		h.writeServiceError(w, err, "collect_bonus")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, result))
}

// PrestigePreview handles GET /game/prestige
func (h *GameHandler) PrestigePreview(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	points, nextMult, currentMult, eligible, err := h.svc.PrestigePreview(playerID)
	if err != nil {
		h.writeServiceError(w, err, "prestige_preview")
		return
	}
	writeJSON(w, http.StatusOK, models.PrestigePreviewResponse{
		Eligible:          eligible,
		GainedPoints:      points,
		CurrentMultiplier: currentMult,
		NextMultiplier:    nextMult,
		Threshold:         economy.PrestigeThreshold.String(),
		ThresholdShort:    numfmt.FormatShort(economy.PrestigeThreshold),
	})
}

// ConfirmPrestige handles POST /game/prestige
func (h *GameHandler) ConfirmPrestige(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, result, err := h.svc.ConfirmPrestige(r.Context(), playerID)
	if err != nil {
		h.writeServiceError(w, err, "confirm_prestige")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, result))
}

// NewGame handles POST /game/new
func (h *GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, err := h.svc.NewGame(r.Context(), playerID)
	if err != nil {
		h.writeServiceError(w, err, "new_game")
		return
	}
	writeJSON(w, http.StatusOK, actionResponse(snap, game.OpResult{Applied: true}))
}

// Suspend handles POST /game/suspend
func (h *GameHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	if err := h.svc.Suspend(r.Context(), playerID); err != nil {
		h.writeServiceError(w, err, "suspend")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /game/resume
func (h *GameHandler) Resume(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	if err := h.svc.Resume(playerID); err != nil {
		h.writeServiceError(w, err, "resume")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /game/settings
func (h *GameHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	settings, err := h.svc.Settings(playerID)
	if err != nil {
		h.writeServiceError(w, err, "get_settings")
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		SoundEnabled: settings.SoundEnabled,
		MusicEnabled: settings.MusicEnabled,
	})
}

// UpdateSettings handles PUT /game/settings
func (h *GameHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}

	var req models.SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "Invalid JSON body")
		return
	}

	settings, err := h.svc.UpdateSettings(r.Context(), playerID, req.SoundEnabled, req.MusicEnabled)
	if err != nil {
		h.writeServiceError(w, err, "update_settings")
		return
	}
	writeJSON(w, http.StatusOK, models.SettingsResponse{
		SoundEnabled: settings.SoundEnabled,
		MusicEnabled: settings.MusicEnabled,
	})
}
