package public

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/internal/storage"
	"github.com/idle-shapes/game-service/pkg/numfmt"
)

// SaveHandler serves the manual save and multi-slot operations.
type SaveHandler struct {
	svc    *service.GameService
	logger *zap.Logger
}

func NewSaveHandler(svc *service.GameService, logger *zap.Logger) *SaveHandler {
	return &SaveHandler{svc: svc, logger: logger}
}

func (h *SaveHandler) writeServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, models.CodeNotFound, "No active session; open one via POST /sessions")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, models.CodeNotFound, "Save slot not found")
	case errors.Is(err, storage.ErrCorrupt):
		writeError(w, http.StatusConflict, models.CodeRejected, "Save slot is unreadable")
	default:
		h.logger.Error("Save operation failed", zap.String("operation", operation), zap.Error(err))
		writeError(w, http.StatusInternalServerError, models.CodeInternal, "Save operation failed")
	}
}

// Save handles POST /game/save
func (h *SaveHandler) Save(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	savedAt, err := h.svc.Save(r.Context(), playerID)
	if err != nil {
		h.writeServiceError(w, err, "save")
		return
	}
	writeJSON(w, http.StatusOK, models.SaveResponse{SavedAt: savedAt})
}

// ListSlots handles GET /game/saves
func (h *SaveHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	slots, err := h.svc.ListSlots(r.Context(), playerID)
	if err != nil {
		h.writeServiceError(w, err, "list_slots")
		return
	}

	resp := models.SaveSlotsResponse{Slots: make([]models.SaveSlotDTO, 0, len(slots))}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, models.SaveSlotDTO{
			Slot:        slot.Slot,
			SavedAt:     slot.SavedAt,
			Earned:      slot.Earned.String(),
			EarnedShort: numfmt.FormatShort(slot.Earned),
			Prestiges:   slot.Prestiges,
			Version:     slot.Version,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SaveSlot handles POST /game/saves/{slot}
func (h *SaveHandler) SaveSlot(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	slot := chi.URLParam(r, "slot")
	savedAt, err := h.svc.SaveToSlot(r.Context(), playerID, slot)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			h.writeServiceError(w, err, "save_slot")
			return
		}
		// Slot-name and slot-limit rejections are client errors.
		writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, models.SaveResponse{Slot: slot, SavedAt: savedAt})
}

// LoadSlot handles POST /game/saves/{slot}/load
func (h *SaveHandler) LoadSlot(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	snap, notices, err := h.svc.LoadSlot(r.Context(), playerID, chi.URLParam(r, "slot"))
	if err != nil {
		h.writeServiceError(w, err, "load_slot")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Notices []string                  `json:"notices,omitempty"`
		State   *models.GameStateResponse `json:"state"`
	}{
		Notices: notices,
		State:   models.StateResponseFromGame(snap),
	})
}

// DeleteSlot handles DELETE /game/saves/{slot}
func (h *SaveHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	playerID, ok := playerFromContext(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSlot(r.Context(), playerID, chi.URLParam(r, "slot")); err != nil {
		h.writeServiceError(w, err, "delete_slot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
