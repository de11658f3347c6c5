// Package public contains the player-facing HTTP handlers.
package public

import (
	"encoding/json"
	"net/http"

	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response: " + err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message, Code: code})
}
