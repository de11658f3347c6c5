package public

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/idle-shapes/game-service/internal/models"
	"github.com/idle-shapes/game-service/internal/service"
	"github.com/idle-shapes/game-service/pkg/numfmt"
)

// ScoreHandler serves the public leaderboard.
type ScoreHandler struct {
	svc    *service.GameService
	logger *zap.Logger
}

func NewScoreHandler(svc *service.GameService, logger *zap.Logger) *ScoreHandler {
	return &ScoreHandler{svc: svc, logger: logger}
}

// Top handles GET /scores
func (h *ScoreHandler) Top(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, models.CodeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	scores, err := h.svc.TopScores(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to fetch high scores", zap.Error(err))
		writeError(w, http.StatusInternalServerError, models.CodeInternal, "Failed to fetch high scores")
		return
	}

	resp := models.ScoresResponse{Scores: make([]models.ScoreDTO, 0, len(scores))}
	for i, score := range scores {
		resp.Scores = append(resp.Scores, models.ScoreDTO{
			Rank:        i + 1,
			PlayerID:    score.PlayerID.String(),
			Earned:      score.Earned.String(),
			EarnedShort: numfmt.FormatShort(score.Earned),
			Prestiges:   score.Prestiges,
			TimePlayed:  score.TimePlayed,
			EndedAt:     score.EndedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
