package models

import (
	"time"

	"github.com/idle-shapes/game-service/internal/catalog"
	"github.com/idle-shapes/game-service/internal/game"
	"github.com/idle-shapes/game-service/pkg/numfmt"
)

// API error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeNotFound       = "NOT_FOUND"
	CodeRejected       = "REJECTED"
	CodeInternal       = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CreateSessionRequest opens (or resumes) a game session. PlayerID is
// optional: absent means a brand-new player.
type CreateSessionRequest struct {
	PlayerID string `json:"player_id,omitempty" validate:"omitempty,uuid"`
}

type CreateSessionResponse struct {
	PlayerID  string    `json:"player_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Resumed   bool      `json:"resumed"`
	// Notices carries non-fatal load-time messages: offline progress
	// credited, save from an older version, corrupt save discarded.
	Notices []string `json:"notices,omitempty"`
}

type ResourceDTO struct {
	Amount         string `json:"amount"`
	AmountShort    string `json:"amount_short"`
	Earned         string `json:"earned"`
	EarnedShort    string `json:"earned_short"`
	PerSecond      string `json:"per_second"`
	PerSecondShort string `json:"per_second_short"`
}

type BuildingDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Color         string `json:"color"`
	CurrentLevel  int    `json:"current_level"`
	Owned         int    `json:"owned"`
	PrestigeLevel int    `json:"prestige_level"`
	MaxLevel      int    `json:"max_level"`
	Cost          string `json:"cost"`
	CostShort     string `json:"cost_short"`
	Production    string `json:"production"`
	Unlocked      bool   `json:"unlocked"`
	Affordable    bool   `json:"affordable"`
}

type UpgradeDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Type         string  `json:"type"`
	CurrentLevel int     `json:"current_level"`
	MaxLevel     int     `json:"max_level"`
	Multiplier   float64 `json:"multiplier"`
	Cost         string  `json:"cost"`
	CostShort    string  `json:"cost_short"`
	Purchased    bool    `json:"purchased"`
	Unlocked     bool    `json:"unlocked"`
	Affordable   bool    `json:"affordable"`
}

type AchievementDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

type StatsDTO struct {
	TotalClicks        int64   `json:"total_clicks"`
	TimePlayed         float64 `json:"time_played_seconds"`
	HighestShapes      string  `json:"highest_shapes"`
	HighestShapesShort string  `json:"highest_shapes_short"`
	TotalPrestiges     int     `json:"total_prestiges"`
	LuckyShapesClicked int64   `json:"lucky_shapes_clicked"`
}

type PrestigeDTO struct {
	Points     int     `json:"points"`
	Multiplier float64 `json:"multiplier"`
	Eligible   bool    `json:"eligible"`
}

type BoostDTO struct {
	Multiplier   float64 `json:"multiplier"`
	RemainingSec float64 `json:"remaining_seconds"`
}

// GameStateResponse is the full snapshot the client renders from.
type GameStateResponse struct {
	Shapes       ResourceDTO      `json:"shapes"`
	ClickPower   string           `json:"click_power"`
	Buildings    []BuildingDTO    `json:"buildings"`
	Upgrades     []UpgradeDTO     `json:"upgrades"`
	Achievements []AchievementDTO `json:"achievements"`
	Prestige     PrestigeDTO      `json:"prestige"`
	Stats        StatsDTO         `json:"stats"`
	Boost        *BoostDTO        `json:"boost,omitempty"`
	Version      string           `json:"version"`
}

// ActionResponse reports the outcome of a dispatch-style operation plus the
// refreshed snapshot, so the client never needs a follow-up state fetch.
type ActionResponse struct {
	Applied  bool               `json:"applied"`
	Reason   string             `json:"reason,omitempty"`
	Unlocked []string           `json:"unlocked_achievements,omitempty"`
	State    *GameStateResponse `json:"state"`
}

// ClickRequest batches manual clicks; browsers coalesce rapid clicking
// rather than sending one request per tap.
type ClickRequest struct {
	Count int `json:"count" validate:"required,min=1,max=100"`
}

// CollectBonusRequest reports a golden-container pickup. Amount is a decimal
// string; Multiplier/DurationSec arm a temporary click boost when both set.
type CollectBonusRequest struct {
	Amount      string  `json:"amount" validate:"required"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=golden lucky"`
	Multiplier  float64 `json:"multiplier" validate:"omitempty,gte=0,lte=100"`
	DurationSec float64 `json:"duration_seconds" validate:"omitempty,gte=0,lte=600"`
}

type PrestigePreviewResponse struct {
	Eligible          bool    `json:"eligible"`
	GainedPoints      int     `json:"gained_points"`
	CurrentMultiplier float64 `json:"current_multiplier"`
	NextMultiplier    float64 `json:"next_multiplier"`
	Threshold         string  `json:"threshold"`
	ThresholdShort    string  `json:"threshold_short"`
}

type SaveSlotDTO struct {
	Slot        string    `json:"slot"`
	SavedAt     time.Time `json:"saved_at"`
	Earned      string    `json:"earned"`
	EarnedShort string    `json:"earned_short"`
	Prestiges   int       `json:"prestiges"`
	Version     string    `json:"version"`
}

type SaveSlotsResponse struct {
	Slots []SaveSlotDTO `json:"slots"`
}

type SaveResponse struct {
	Slot    string    `json:"slot,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// SettingsRequest updates player preferences; nil fields are left unchanged.
type SettingsRequest struct {
	SoundEnabled *bool `json:"sound_enabled,omitempty"`
	MusicEnabled *bool `json:"music_enabled,omitempty"`
}

type SettingsResponse struct {
	SoundEnabled bool `json:"sound_enabled"`
	MusicEnabled bool `json:"music_enabled"`
}

type ScoreDTO struct {
	Rank        int       `json:"rank"`
	PlayerID    string    `json:"player_id"`
	Earned      string    `json:"earned"`
	EarnedShort string    `json:"earned_short"`
	Prestiges   int       `json:"prestiges"`
	TimePlayed  float64   `json:"time_played_seconds"`
	EndedAt     time.Time `json:"ended_at"`
}

type ScoresResponse struct {
	Scores []ScoreDTO `json:"scores"`
}

// StateResponseFromGame projects a snapshot into the client DTO, joining the
// runtime state with the catalog display data.
func StateResponseFromGame(s *game.State) *GameStateResponse {
	resp := &GameStateResponse{
		Shapes: ResourceDTO{
			Amount:         s.Shapes.Amount.String(),
			AmountShort:    numfmt.FormatShort(s.Shapes.Amount),
			Earned:         s.Shapes.Earned.String(),
			EarnedShort:    numfmt.FormatShort(s.Shapes.Earned),
			PerSecond:      s.Shapes.PerSecond.String(),
			PerSecondShort: numfmt.FormatShort(s.Shapes.PerSecond),
		},
		ClickPower:   s.ClickPower().String(),
		Buildings:    make([]BuildingDTO, 0, len(s.Buildings)),
		Upgrades:     make([]UpgradeDTO, 0, len(s.Upgrades)),
		Achievements: make([]AchievementDTO, 0, len(catalog.Achievements)),
		Prestige: PrestigeDTO{
			Points:     s.PrestigePoints,
			Multiplier: s.PrestigeMultiplier,
		},
		Stats: StatsDTO{
			TotalClicks:        s.Stats.TotalClicks,
			TimePlayed:         s.Stats.TimePlayed,
			HighestShapes:      s.Stats.HighestShapes.String(),
			HighestShapesShort: numfmt.FormatShort(s.Stats.HighestShapes),
			TotalPrestiges:     s.Stats.TotalPrestiges,
			LuckyShapesClicked: s.Stats.LuckyShapesClicked,
		},
		Version: s.Version,
	}

	for _, b := range s.Buildings {
		def, ok := catalog.BuildingByID(b.ID)
		if !ok {
			continue
		}
		resp.Buildings = append(resp.Buildings, BuildingDTO{
			ID:            b.ID,
			Name:          def.Name,
			Description:   def.Description,
			Color:         def.Color,
			CurrentLevel:  b.CurrentLevel,
			Owned:         b.Owned,
			PrestigeLevel: b.PrestigeLevel,
			MaxLevel:      def.MaxLevel,
			Cost:          b.Cost.String(),
			CostShort:     numfmt.FormatShort(b.Cost),
			Production:    b.Production.String(),
			Unlocked:      s.BuildingUnlocked(b.ID),
			Affordable:    s.Shapes.Amount.GreaterThanOrEqual(b.Cost),
		})
	}
	for _, u := range s.Upgrades {
		def, ok := catalog.UpgradeByID(u.ID)
		if !ok {
			continue
		}
		resp.Upgrades = append(resp.Upgrades, UpgradeDTO{
			ID:           u.ID,
			Name:         def.Name,
			Description:  def.Description,
			Type:         string(def.Type),
			CurrentLevel: u.CurrentLevel,
			MaxLevel:     def.MaxLevel,
			Multiplier:   u.Multiplier,
			Cost:         u.CurrentCost.String(),
			CostShort:    numfmt.FormatShort(u.CurrentCost),
			Purchased:    u.Purchased(),
			Unlocked:     s.UpgradeUnlocked(u.ID),
			Affordable:   s.Shapes.Amount.GreaterThanOrEqual(u.CurrentCost),
		})
	}
	for _, def := range catalog.Achievements {
		resp.Achievements = append(resp.Achievements, AchievementDTO{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Unlocked:    s.HasAchievement(def.ID),
		})
	}
	if s.BoostRemainingSec > 0 {
		resp.Boost = &BoostDTO{
			Multiplier:   s.BoostMultiplier,
			RemainingSec: s.BoostRemainingSec,
		}
	}
	return resp
}
