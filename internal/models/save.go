// Package models defines the wire types: the persisted save layout and the
// request/response DTOs of the HTTP API. Decimals always travel as strings,
// never through a lossy float intermediate.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/game"
)

// SaveV1 is the persisted game state. LastSaveTime is unix milliseconds.
type SaveV1 struct {
	Version              string          `json:"version"`
	LastSaveTime         int64           `json:"lastSaveTime"`
	Shapes               SavedResource   `json:"shapes"`
	Buildings            []SavedBuilding `json:"buildings"`
	Upgrades             []SavedUpgrade  `json:"upgrades"`
	ClickPower           float64         `json:"clickPower"`
	UnlockedAchievements []string        `json:"unlockedAchievements"`
	PrestigePoints       int             `json:"prestigePoints"`
	PrestigeMultiplier   float64         `json:"prestigeMultiplier"`
	BonusMultiplier      float64         `json:"bonusMultiplier"`
	Stats                SavedStats      `json:"stats"`
	BoostMultiplier      float64         `json:"boostMultiplier,omitempty"`
	BoostRemainingSec    float64         `json:"boostRemainingSec,omitempty"`
}

type SavedResource struct {
	Amount    string `json:"amount"`
	Earned    string `json:"earned"`
	PerSecond string `json:"perSecond"`
}

type SavedBuilding struct {
	ID            string `json:"id"`
	CurrentLevel  int    `json:"currentLevel"`
	Owned         int    `json:"owned"`
	PrestigeLevel int    `json:"prestigeLevel"`
}

type SavedUpgrade struct {
	ID           string `json:"id"`
	CurrentLevel int    `json:"currentLevel"`
}

type SavedStats struct {
	TotalClicks        int64   `json:"totalClicks"`
	TimePlayed         float64 `json:"timePlayed"`
	HighestShapes      string  `json:"highestShapes"`
	TotalPrestiges     int     `json:"totalPrestiges"`
	LuckyShapesClicked int64   `json:"luckyShapesClicked"`
}

// SaveFromState serializes a snapshot. Derived caches (costs, production,
// perSecond) are stored for the offline-progress computation but recomputed
// on load; levels are the source of truth.
func SaveFromState(s *game.State, savedAt time.Time) *SaveV1 {
	save := &SaveV1{
		Version:      s.Version,
		LastSaveTime: savedAt.UnixMilli(),
		Shapes: SavedResource{
			Amount:    s.Shapes.Amount.String(),
			Earned:    s.Shapes.Earned.String(),
			PerSecond: s.Shapes.PerSecond.String(),
		},
		Buildings:            make([]SavedBuilding, 0, len(s.Buildings)),
		Upgrades:             make([]SavedUpgrade, 0, len(s.Upgrades)),
		ClickPower:           s.BaseClickPower,
		UnlockedAchievements: append([]string{}, s.UnlockedAchievements...),
		PrestigePoints:       s.PrestigePoints,
		PrestigeMultiplier:   s.PrestigeMultiplier,
		BonusMultiplier:      s.BonusMultiplier,
		Stats: SavedStats{
			TotalClicks:        s.Stats.TotalClicks,
			TimePlayed:         s.Stats.TimePlayed,
			HighestShapes:      s.Stats.HighestShapes.String(),
			TotalPrestiges:     s.Stats.TotalPrestiges,
			LuckyShapesClicked: s.Stats.LuckyShapesClicked,
		},
		BoostMultiplier:   s.BoostMultiplier,
		BoostRemainingSec: s.BoostRemainingSec,
	}
	for _, b := range s.Buildings {
		save.Buildings = append(save.Buildings, SavedBuilding{
			ID:            b.ID,
			CurrentLevel:  b.CurrentLevel,
			Owned:         b.Owned,
			PrestigeLevel: b.PrestigeLevel,
		})
	}
	for _, u := range s.Upgrades {
		save.Upgrades = append(save.Upgrades, SavedUpgrade{
			ID:           u.ID,
			CurrentLevel: u.CurrentLevel,
		})
	}
	return save
}

// ToState rebuilds a runtime state from a save. Unknown building or upgrade
// ids are dropped; content added since the save gets catalog defaults. A bad
// decimal fails the whole load.
func (s *SaveV1) ToState(now time.Time) (*game.State, error) {
	amount, err := decimal.NewFromString(s.Shapes.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid shapes.amount %q: %w", s.Shapes.Amount, err)
	}
	earned, err := decimal.NewFromString(s.Shapes.Earned)
	if err != nil {
		return nil, fmt.Errorf("invalid shapes.earned %q: %w", s.Shapes.Earned, err)
	}
	perSecond, err := decimal.NewFromString(s.Shapes.PerSecond)
	if err != nil {
		return nil, fmt.Errorf("invalid shapes.perSecond %q: %w", s.Shapes.PerSecond, err)
	}
	highest := decimal.Zero
	if s.Stats.HighestShapes != "" {
		highest, err = decimal.NewFromString(s.Stats.HighestShapes)
		if err != nil {
			return nil, fmt.Errorf("invalid stats.highestShapes %q: %w", s.Stats.HighestShapes, err)
		}
	}

	state := game.NewState(now)
	state.Version = s.Version
	state.Shapes.Amount = amount
	state.Shapes.Earned = earned
	state.Shapes.PerSecond = perSecond
	if s.ClickPower > 0 {
		state.BaseClickPower = s.ClickPower
	}
	state.UnlockedAchievements = append([]string{}, s.UnlockedAchievements...)
	state.PrestigePoints = s.PrestigePoints
	if s.PrestigeMultiplier > 0 {
		state.PrestigeMultiplier = s.PrestigeMultiplier
	}
	if s.BonusMultiplier > 0 {
		state.BonusMultiplier = s.BonusMultiplier
	}
	state.Stats = game.Stats{
		TotalClicks:        s.Stats.TotalClicks,
		TimePlayed:         s.Stats.TimePlayed,
		HighestShapes:      highest,
		TotalPrestiges:     s.Stats.TotalPrestiges,
		LuckyShapesClicked: s.Stats.LuckyShapesClicked,
	}
	state.BoostMultiplier = s.BoostMultiplier
	state.BoostRemainingSec = s.BoostRemainingSec
	state.LastSaveTime = time.UnixMilli(s.LastSaveTime)

	for _, sb := range s.Buildings {
		if b := state.BuildingState(sb.ID); b != nil {
			b.CurrentLevel = sb.CurrentLevel
			b.Owned = sb.Owned
			b.PrestigeLevel = sb.PrestigeLevel
		}
	}
	for _, su := range s.Upgrades {
		if u := state.UpgradeState(su.ID); u != nil {
			u.CurrentLevel = su.CurrentLevel
		}
	}

	state.Recompute()
	return state, nil
}

// SavedRate returns the production rate recorded at save time, used for the
// offline-progress credit. Falls back to zero on a corrupt field.
func (s *SaveV1) SavedRate() decimal.Decimal {
	rate, err := decimal.NewFromString(s.Shapes.PerSecond)
	if err != nil {
		return decimal.Zero
	}
	return rate
}
