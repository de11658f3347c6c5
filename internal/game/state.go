// Package game owns the authoritative game state and the controller that
// mutates it. All mutation goes through the controller's named operations;
// every other layer only ever sees snapshots.
package game

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/catalog"
	"github.com/idle-shapes/game-service/internal/economy"
)

// SaveVersion tags serialized states; loads from other versions still work
// but surface a "game updated" notice.
const SaveVersion = "2.0.0"

// Resource tracks the shapes balance. Amount is spendable, Earned is the
// lifetime total used for unlock gates and prestige, PerSecond is derived and
// recomputed, never a source of truth.
type Resource struct {
	Amount    decimal.Decimal
	Earned    decimal.Decimal
	PerSecond decimal.Decimal
}

// Building is the runtime state of one producer type. Production and Cost are
// caches of the pure formulas and are refreshed on every level change.
type Building struct {
	ID            string
	CurrentLevel  int
	Owned         int
	PrestigeLevel int
	Production    decimal.Decimal
	Cost          decimal.Decimal
}

// Upgrade is the runtime state of one upgrade. CurrentCost and Multiplier are
// caches refreshed on every level change.
type Upgrade struct {
	ID           string
	CurrentLevel int
	CurrentCost  decimal.Decimal
	Multiplier   float64
}

// Purchased reports whether at least one level has been bought.
func (u Upgrade) Purchased() bool { return u.CurrentLevel > 0 }

// Stats accumulates run statistics. Monotonically non-decreasing except on an
// explicit new game.
type Stats struct {
	TotalClicks        int64
	TimePlayed         float64
	HighestShapes      decimal.Decimal
	TotalPrestiges     int
	LuckyShapesClicked int64
}

// State is the aggregate root. BaseClickPower grows with click-type
// achievement rewards; PrestigeMultiplier compounds prestige resets and
// production-type rewards; BonusMultiplier scales golden-container rewards.
type State struct {
	Shapes               Resource
	Buildings            []Building
	Upgrades             []Upgrade
	BaseClickPower       float64
	UnlockedAchievements []string
	PrestigePoints       int
	PrestigeMultiplier   float64
	BonusMultiplier      float64
	Stats                Stats

	// Temporary click boost from a golden container, counted down by the
	// production tick.
	BoostMultiplier   float64
	BoostRemainingSec float64

	LastSaveTime time.Time
	Version      string
}

// NewState builds a fresh run from the catalog defaults.
func NewState(now time.Time) *State {
	s := &State{
		Shapes: Resource{
			Amount:    decimal.Zero,
			Earned:    decimal.Zero,
			PerSecond: decimal.Zero,
		},
		Buildings:            make([]Building, 0, len(catalog.Buildings)),
		Upgrades:             make([]Upgrade, 0, len(catalog.Upgrades)),
		BaseClickPower:       1,
		UnlockedAchievements: []string{},
		PrestigePoints:       0,
		PrestigeMultiplier:   1,
		BonusMultiplier:      1,
		Stats:                Stats{HighestShapes: decimal.Zero},
		LastSaveTime:         now,
		Version:              SaveVersion,
	}
	for _, def := range catalog.Buildings {
		s.Buildings = append(s.Buildings, Building{ID: def.ID})
	}
	for _, def := range catalog.Upgrades {
		s.Upgrades = append(s.Upgrades, Upgrade{ID: def.ID})
	}
	s.Recompute()
	return s
}

// Recompute refreshes every derived field (building cost/production, upgrade
// cost/multiplier, perSecond) from the authoritative levels. Call after any
// level or multiplier change; the caches must never drift from the formulas.
func (s *State) Recompute() {
	for i := range s.Buildings {
		b := &s.Buildings[i]
		def, ok := catalog.BuildingByID(b.ID)
		if !ok {
			continue
		}
		b.Cost = economy.BuildingCost(def.BasePrice, b.CurrentLevel, b.PrestigeLevel)
		b.Production = economy.BuildingProduction(economy.BuildingInput{
			BasePrice:      def.BasePrice,
			BaseProduction: def.BaseProduction,
			Owned:          b.Owned,
			CurrentLevel:   b.CurrentLevel,
			PrestigeLevel:  b.PrestigeLevel,
		})
	}
	for i := range s.Upgrades {
		u := &s.Upgrades[i]
		def, ok := catalog.UpgradeByID(u.ID)
		if !ok {
			continue
		}
		u.CurrentCost = economy.UpgradeCost(def.BaseCost, u.CurrentLevel)
		u.Multiplier = economy.UpgradeMultiplier(def.BaseMultiplier, u.CurrentLevel)
	}
	s.Shapes.PerSecond = economy.TotalProductionPerSecond(
		s.buildingInputs(), s.upgradeInputs(), s.PrestigeMultiplier)
}

func (s *State) buildingInputs() []economy.BuildingInput {
	inputs := make([]economy.BuildingInput, 0, len(s.Buildings))
	for _, b := range s.Buildings {
		def, ok := catalog.BuildingByID(b.ID)
		if !ok {
			continue
		}
		inputs = append(inputs, economy.BuildingInput{
			BasePrice:      def.BasePrice,
			BaseProduction: def.BaseProduction,
			Owned:          b.Owned,
			CurrentLevel:   b.CurrentLevel,
			PrestigeLevel:  b.PrestigeLevel,
		})
	}
	return inputs
}

func (s *State) upgradeInputs() []economy.UpgradeInput {
	inputs := make([]economy.UpgradeInput, 0, len(s.Upgrades))
	for _, u := range s.Upgrades {
		def, ok := catalog.UpgradeByID(u.ID)
		if !ok {
			continue
		}
		inputs = append(inputs, economy.UpgradeInput{
			Type:       def.Type,
			Multiplier: u.Multiplier,
			Purchased:  u.Purchased(),
		})
	}
	return inputs
}

// ClickPower is the effective shapes-per-click right now, including any
// active temporary boost.
func (s *State) ClickPower() decimal.Decimal {
	resonance := false
	if u := s.UpgradeState(catalog.ResonanceUpgradeID); u != nil && u.Purchased() {
		resonance = true
	}
	boost := 0.0
	if s.BoostRemainingSec > 0 {
		boost = s.BoostMultiplier
	}
	return economy.TotalClickPower(
		s.BaseClickPower, s.upgradeInputs(), s.TotalBuildingsOwned(),
		resonance, s.PrestigeMultiplier, boost)
}

// BuildingState returns a pointer into the state's building slice, or nil.
func (s *State) BuildingState(id string) *Building {
	for i := range s.Buildings {
		if s.Buildings[i].ID == id {
			return &s.Buildings[i]
		}
	}
	return nil
}

// UpgradeState returns a pointer into the state's upgrade slice, or nil.
func (s *State) UpgradeState(id string) *Upgrade {
	for i := range s.Upgrades {
		if s.Upgrades[i].ID == id {
			return &s.Upgrades[i]
		}
	}
	return nil
}

// HasAchievement reports whether id is in the unlocked set.
func (s *State) HasAchievement(id string) bool {
	for _, got := range s.UnlockedAchievements {
		if got == id {
			return true
		}
	}
	return false
}

// BuildingUnlocked reports whether lifetime earnings have crossed the
// building's visibility threshold.
func (s *State) BuildingUnlocked(id string) bool {
	def, ok := catalog.BuildingByID(id)
	if !ok {
		return false
	}
	return s.Shapes.Earned.GreaterThanOrEqual(def.UnlockAt)
}

// UpgradeUnlocked reports whether lifetime earnings have crossed the
// upgrade's visibility threshold.
func (s *State) UpgradeUnlocked(id string) bool {
	def, ok := catalog.UpgradeByID(id)
	if !ok {
		return false
	}
	return s.Shapes.Earned.GreaterThanOrEqual(def.UnlockAt)
}

// Clone returns a deep copy safe to hand outside the controller. Decimal
// values are immutable, so copying the slices is enough.
func (s *State) Clone() *State {
	out := *s
	out.Buildings = make([]Building, len(s.Buildings))
	copy(out.Buildings, s.Buildings)
	out.Upgrades = make([]Upgrade, len(s.Upgrades))
	copy(out.Upgrades, s.Upgrades)
	out.UnlockedAchievements = make([]string, len(s.UnlockedAchievements))
	copy(out.UnlockedAchievements, s.UnlockedAchievements)
	return &out
}

// catalog.StateView implementation, consumed by the achievement predicates.

func (s *State) TotalEarned() decimal.Decimal { return s.Shapes.Earned }
func (s *State) TotalClicks() int64           { return s.Stats.TotalClicks }

func (s *State) TotalBuildingsOwned() int {
	total := 0
	for _, b := range s.Buildings {
		total += b.Owned
	}
	return total
}

func (s *State) DistinctBuildingsOwned() int {
	count := 0
	for _, b := range s.Buildings {
		if b.Owned > 0 {
			count++
		}
	}
	return count
}

func (s *State) UpgradeLevelsPurchased() int {
	total := 0
	for _, u := range s.Upgrades {
		total += u.CurrentLevel
	}
	return total
}

func (s *State) GoldenCollected() int64 { return s.Stats.LuckyShapesClicked }
func (s *State) PlaySeconds() int64     { return int64(s.Stats.TimePlayed) }
func (s *State) PrestigeLevel() int     { return s.Stats.TotalPrestiges }
