package catalog

import (
	"github.com/shopspring/decimal"
)

// RewardKind names the permanent bonus an achievement grants when unlocked.
type RewardKind string

const (
	RewardClickPower         RewardKind = "click_power"
	RewardPrestigeMultiplier RewardKind = "prestige_multiplier"
	RewardBonusMultiplier    RewardKind = "bonus_multiplier"
)

// StateView is the read-only slice of game state the achievement predicates
// need. internal/game implements it; keeping it an interface here avoids an
// import cycle between the catalog and the runtime state.
type StateView interface {
	TotalEarned() decimal.Decimal
	TotalClicks() int64
	TotalBuildingsOwned() int
	DistinctBuildingsOwned() int
	UpgradeLevelsPurchased() int
	GoldenCollected() int64
	PlaySeconds() int64
	PrestigeLevel() int
}

// AchievementDef pairs an unlock predicate with the permanent reward it
// grants. Predicates are pure reads; evaluation order follows the slice.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Reward      RewardKind
	// RewardAmount is added to the reward aggregate on unlock, e.g. 0.05
	// on RewardPrestigeMultiplier means a permanent +5% production.
	RewardAmount float64
	Unlocked     func(StateView) bool
}

// Achievements lists every achievement in display order.
var Achievements = []AchievementDef{
	{
		ID: "first-box", Name: "First Box",
		Description:  "Buy your first Shape Box",
		Reward:       RewardClickPower,
		RewardAmount: 1,
		Unlocked: func(s StateView) bool {
			return s.TotalBuildingsOwned() >= 1
		},
	},
	{
		ID: "box-enthusiast", Name: "Box Enthusiast",
		Description:  "Own 25 buildings in total",
		Reward:       RewardPrestigeMultiplier,
		RewardAmount: 0.05,
		Unlocked: func(s StateView) bool {
			return s.TotalBuildingsOwned() >= 25
		},
	},
	{
		ID: "golden-streak", Name: "Golden Streak",
		Description:  "Collect 10 golden containers",
		Reward:       RewardBonusMultiplier,
		RewardAmount: 0.25,
		Unlocked: func(s StateView) bool {
			return s.GoldenCollected() >= 10
		},
	},
	{
		ID: "speed-demon", Name: "Speed Demon",
		Description:  "Click 1,000 times",
		Reward:       RewardClickPower,
		RewardAmount: 5,
		Unlocked: func(s StateView) bool {
			return s.TotalClicks() >= 1000
		},
	},
	{
		ID: "millionaire", Name: "Millionaire",
		Description:  "Earn 1,000,000 shapes in total",
		Reward:       RewardPrestigeMultiplier,
		RewardAmount: 0.10,
		Unlocked: func(s StateView) bool {
			return s.TotalEarned().GreaterThanOrEqual(decimal.NewFromInt(1000000))
		},
	},
	{
		ID: "master-collector", Name: "Master Collector",
		Description:  "Own at least one of every building type",
		Reward:       RewardPrestigeMultiplier,
		RewardAmount: 0.15,
		Unlocked: func(s StateView) bool {
			return s.DistinctBuildingsOwned() >= len(Buildings)
		},
	},
	{
		ID: "upgrade-master", Name: "Upgrade Master",
		Description:  "Purchase 10 upgrade levels",
		Reward:       RewardClickPower,
		RewardAmount: 10,
		Unlocked: func(s StateView) bool {
			return s.UpgradeLevelsPurchased() >= 10
		},
	},
	{
		ID: "golden-hoard", Name: "Golden Hoard",
		Description:  "Collect 100 golden containers",
		Reward:       RewardBonusMultiplier,
		RewardAmount: 0.50,
		Unlocked: func(s StateView) bool {
			return s.GoldenCollected() >= 100
		},
	},
	{
		ID: "dedicated", Name: "Dedicated",
		Description:  "Play for one hour in total",
		Reward:       RewardPrestigeMultiplier,
		RewardAmount: 0.05,
		Unlocked: func(s StateView) bool {
			return s.PlaySeconds() >= 3600
		},
	},
	{
		ID: "transcended", Name: "Transcended",
		Description:  "Prestige for the first time",
		Reward:       RewardPrestigeMultiplier,
		RewardAmount: 0.25,
		Unlocked: func(s StateView) bool {
			return s.PrestigeLevel() >= 1
		},
	},
}

// AchievementByID returns the definition for id, or false when unknown.
func AchievementByID(id string) (AchievementDef, bool) {
	for _, def := range Achievements {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDef{}, false
}
