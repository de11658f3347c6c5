// Package economy implements the cost, production and prestige formulas as
// pure functions. Callers pass plain inputs and get decimals back; nothing
// here reads or mutates game state.
package economy

import (
	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/catalog"
)

// PrestigeThreshold is the lifetime-earned amount required before a prestige
// reset becomes available.
var PrestigeThreshold = decimal.New(1, 12) // 1e12

var (
	buildingCostGrowth     = decimal.RequireFromString("1.1")
	buildingPrestigeGrowth = decimal.RequireFromString("1.05")
	buildingTierBonus      = decimal.RequireFromString("1.5")
	upgradeCostGrowth      = decimal.NewFromInt(2)
	centi                  = decimal.RequireFromString("0.01")
)

// BuildingInput carries the fields of one building the formulas need.
type BuildingInput struct {
	BasePrice      decimal.Decimal
	BaseProduction decimal.Decimal
	Owned          int
	CurrentLevel   int
	PrestigeLevel  int
}

// UpgradeInput carries the fields of one upgrade the aggregate formulas need.
// Multiplier is the effective multiplier at the upgrade's current level.
type UpgradeInput struct {
	Type       catalog.UpgradeType
	Multiplier float64
	Purchased  bool
}

// BuildingProduction returns shapes per second for one building: every ten
// levels compound a 1.5x tier bonus, and each prestige of the building adds a
// permanent 1%.
func BuildingProduction(in BuildingInput) decimal.Decimal {
	if in.Owned == 0 {
		return decimal.Zero
	}
	tier := buildingTierBonus.Pow(decimal.NewFromInt(int64(in.CurrentLevel / 10)))
	prestigeBonus := decimal.NewFromInt(1).Add(centi.Mul(decimal.NewFromInt(int64(in.PrestigeLevel))))
	return in.BaseProduction.
		Mul(decimal.NewFromInt(int64(in.Owned))).
		Mul(tier).
		Mul(prestigeBonus)
}

// BuildingCost prices the next unit using the pre-purchase level: going from
// level N to N+1 costs basePrice * 1.10^N * 1.05^prestigeLevel.
func BuildingCost(basePrice decimal.Decimal, currentLevel, prestigeLevel int) decimal.Decimal {
	cost := basePrice.Mul(buildingCostGrowth.Pow(decimal.NewFromInt(int64(currentLevel))))
	if prestigeLevel > 0 {
		cost = cost.Mul(buildingPrestigeGrowth.Pow(decimal.NewFromInt(int64(prestigeLevel))))
	}
	return cost
}

// UpgradeCost doubles per level already bought.
func UpgradeCost(baseCost decimal.Decimal, currentLevel int) decimal.Decimal {
	return baseCost.Mul(upgradeCostGrowth.Pow(decimal.NewFromInt(int64(currentLevel))))
}

// UpgradeMultiplier returns the effective multiplier at the given level.
func UpgradeMultiplier(baseMultiplier float64, currentLevel int) float64 {
	return baseMultiplier * float64(1+currentLevel)
}

// TotalProductionPerSecond sums building output and applies the purchased
// production and hybrid upgrade multipliers plus the prestige multiplier.
func TotalProductionPerSecond(buildings []BuildingInput, upgrades []UpgradeInput, prestigeMultiplier float64) decimal.Decimal {
	total := decimal.Zero
	for _, b := range buildings {
		total = total.Add(BuildingProduction(b))
	}
	if total.IsZero() {
		return total
	}

	mult := 1.0
	for _, u := range upgrades {
		if !u.Purchased {
			continue
		}
		if u.Type == catalog.UpgradeProduction || u.Type == catalog.UpgradeHybrid {
			mult *= u.Multiplier
		}
	}
	return total.Mul(decimal.NewFromFloat(mult * prestigeMultiplier))
}

// TotalClickPower applies the click and hybrid upgrade multipliers, the
// resonance building bonus, the prestige multiplier and any temporary bonus
// multiplier to the base click power. Pass tempMultiplier <= 0 for "none".
func TotalClickPower(baseClickPower float64, upgrades []UpgradeInput, totalOwned int, resonance bool, prestigeMultiplier, tempMultiplier float64) decimal.Decimal {
	mult := 1.0
	for _, u := range upgrades {
		if !u.Purchased {
			continue
		}
		if u.Type == catalog.UpgradeClick || u.Type == catalog.UpgradeHybrid {
			mult *= u.Multiplier
		}
	}

	buildingBonus := 1.0
	if resonance {
		buildingBonus = 1.0 + 0.01*float64(totalOwned)
	}
	if tempMultiplier <= 0 {
		tempMultiplier = 1.0
	}
	return decimal.NewFromFloat(baseClickPower).
		Mul(decimal.NewFromFloat(mult)).
		Mul(decimal.NewFromFloat(buildingBonus)).
		Mul(decimal.NewFromFloat(prestigeMultiplier)).
		Mul(decimal.NewFromFloat(tempMultiplier))
}

// GoldenMultiplier is the product of purchased golden upgrade multipliers,
// applied to bonus-container rewards.
func GoldenMultiplier(upgrades []UpgradeInput) float64 {
	mult := 1.0
	for _, u := range upgrades {
		if u.Purchased && u.Type == catalog.UpgradeGolden {
			mult *= u.Multiplier
		}
	}
	return mult
}

// CanAfford reports whether amount covers cost.
func CanAfford(amount, cost decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(cost)
}

// PrestigeEligible reports whether lifetime earnings meet the threshold.
func PrestigeEligible(earned decimal.Decimal) bool {
	return earned.GreaterThanOrEqual(PrestigeThreshold)
}

// PrestigePoints is floor(log10(earned/threshold)), never negative: one point
// per order of magnitude past the threshold. Counting integer digits of the
// ratio keeps this exact far beyond float range.
func PrestigePoints(earned decimal.Decimal) int {
	if !PrestigeEligible(earned) {
		return 0
	}
	ratio := earned.Div(PrestigeThreshold).Truncate(0)
	if ratio.LessThan(decimal.NewFromInt(1)) {
		return 0
	}
	return len(ratio.String()) - 1
}

// NextPrestigeMultiplier compounds the permanent production multiplier:
// each gained point is worth +10% of the current multiplier.
func NextPrestigeMultiplier(current float64, gainedPoints int) float64 {
	return current * (1 + float64(gainedPoints)*0.1)
}
