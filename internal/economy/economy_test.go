package economy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idle-shapes/game-service/internal/catalog"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildingProduction(t *testing.T) {
	base := BuildingInput{
		BaseProduction: dec("0.1"),
		Owned:          0,
	}
	assert.True(t, BuildingProduction(base).IsZero(), "zero owned produces nothing")

	base.Owned = 5
	base.CurrentLevel = 5
	got := BuildingProduction(base)
	assert.True(t, got.Equal(dec("0.5")), "no tier bonus below level 10, got %s", got)

	base.Owned = 10
	base.CurrentLevel = 10
	got = BuildingProduction(base)
	assert.True(t, got.Equal(dec("1.5")), "level 10 applies 1.5x tier, got %s", got)

	base.CurrentLevel = 20
	got = BuildingProduction(base)
	assert.True(t, got.Equal(dec("2.25")), "level 20 applies 1.5^2, got %s", got)

	base.CurrentLevel = 10
	base.PrestigeLevel = 10
	got = BuildingProduction(base)
	assert.True(t, got.Equal(dec("1.65")), "prestige 10 adds 10%%, got %s", got)
}

func TestBuildingCost(t *testing.T) {
	base := dec("15")
	assert.True(t, BuildingCost(base, 0, 0).Equal(dec("15")))
	assert.True(t, BuildingCost(base, 1, 0).Equal(dec("16.5")))
	assert.True(t, BuildingCost(base, 2, 0).Equal(dec("18.15")))

	// Each step is at least 10% more than the last.
	prev := BuildingCost(base, 0, 0)
	for lvl := 1; lvl <= 50; lvl++ {
		cur := BuildingCost(base, lvl, 0)
		require.True(t, cur.GreaterThanOrEqual(prev.Mul(dec("1.1"))),
			"cost at level %d grew less than 10%%", lvl)
		prev = cur
	}

	withPrestige := BuildingCost(base, 0, 1)
	assert.True(t, withPrestige.Equal(dec("15.75")), "prestige level compounds 1.05x, got %s", withPrestige)
}

func TestUpgradeCostDoubles(t *testing.T) {
	base := dec("100")
	assert.True(t, UpgradeCost(base, 0).Equal(dec("100")))
	assert.True(t, UpgradeCost(base, 1).Equal(dec("200")))
	assert.True(t, UpgradeCost(base, 3).Equal(dec("800")))
}

func TestUpgradeMultiplier(t *testing.T) {
	assert.InDelta(t, 1.0, UpgradeMultiplier(1.0, 0), 1e-9)
	assert.InDelta(t, 2.0, UpgradeMultiplier(1.0, 1), 1e-9)
	assert.InDelta(t, 1.65, UpgradeMultiplier(0.55, 2), 1e-9)
}

func TestTotalProductionPerSecond(t *testing.T) {
	buildings := []BuildingInput{
		{BaseProduction: dec("0.1"), Owned: 10, CurrentLevel: 10},
		{BaseProduction: dec("0.5"), Owned: 2, CurrentLevel: 2},
	}
	upgrades := []UpgradeInput{
		{Type: catalog.UpgradeProduction, Multiplier: 2.0, Purchased: true},
		{Type: catalog.UpgradeClick, Multiplier: 3.0, Purchased: true},
		{Type: catalog.UpgradeHybrid, Multiplier: 1.1, Purchased: true},
		{Type: catalog.UpgradeProduction, Multiplier: 5.0, Purchased: false},
	}

	// base sum = 1.5 + 1.0 = 2.5; production mults = 2.0 * 1.1 = 2.2
	got := TotalProductionPerSecond(buildings, upgrades, 1.0)
	assert.True(t, got.Equal(dec("5.5")), "got %s", got)

	got = TotalProductionPerSecond(buildings, upgrades, 2.0)
	assert.True(t, got.Equal(dec("11")), "prestige doubles, got %s", got)

	got = TotalProductionPerSecond(nil, upgrades, 2.0)
	assert.True(t, got.IsZero(), "no buildings, no production")
}

func TestTotalClickPower(t *testing.T) {
	upgrades := []UpgradeInput{
		{Type: catalog.UpgradeClick, Multiplier: 2.0, Purchased: true},
		{Type: catalog.UpgradeHybrid, Multiplier: 1.1, Purchased: true},
		{Type: catalog.UpgradeProduction, Multiplier: 9.0, Purchased: true},
	}

	got := TotalClickPower(1.0, upgrades, 0, false, 1.0, 0)
	assert.True(t, got.Equal(dec("2.2")), "got %s", got)

	got = TotalClickPower(1.0, upgrades, 50, true, 1.0, 0)
	assert.True(t, got.Equal(dec("3.3")), "resonance with 50 owned is +50%%, got %s", got)

	got = TotalClickPower(1.0, upgrades, 0, false, 2.0, 7.0)
	assert.True(t, got.Equal(dec("30.8")), "prestige and temp multiplier stack, got %s", got)
}

func TestGoldenMultiplier(t *testing.T) {
	upgrades := []UpgradeInput{
		{Type: catalog.UpgradeGolden, Multiplier: 4.0, Purchased: true},
		{Type: catalog.UpgradeGolden, Multiplier: 2.0, Purchased: false},
		{Type: catalog.UpgradeClick, Multiplier: 3.0, Purchased: true},
	}
	assert.InDelta(t, 4.0, GoldenMultiplier(upgrades), 1e-9)
}

func TestCanAfford(t *testing.T) {
	assert.True(t, CanAfford(dec("10"), dec("10")))
	assert.True(t, CanAfford(dec("11"), dec("10")))
	assert.False(t, CanAfford(dec("9.999"), dec("10")))
}

func TestPrestigeEligibility(t *testing.T) {
	assert.False(t, PrestigeEligible(dec("999999999999")))
	assert.True(t, PrestigeEligible(dec("1000000000000")))
}

func TestPrestigePoints(t *testing.T) {
	tests := []struct {
		earned string
		want   int
	}{
		{"0", 0},
		{"999999999999", 0},
		{"1000000000000", 0},  // exactly 1e12: log10(1) = 0
		{"9999999999999", 0},  // just under 1e13
		{"10000000000000", 1}, // 1e13
		{"1000000000000000", 3},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, PrestigePoints(dec(tc.earned)), "earned=%s", tc.earned)
	}

	// Stays exact far past float64 range.
	huge := decimal.New(1, 120) // 1e120
	assert.Equal(t, 108, PrestigePoints(huge))
}

func TestNextPrestigeMultiplier(t *testing.T) {
	assert.InDelta(t, 1.0, NextPrestigeMultiplier(1.0, 0), 1e-9)
	assert.InDelta(t, 1.3, NextPrestigeMultiplier(1.0, 3), 1e-9)
	assert.InDelta(t, 2.6, NextPrestigeMultiplier(2.0, 3), 1e-9)
}
