package game

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idle-shapes/game-service/internal/catalog"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestController() *Controller {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return NewController(NewState(base), func() time.Time { return base })
}

func TestClickThenBuyScenario(t *testing.T) {
	c := newTestController()

	// Nothing affordable yet: purchase is a silent no-op.
	before := c.Snapshot()
	res := c.PurchaseBuilding("box")
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonInsufficientFunds, res.Reason)
	assert.Equal(t, before.Shapes, c.Snapshot().Shapes)

	for i := 0; i < 100; i++ {
		res := c.ApplyClick()
		require.True(t, res.Applied)
	}
	snap := c.Snapshot()
	assert.True(t, snap.Shapes.Amount.Equal(dec("100")), "amount=%s", snap.Shapes.Amount)
	assert.True(t, snap.Shapes.Earned.Equal(dec("100")))
	assert.Equal(t, int64(100), snap.Stats.TotalClicks)

	// Box costs 15 at level 0.
	res = c.PurchaseBuilding("box")
	require.True(t, res.Applied)
	snap = c.Snapshot()
	assert.True(t, snap.Shapes.Amount.Equal(dec("85")), "amount=%s", snap.Shapes.Amount)
	b := snap.BuildingState("box")
	assert.Equal(t, 1, b.CurrentLevel)
	assert.Equal(t, 1, b.Owned)
	assert.Contains(t, res.Unlocked, "first-box")
}

func TestPurchaseRejectionsLeaveStateUntouched(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("1000000")
	// Earned stays low, so expensive content is still locked.
	before := c.Snapshot()

	res := c.PurchaseBuilding("omega")
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonLocked, res.Reason)

	res = c.PurchaseBuilding("nope")
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonUnknownID, res.Reason)

	res = c.PurchaseUpgrade("turbo-production")
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonLocked, res.Reason)

	assert.Equal(t, before.Shapes, c.Snapshot().Shapes)
	assert.Equal(t, before.Buildings, c.Snapshot().Buildings)
	assert.Equal(t, before.Upgrades, c.Snapshot().Upgrades)
}

func TestPurchaseUpgradeRecomputesAggregates(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("1000")
	c.state.Shapes.Earned = dec("1000")
	require.True(t, c.PurchaseBuilding("box").Applied)

	perSecondBefore := c.Snapshot().Shapes.PerSecond
	res := c.PurchaseUpgrade("enhanced-production")
	require.True(t, res.Applied)

	snap := c.Snapshot()
	u := snap.UpgradeState("enhanced-production")
	assert.Equal(t, 1, u.CurrentLevel)
	assert.True(t, u.Purchased())
	assert.True(t, snap.Shapes.PerSecond.Equal(perSecondBefore.Mul(dec("2"))),
		"production upgrade should double perSecond: %s vs %s", perSecondBefore, snap.Shapes.PerSecond)
}

func TestTickProduction(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("100")
	c.state.Shapes.Earned = dec("100")
	require.True(t, c.PurchaseBuilding("box").Applied)

	snap := c.Snapshot()
	require.True(t, snap.Shapes.PerSecond.Equal(dec("0.1")), "perSecond=%s", snap.Shapes.PerSecond)

	res := c.TickProduction(10)
	require.True(t, res.Applied)
	snap = c.Snapshot()
	assert.True(t, snap.Shapes.Amount.Equal(dec("86")), "amount=%s", snap.Shapes.Amount)
	assert.True(t, snap.Shapes.Earned.Equal(dec("101")))
	assert.InDelta(t, 10.0, snap.Stats.TimePlayed, 1e-9)
}

func TestTickClampsNegativeDelta(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("100")
	c.state.Shapes.Earned = dec("100")
	require.True(t, c.PurchaseBuilding("box").Applied)

	before := c.Snapshot()
	res := c.TickProduction(-5)
	require.True(t, res.Applied)
	after := c.Snapshot()
	assert.Equal(t, before.Shapes, after.Shapes)
	assert.InDelta(t, before.Stats.TimePlayed, after.Stats.TimePlayed, 1e-9)
}

func TestCollectBonusAndBoostExpiry(t *testing.T) {
	c := newTestController()

	res := c.CollectBonus(dec("50"), 7, 30)
	require.True(t, res.Applied)
	snap := c.Snapshot()
	assert.True(t, snap.Shapes.Amount.Equal(dec("50")))
	assert.Equal(t, int64(1), snap.Stats.LuckyShapesClicked)

	// Boost multiplies click power while armed.
	assert.True(t, c.state.ClickPower().Equal(dec("7")), "power=%s", c.state.ClickPower())

	c.TickProduction(29)
	assert.True(t, c.state.ClickPower().Equal(dec("7")), "boost still active at 29s")
	c.TickProduction(2)
	assert.True(t, c.state.ClickPower().Equal(dec("1")), "boost expired after 31s")
	assert.Zero(t, c.Snapshot().BoostMultiplier)
}

func TestCollectBonusAppliesGoldenUpgrades(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("100000")
	c.state.Shapes.Earned = dec("100000")
	// lucky-clover: golden type, effective multiplier 4 at level 1.
	require.True(t, c.PurchaseUpgrade("lucky-clover").Applied)
	amountAfterBuy := c.Snapshot().Shapes.Amount

	res := c.CollectBonus(dec("50"), 0, 0)
	require.True(t, res.Applied)
	got := c.Snapshot().Shapes.Amount.Sub(amountAfterBuy)
	assert.True(t, got.Equal(dec("200")), "50 * 4x clover = 200, got %s", got)
}

func TestResonanceUpgradeScalesWithBuildings(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("10000000")
	c.state.Shapes.Earned = dec("10000000")
	require.True(t, c.PurchaseUpgrade(catalog.ResonanceUpgradeID).Applied)

	for i := 0; i < 10; i++ {
		require.True(t, c.PurchaseBuilding("box").Applied)
	}
	// first-box grants +1 base click power and millionaire (earned 1e7)
	// compounds the prestige multiplier by 1.1. Resonance at level 1 has
	// multiplier 1.0; 10 owned buildings add +10%.
	// 2 * 1.0 * 1.1 * 1.1 = 2.42
	power := c.state.ClickPower()
	assert.True(t, power.Equal(dec("2.42")), "power=%s", power)
}

func TestPrestigeFlow(t *testing.T) {
	c := newTestController()
	assert.False(t, c.PrestigeEligible())
	res := c.ConfirmPrestige()
	assert.False(t, res.Applied)
	assert.Equal(t, ReasonNotEligible, res.Reason)

	c.state.Shapes.Amount = dec("5000")
	c.state.Shapes.Earned = dec("10000000000000") // 1e13: one point
	require.True(t, c.PurchaseBuilding("box").Applied)

	points, nextMult, eligible := c.PrestigePreview()
	assert.True(t, eligible)
	assert.Equal(t, 1, points)

	res = c.ConfirmPrestige()
	require.True(t, res.Applied)
	assert.Contains(t, res.Unlocked, "transcended")

	snap := c.Snapshot()
	assert.True(t, snap.Shapes.Amount.IsZero())
	assert.True(t, snap.Shapes.Earned.IsZero())
	assert.Equal(t, 1, snap.PrestigePoints)
	assert.Equal(t, 1, snap.Stats.TotalPrestiges)
	// transcended compounds another +25% on top of the prestige gain.
	assert.InDelta(t, nextMult*1.25, snap.PrestigeMultiplier, 1e-9)

	b := snap.BuildingState("box")
	assert.Equal(t, 0, b.CurrentLevel)
	assert.Equal(t, 0, b.Owned)
	assert.Equal(t, 1, b.PrestigeLevel)
	// Prestiged building costs 5% more at level 0.
	assert.True(t, b.Cost.Equal(dec("15.75")), "cost=%s", b.Cost)

	// Achievements survive the reset.
	assert.True(t, snap.HasAchievement("first-box"))
}

func TestAchievementsApplyExactlyOnce(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Amount = dec("100")
	c.state.Shapes.Earned = dec("100")

	require.True(t, c.PurchaseBuilding("box").Applied)
	baseAfterFirst := c.Snapshot().BaseClickPower
	assert.InDelta(t, 2.0, baseAfterFirst, 1e-9, "first-box adds +1 click power")

	require.True(t, c.PurchaseBuilding("box").Applied)
	assert.InDelta(t, baseAfterFirst, c.Snapshot().BaseClickPower, 1e-9,
		"re-evaluating an unlocked achievement must not re-apply its reward")

	count := 0
	for _, id := range c.Snapshot().UnlockedAchievements {
		if id == "first-box" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNewGameArchivesRun(t *testing.T) {
	c := newTestController()
	c.state.Shapes.Earned = dec("123456")
	c.state.Stats.TimePlayed = 42
	c.state.Stats.TotalPrestiges = 2

	summary := c.NewGame()
	assert.True(t, summary.Earned.Equal(dec("123456")))
	assert.Equal(t, 2, summary.TotalPrestiges)
	assert.InDelta(t, 42.0, summary.TimePlayed, 1e-9)

	snap := c.Snapshot()
	assert.True(t, snap.Shapes.Amount.IsZero())
	assert.True(t, snap.Shapes.Earned.IsZero())
	assert.Empty(t, snap.UnlockedAchievements)
	assert.InDelta(t, 1.0, snap.PrestigeMultiplier, 1e-9)
	assert.Equal(t, ModeActive, c.Mode())
}

func TestSuspendRejectsMutations(t *testing.T) {
	c := newTestController()
	c.Suspend()
	assert.Equal(t, ModeSuspended, c.Mode())

	assert.Equal(t, ReasonSuspended, c.ApplyClick().Reason)
	assert.Equal(t, ReasonSuspended, c.PurchaseBuilding("box").Reason)
	assert.Equal(t, ReasonSuspended, c.PurchaseUpgrade("better-clicks").Reason)
	assert.Equal(t, ReasonSuspended, c.TickProduction(1).Reason)
	assert.Equal(t, ReasonSuspended, c.CollectBonus(dec("1"), 0, 0).Reason)
	assert.Equal(t, ReasonSuspended, c.ConfirmPrestige().Reason)

	c.Resume()
	assert.Equal(t, ModeActive, c.Mode())
	assert.True(t, c.ApplyClick().Applied)
}

func TestSubscribeNotifiesOnMutation(t *testing.T) {
	c := newTestController()
	var got int64 = -1
	unsubscribe := c.Subscribe(func(s *State) { got = s.Stats.TotalClicks })

	c.ApplyClick()
	assert.Equal(t, int64(1), got)

	unsubscribe()
	c.ApplyClick()
	assert.Equal(t, int64(1), got, "unsubscribed listener must not fire")
}

func TestHighestShapesTracksPeak(t *testing.T) {
	c := newTestController()
	for i := 0; i < 20; i++ {
		c.ApplyClick()
	}
	require.True(t, c.PurchaseBuilding("box").Applied)
	snap := c.Snapshot()
	assert.True(t, snap.Stats.HighestShapes.Equal(dec("20")),
		"peak stays at pre-purchase amount, got %s", snap.Stats.HighestShapes)
}
