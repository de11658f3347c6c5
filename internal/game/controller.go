package game

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/idle-shapes/game-service/internal/catalog"
	"github.com/idle-shapes/game-service/internal/economy"
)

var _ catalog.StateView = (*State)(nil)

// Mode is the controller macro-state. Suspended stops the production tick;
// every other operation is rejected while suspended except Resume, Snapshot
// and load/new-game.
type Mode string

const (
	ModeActive    Mode = "active"
	ModeSuspended Mode = "suspended"
)

// Rejection reasons reported in OpResult.Reason.
const (
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonMaxLevel          = "max_level"
	ReasonLocked            = "locked"
	ReasonUnknownID         = "unknown_id"
	ReasonNotEligible       = "not_eligible"
	ReasonSuspended         = "suspended"
)

// OpResult reports whether an operation applied and, when it did not, why.
// Rejections are ordinary outcomes, not errors: the state is untouched.
type OpResult struct {
	Applied  bool
	Reason   string
	Unlocked []string
}

func applied(unlocked []string) OpResult {
	return OpResult{Applied: true, Unlocked: unlocked}
}

func rejected(reason string) OpResult {
	return OpResult{Applied: false, Reason: reason}
}

// RunSummary captures the ending run for the high-score archive.
type RunSummary struct {
	Earned         decimal.Decimal
	TotalPrestiges int
	TimePlayed     float64
	EndedAt        time.Time
}

// Controller is the single owner of a State. It is not safe for concurrent
// use; the session layer serializes access to it.
type Controller struct {
	state     *State
	mode      Mode
	now       func() time.Time
	listeners map[int]func(*State)
	nextSub   int
}

// NewController wraps an existing state (freshly created or loaded). The
// clock is injectable for tests; pass nil for time.Now.
func NewController(state *State, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		state:     state,
		mode:      ModeActive,
		now:       now,
		listeners: make(map[int]func(*State)),
	}
}

// Mode returns the current macro-state.
func (c *Controller) Mode() Mode { return c.mode }

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() *State { return c.state.Clone() }

// Subscribe registers a listener called with a snapshot after every applied
// mutation. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(*State)) func() {
	id := c.nextSub
	c.nextSub++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	snap := c.state.Clone()
	for _, fn := range c.listeners {
		fn(snap)
	}
}

// ApplyClick credits one manual click at the current click power.
func (c *Controller) ApplyClick() OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	power := c.state.ClickPower()
	c.credit(power)
	c.state.Stats.TotalClicks++
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// credit adds shapes to both the balance and the lifetime total and keeps the
// highest-observed stat current.
func (c *Controller) credit(amount decimal.Decimal) {
	c.state.Shapes.Amount = c.state.Shapes.Amount.Add(amount)
	c.state.Shapes.Earned = c.state.Shapes.Earned.Add(amount)
	if c.state.Shapes.Amount.GreaterThan(c.state.Stats.HighestShapes) {
		c.state.Stats.HighestShapes = c.state.Shapes.Amount
	}
}

// PurchaseBuilding buys the next unit of a building. Deduction and increment
// happen together or not at all.
func (c *Controller) PurchaseBuilding(id string) OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	def, ok := catalog.BuildingByID(id)
	if !ok {
		return rejected(ReasonUnknownID)
	}
	b := c.state.BuildingState(id)
	if b == nil {
		return rejected(ReasonUnknownID)
	}
	if !c.state.BuildingUnlocked(id) {
		return rejected(ReasonLocked)
	}
	if b.CurrentLevel >= def.MaxLevel {
		return rejected(ReasonMaxLevel)
	}
	cost := economy.BuildingCost(def.BasePrice, b.CurrentLevel, b.PrestigeLevel)
	if !economy.CanAfford(c.state.Shapes.Amount, cost) {
		return rejected(ReasonInsufficientFunds)
	}

	c.state.Shapes.Amount = c.state.Shapes.Amount.Sub(cost)
	b.CurrentLevel++
	b.Owned++
	c.state.Recompute()
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// PurchaseUpgrade buys the next level of an upgrade.
func (c *Controller) PurchaseUpgrade(id string) OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	def, ok := catalog.UpgradeByID(id)
	if !ok {
		return rejected(ReasonUnknownID)
	}
	u := c.state.UpgradeState(id)
	if u == nil {
		return rejected(ReasonUnknownID)
	}
	if !c.state.UpgradeUnlocked(id) {
		return rejected(ReasonLocked)
	}
	if u.CurrentLevel >= def.MaxLevel {
		return rejected(ReasonMaxLevel)
	}
	cost := economy.UpgradeCost(def.BaseCost, u.CurrentLevel)
	if !economy.CanAfford(c.state.Shapes.Amount, cost) {
		return rejected(ReasonInsufficientFunds)
	}

	c.state.Shapes.Amount = c.state.Shapes.Amount.Sub(cost)
	u.CurrentLevel++
	c.state.Recompute()
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// TickProduction credits deltaSeconds of passive production. Negative deltas
// from clock anomalies clamp to zero. The active boost timer counts down
// here; no-op while suspended.
func (c *Controller) TickProduction(deltaSeconds float64) OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	if deltaSeconds < 0 {
		deltaSeconds = 0
	}
	if c.state.BoostRemainingSec > 0 {
		c.state.BoostRemainingSec -= deltaSeconds
		if c.state.BoostRemainingSec <= 0 {
			c.state.BoostRemainingSec = 0
			c.state.BoostMultiplier = 0
		}
	}
	if deltaSeconds > 0 {
		produced := c.state.Shapes.PerSecond.Mul(decimal.NewFromFloat(deltaSeconds))
		c.credit(produced)
		c.state.Stats.TimePlayed += deltaSeconds
	}
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// CollectBonus credits a golden-container pickup. The caller (the spawn
// widget) owns timing and kind; the controller applies the golden upgrade
// multipliers and the achievement bonus multiplier, and arms a temporary
// click boost when one is attached.
func (c *Controller) CollectBonus(amount decimal.Decimal, tempMultiplier, tempDurationSec float64) OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	golden := economy.GoldenMultiplier(c.state.upgradeInputs())
	reward := amount.Mul(decimal.NewFromFloat(golden * c.state.BonusMultiplier))
	c.credit(reward)
	c.state.Stats.LuckyShapesClicked++
	if tempMultiplier > 0 && tempDurationSec > 0 {
		c.state.BoostMultiplier = tempMultiplier
		c.state.BoostRemainingSec = tempDurationSec
	}
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// PrestigeEligible reports whether a prestige reset is currently available.
func (c *Controller) PrestigeEligible() bool {
	return economy.PrestigeEligible(c.state.Shapes.Earned)
}

// PrestigePreview returns what a prestige would grant right now.
func (c *Controller) PrestigePreview() (points int, nextMultiplier float64, eligible bool) {
	eligible = c.PrestigeEligible()
	points = economy.PrestigePoints(c.state.Shapes.Earned)
	nextMultiplier = economy.NextPrestigeMultiplier(c.state.PrestigeMultiplier, points)
	return points, nextMultiplier, eligible
}

// ConfirmPrestige performs the full reset: buildings drop to level zero but
// gain a prestige level, upgrades reset, shapes zero out, and the permanent
// multiplier compounds. Only ever called on explicit player confirmation.
func (c *Controller) ConfirmPrestige() OpResult {
	if c.mode == ModeSuspended {
		return rejected(ReasonSuspended)
	}
	if !c.PrestigeEligible() {
		return rejected(ReasonNotEligible)
	}
	points := economy.PrestigePoints(c.state.Shapes.Earned)

	for i := range c.state.Buildings {
		b := &c.state.Buildings[i]
		b.CurrentLevel = 0
		b.Owned = 0
		b.PrestigeLevel++
	}
	for i := range c.state.Upgrades {
		c.state.Upgrades[i].CurrentLevel = 0
	}
	c.state.Shapes.Amount = decimal.Zero
	c.state.Shapes.Earned = decimal.Zero
	c.state.PrestigePoints += points
	c.state.PrestigeMultiplier = economy.NextPrestigeMultiplier(c.state.PrestigeMultiplier, points)
	c.state.Stats.TotalPrestiges++
	c.state.BoostMultiplier = 0
	c.state.BoostRemainingSec = 0
	c.state.Recompute()
	unlocked := c.evaluateAchievements()
	c.notify()
	return applied(unlocked)
}

// NewGame resets to catalog defaults and returns a summary of the run that
// just ended, for the high-score archive. Works from either macro-state and
// leaves the controller active.
func (c *Controller) NewGame() RunSummary {
	summary := RunSummary{
		Earned:         c.state.Shapes.Earned,
		TotalPrestiges: c.state.Stats.TotalPrestiges,
		TimePlayed:     c.state.Stats.TimePlayed,
		EndedAt:        c.now(),
	}
	c.state = NewState(c.now())
	c.mode = ModeActive
	c.notify()
	return summary
}

// ReplaceState swaps in a loaded state and activates the controller.
func (c *Controller) ReplaceState(state *State) {
	c.state = state
	c.state.Recompute()
	c.mode = ModeActive
	c.notify()
}

// Suspend stops ticking; idempotent.
func (c *Controller) Suspend() { c.mode = ModeSuspended }

// Resume re-enters the active state. The caller re-anchors its tick clock so
// no catch-up burst is produced for the suspended span.
func (c *Controller) Resume() { c.mode = ModeActive }

// evaluateAchievements runs every still-locked predicate against the current
// state and applies rewards exactly once. Returns the ids newly unlocked.
func (c *Controller) evaluateAchievements() []string {
	var unlocked []string
	for _, def := range catalog.Achievements {
		if c.state.HasAchievement(def.ID) {
			continue
		}
		if !def.Unlocked(c.state) {
			continue
		}
		c.state.UnlockedAchievements = append(c.state.UnlockedAchievements, def.ID)
		c.applyReward(def)
		unlocked = append(unlocked, def.ID)
	}
	if len(unlocked) > 0 {
		c.state.Recompute()
	}
	return unlocked
}

// applyReward maps reward kinds onto aggregates: click rewards add flat base
// click power, production rewards compound the prestige multiplier, golden
// rewards add to the bonus-container multiplier.
func (c *Controller) applyReward(def catalog.AchievementDef) {
	switch def.Reward {
	case catalog.RewardClickPower:
		c.state.BaseClickPower += def.RewardAmount
	case catalog.RewardPrestigeMultiplier:
		c.state.PrestigeMultiplier *= 1 + def.RewardAmount
	case catalog.RewardBonusMultiplier:
		c.state.BonusMultiplier += def.RewardAmount
	}
}
