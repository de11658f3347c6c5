// Package catalog holds the static game content: building and upgrade
// definitions and the achievement list. Pure data, no behavior beyond the
// achievement predicates; runtime state lives in internal/game.
package catalog

import (
	"github.com/shopspring/decimal"
)

// UpgradeType determines which aggregate an upgrade's multiplier feeds.
type UpgradeType string

const (
	UpgradeClick      UpgradeType = "click"
	UpgradeProduction UpgradeType = "production"
	UpgradeGolden     UpgradeType = "golden"
	UpgradeHybrid     UpgradeType = "hybrid"
)

// ResonanceUpgradeID marks the one upgrade whose effect is the per-building
// click bonus factor rather than a plain multiplier.
const ResonanceUpgradeID = "resonance"

// BuildingDef is the immutable template a runtime Building is instantiated
// from at new-game time.
type BuildingDef struct {
	ID             string
	Name           string
	NamePlural     string
	Description    string
	BasePrice      decimal.Decimal
	BaseProduction decimal.Decimal
	MaxLevel       int
	UnlockAt       decimal.Decimal
	// Color is a presentation tag; the UI maps it to its own assets.
	Color string
}

// UpgradeDef is the immutable template for an upgrade. MaxLevel 1 expresses
// the classic one-shot upgrades; leveled upgrades double in cost per level.
type UpgradeDef struct {
	ID             string
	Name           string
	Description    string
	BaseCost       decimal.Decimal
	BaseMultiplier float64
	MaxLevel       int
	Type           UpgradeType
	UnlockAt       decimal.Decimal
}

const defaultBuildingMaxLevel = 1000

func b(id, name, plural, desc string, basePrice, baseProduction, unlockAt int64, color string) BuildingDef {
	return BuildingDef{
		ID:             id,
		Name:           name,
		NamePlural:     plural,
		Description:    desc,
		BasePrice:      decimal.NewFromInt(basePrice),
		BaseProduction: decimal.NewFromInt(baseProduction),
		MaxLevel:       defaultBuildingMaxLevel,
		UnlockAt:       decimal.NewFromInt(unlockAt),
		Color:          color,
	}
}

// Buildings lists every producer type, cheapest first. Unlock thresholds are
// lifetime-earned shapes.
var Buildings = []BuildingDef{
	{
		ID: "box", Name: "Shape Box", NamePlural: "Shape Boxes",
		Description:    "A basic container that produces shapes slowly",
		BasePrice:      decimal.NewFromInt(15),
		BaseProduction: decimal.RequireFromString("0.1"),
		MaxLevel:       defaultBuildingMaxLevel,
		UnlockAt:       decimal.Zero,
		Color:          "blue",
	},
	{
		ID: "crate", Name: "Shape Crate", NamePlural: "Shape Crates",
		Description:    "A larger container with improved production",
		BasePrice:      decimal.NewFromInt(100),
		BaseProduction: decimal.RequireFromString("0.5"),
		MaxLevel:       defaultBuildingMaxLevel,
		UnlockAt:       decimal.NewFromInt(100),
		Color:          "emerald",
	},
	b("vault", "Shape Vault", "Shape Vaults", "A secure facility for mass shape production", 600, 5, 600, "purple"),
	b("warehouse", "Shape Warehouse", "Shape Warehouses", "Industrial-scale shape manufacturing", 4000, 12, 4000, "amber"),
	b("factory", "Shape Factory", "Shape Factories", "Automated shape production facility", 20000, 90, 20000, "rose"),
	b("megaplex", "Shape Megaplex", "Shape Megaplexes", "Massive shape production complex", 100000, 500, 100000, "indigo"),
	b("citadel", "Shape Citadel", "Shape Citadels", "Fortress of infinite shape creation", 500000, 2500, 500000, "cyan"),
	b("nexus", "Shape Nexus", "Shape Nexi", "Interdimensional shape generation hub", 2000000, 10000, 2000000, "fuchsia"),
	b("dimension", "Shape Dimension", "Shape Dimensions", "Pocket universe of pure shape energy", 10000000, 50000, 10000000, "lime"),
	b("multiverse", "Shape Multiverse", "Shape Multiverses", "Infinite realities of shape creation", 50000000, 250000, 50000000, "orange"),
	b("quantum", "Quantum Engine", "Quantum Engines", "Harness quantum mechanics for shapes", 200000000, 1000000, 200000000, "teal"),
	b("celestial", "Celestial Forge", "Celestial Forges", "Cosmic shape creation matrix", 1000000000, 5000000, 1000000000, "pink"),
	b("infinity", "Infinity Matrix", "Infinity Matrices", "Boundless shape generation system", 5000000000, 25000000, 5000000000, "violet"),
	b("eternal", "Eternal Core", "Eternal Cores", "Timeless shape manifestation", 25000000000, 100000000, 25000000000, "sky"),
	b("omega", "Omega Singularity", "Omega Singularities", "Ultimate shape creation power", 100000000000, 500000000, 100000000000, "red"),
}

func u(id, name, desc string, baseCost int64, baseMult float64, maxLevel int, typ UpgradeType, unlockAt int64) UpgradeDef {
	return UpgradeDef{
		ID:             id,
		Name:           name,
		Description:    desc,
		BaseCost:       decimal.NewFromInt(baseCost),
		BaseMultiplier: baseMult,
		MaxLevel:       maxLevel,
		Type:           typ,
		UnlockAt:       decimal.NewFromInt(unlockAt),
	}
}

// Upgrades lists every purchasable multiplier. The effective multiplier at
// level L is BaseMultiplier*(1+L), so a one-shot upgrade with base 1.0 doubles
// its aggregate once bought.
var Upgrades = []UpgradeDef{
	u("better-clicks", "Better Clicks", "Double your click power", 100, 1.0, 1, UpgradeClick, 100),
	u("enhanced-production", "Enhanced Production", "Double all shape production", 500, 1.0, 1, UpgradeProduction, 500),
	u("lucky-clover", "Lucky Clover", "Quadruple rewards from lucky shapes", 1000, 2.0, 1, UpgradeGolden, 1000),
	u("power-clicks", "Power Clicks", "Triple your click power", 5000, 1.5, 1, UpgradeClick, 5000),
	u("turbo-production", "Turbo Production", "Triple all shape production", 10000, 1.5, 1, UpgradeProduction, 10000),
	u("golden-touch", "Golden Touch", "Double rewards from golden containers", 25000, 1.0, 1, UpgradeGolden, 25000),
	u("dimensional-rifts", "Dimensional Rifts", "Lucky shapes appear from any direction", 100000, 0.75, 1, UpgradeGolden, 100000),
	u(ResonanceUpgradeID, "Shape Resonance", "Each owned building adds 1% to click power", 250000, 0.5, 1, UpgradeClick, 250000),
	u("quantum-entanglement", "Quantum Entanglement", "Compounding production boost", 500000, 0.55, 5, UpgradeProduction, 500000),
	u("synergy-matrix", "Synergy Matrix", "Production and click power boost each other", 1000000, 0.55, 5, UpgradeHybrid, 1000000),
}

// BuildingByID returns the definition for id, or false when unknown.
func BuildingByID(id string) (BuildingDef, bool) {
	for _, def := range Buildings {
		if def.ID == id {
			return def, true
		}
	}
	return BuildingDef{}, false
}

// UpgradeByID returns the definition for id, or false when unknown.
func UpgradeByID(id string) (UpgradeDef, bool) {
	for _, def := range Upgrades {
		if def.ID == id {
			return def, true
		}
	}
	return UpgradeDef{}, false
}
