package models

import "time"

// CraftType identifies which fusion material a craft produces.
type CraftType string

const (
	// CraftAbidos is the standard fusion craft.
	CraftAbidos CraftType = "abidos"
	// CraftSuperior is the superior fusion craft.
	CraftSuperior CraftType = "superior"
)

// Valid reports whether the craft type is one of the known recipes.
func (t CraftType) Valid() bool {
	return t == CraftAbidos || t == CraftSuperior
}

// OutputKey returns the price key of the material the craft yields.
func (t CraftType) OutputKey() MaterialKey {
	if t == CraftAbidos {
		return KeyFusion
	}
	return KeySuperiorFusion
}

// DisplayName is the in-game name used in notifications and logs.
func (t CraftType) DisplayName() string {
	if t == CraftAbidos {
		return "Abidos Fusion Material"
	}
	return "Superior Abidos Fusion Material"
}

// MaterialKey names an entry in the price snapshot.
type MaterialKey string

const (
	KeyRare           MaterialKey = "rare"
	KeyUncommon       MaterialKey = "uncommon"
	KeyCommon         MaterialKey = "common"
	KeyFusion         MaterialKey = "fusion"
	KeySuperiorFusion MaterialKey = "superiorFusion"
)

// InputTiers lists the three purchasable input materials in display order.
var InputTiers = []MaterialKey{KeyRare, KeyUncommon, KeyCommon}

// MaxTargetSlots bounds the slots of one craft so its total duration stays
// far inside time.Duration.
const MaxTargetSlots = 100_000

// AllMaterialKeys lists every key tracked by the price cache.
var AllMaterialKeys = []MaterialKey{KeyRare, KeyUncommon, KeyCommon, KeyFusion, KeySuperiorFusion}

// Recipe holds the per-slot input quantities and gold fee of one craft type.
type Recipe struct {
	Type         CraftType
	Rare         int
	Uncommon     int
	Common       int
	GoldCost     float64
	BaseDuration time.Duration
}

// Quantity returns the per-slot quantity for an input tier.
func (r Recipe) Quantity(key MaterialKey) int {
	switch key {
	case KeyRare:
		return r.Rare
	case KeyUncommon:
		return r.Uncommon
	case KeyCommon:
		return r.Common
	default:
		return 0
	}
}

var recipes = map[CraftType]Recipe{
	CraftAbidos: {
		Type:         CraftAbidos,
		Rare:         33,
		Uncommon:     45,
		Common:       86,
		GoldCost:     400,
		BaseDuration: 60 * time.Minute,
	},
	CraftSuperior: {
		Type:         CraftSuperior,
		Rare:         43,
		Uncommon:     59,
		Common:       112,
		GoldCost:     520,
		BaseDuration: 75 * time.Minute,
	},
}

// RecipeFor returns the recipe of a craft type. Unknown types fall back to superior.
func RecipeFor(t CraftType) Recipe {
	if r, ok := recipes[t]; ok {
		return r
	}
	return recipes[CraftSuperior]
}
