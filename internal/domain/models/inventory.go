package models

// Inventory holds owned quantities of the three input tiers.
type Inventory struct {
	Rare     int `json:"rare" bson:"rare"`
	Uncommon int `json:"uncommon" bson:"uncommon"`
	Common   int `json:"common" bson:"common"`
}

// Get returns the owned quantity for an input tier.
func (i Inventory) Get(key MaterialKey) int {
	switch key {
	case KeyRare:
		return i.Rare
	case KeyUncommon:
		return i.Uncommon
	case KeyCommon:
		return i.Common
	default:
		return 0
	}
}

// With returns a copy with the tier set to qty.
func (i Inventory) With(key MaterialKey, qty int) Inventory {
	switch key {
	case KeyRare:
		i.Rare = qty
	case KeyUncommon:
		i.Uncommon = qty
	case KeyCommon:
		i.Common = qty
	}
	return i
}

// Clamped returns a copy with negative quantities raised to zero.
func (i Inventory) Clamped() Inventory {
	for _, key := range InputTiers {
		if i.Get(key) < 0 {
			i = i.With(key, 0)
		}
	}
	return i
}
