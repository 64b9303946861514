package models

// NinavTimeReductionPercent is the flat time reduction granted by Ninav's blessing.
const NinavTimeReductionPercent = 10.0

// BonusConfig carries the user's crafting bonuses. Nil percentages are unset,
// which computations treat as zero.
type BonusConfig struct {
	CostReductionPercent     *float64 `json:"costReductionPercent" bson:"cost_reduction_percent"`
	GreatSuccessBonusPercent *float64 `json:"greatSuccessBonusPercent" bson:"great_success_bonus_percent"`
	TimeReductionPercent     *float64 `json:"timeReductionPercent" bson:"time_reduction_percent"`
	NinavBlessingActive      bool     `json:"ninavBlessingActive" bson:"ninav_blessing_active"`
}

func (b BonusConfig) CostReduction() float64     { return valueOrZero(b.CostReductionPercent) }
func (b BonusConfig) GreatSuccessBonus() float64 { return valueOrZero(b.GreatSuccessBonusPercent) }
func (b BonusConfig) TimeReduction() float64     { return valueOrZero(b.TimeReductionPercent) }

// Complete reports whether the bonuses required to commit a craft are set.
func (b BonusConfig) Complete() bool {
	return b.CostReductionPercent != nil && b.GreatSuccessBonusPercent != nil
}

// Concurrency is the number of parallel crafting rows.
func (b BonusConfig) Concurrency() int {
	return ConcurrencyFor(b.NinavBlessingActive)
}

// ConcurrencyFor returns 4 parallel rows with Ninav's blessing and 3 without.
func ConcurrencyFor(ninav bool) int {
	if ninav {
		return 4
	}
	return 3
}

// Percent is a helper for building BonusConfig literals.
func Percent(v float64) *float64 {
	return &v
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
