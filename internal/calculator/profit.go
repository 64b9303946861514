package calculator

import (
	"math"
	"time"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

const (
	// BaseYieldPerSlot is the output of one slot without a great success.
	BaseYieldPerSlot = 10
	// BaseGreatSuccessProbability is the great success chance before bonuses.
	BaseGreatSuccessProbability = 0.05
	// MarketTaxRate is deducted from revenue when the output is sold.
	MarketTaxRate = 0.05
)

// ProfitStats holds the expected economics of crafting a number of slots.
// Values are not truncated; use Gold for display.
type ProfitStats struct {
	CraftType models.CraftType `json:"craftType"`
	Slots     int              `json:"slots"`

	MaterialCost float64 `json:"materialCost"`
	GoldCost     float64 `json:"goldCost"`
	TotalCost    float64 `json:"totalCost"`

	SuccessProbability float64 `json:"successProbability"`
	OutputPerSlot      float64 `json:"outputPerSlot"`
	ExpectedOutput     float64 `json:"expectedOutput"`
	UnitCost           float64 `json:"unitCost"`

	GrossRevenue   float64 `json:"grossRevenue"`
	SellingRevenue float64 `json:"sellingRevenue"`
	SellingProfit  float64 `json:"sellingProfit"`
	UsageProfit    float64 `json:"usageProfit"`

	Concurrency         int           `json:"concurrency"`
	BatchDuration       time.Duration `json:"batchDuration"`
	HourlySellingProfit float64       `json:"hourlySellingProfit"`
	HourlyUsageProfit   float64       `json:"hourlyUsageProfit"`
}

// GreatSuccessProbability returns the boosted great success chance. The 5%
// base always applies; the bonus scales it.
func GreatSuccessProbability(bonusPercent float64) float64 {
	return BaseGreatSuccessProbability * (1 + bonusPercent/100)
}

// ExpectedOutputPerSlot is the expected yield of one slot where a great
// success doubles the base yield.
func ExpectedOutputPerSlot(bonusPercent float64) float64 {
	return BaseYieldPerSlot * (1 + GreatSuccessProbability(bonusPercent))
}

// BatchDuration returns the time one crafting cycle takes after reductions.
// Reductions of 100% or more give a zero duration.
func BatchDuration(recipe models.Recipe, bonus models.BonusConfig) time.Duration {
	return batchDuration(recipe.BaseDuration, bonus.TimeReduction(), bonus.NinavBlessingActive)
}

func batchDuration(base time.Duration, timeReductionPercent float64, ninav bool) time.Duration {
	reduction := timeReductionPercent
	if ninav {
		reduction += models.NinavTimeReductionPercent
	}
	multiplier := math.Max(0, 1-reduction/100)
	return time.Duration(math.Round(float64(base) * multiplier))
}

// EstimateProfit computes expected cost, output and profit. It returns nil when
// any input price or the output price of the craft is unknown, so callers never
// show a figure derived from partial data.
func EstimateProfit(recipe models.Recipe, prices models.PriceSnapshot, targetSlots int, bonus models.BonusConfig) *ProfitStats {
	for _, key := range models.InputTiers {
		if prices.Get(key).UnitPrice <= 0 {
			return nil
		}
	}
	output := prices.Get(recipe.Type.OutputKey())
	if output.UnitPrice <= 0 {
		return nil
	}

	slots := max(0, targetSlots)

	var materialPerSlot float64
	for _, key := range models.InputTiers {
		materialPerSlot += float64(recipe.Quantity(key)) * prices.Get(key).PerUnit()
	}
	goldPerSlot := recipe.GoldCost * math.Max(0, 1-bonus.CostReduction()/100)
	costPerSlot := materialPerSlot + goldPerSlot

	outputPerSlot := ExpectedOutputPerSlot(bonus.GreatSuccessBonus())
	grossPerSlot := outputPerSlot * output.PerUnit()
	sellingProfitPerSlot := grossPerSlot*(1-MarketTaxRate) - costPerSlot
	usageProfitPerSlot := grossPerSlot - costPerSlot

	stats := &ProfitStats{
		CraftType:          recipe.Type,
		Slots:              slots,
		MaterialCost:       materialPerSlot * float64(slots),
		GoldCost:           goldPerSlot * float64(slots),
		TotalCost:          costPerSlot * float64(slots),
		SuccessProbability: GreatSuccessProbability(bonus.GreatSuccessBonus()),
		OutputPerSlot:      outputPerSlot,
		ExpectedOutput:     outputPerSlot * float64(slots),
		GrossRevenue:       grossPerSlot * float64(slots),
		SellingRevenue:     grossPerSlot * float64(slots) * (1 - MarketTaxRate),
		SellingProfit:      sellingProfitPerSlot * float64(slots),
		UsageProfit:        usageProfitPerSlot * float64(slots),
		Concurrency:        bonus.Concurrency(),
		BatchDuration:      BatchDuration(recipe, bonus),
	}
	if outputPerSlot > 0 {
		stats.UnitCost = costPerSlot / outputPerSlot
	}

	stats.HourlySellingProfit = hourly(sellingProfitPerSlot, stats.Concurrency, stats.BatchDuration)
	stats.HourlyUsageProfit = hourly(usageProfitPerSlot, stats.Concurrency, stats.BatchDuration)

	return stats
}

// hourly scales per-slot profit to an hour of running all rows. A zero batch
// duration has no meaningful rate and reports 0.
func hourly(perSlot float64, concurrency int, batch time.Duration) float64 {
	seconds := batch.Seconds()
	if seconds <= 0 {
		return 0
	}
	return perSlot * float64(concurrency) / seconds * 3600
}

// Gold floors a monetary figure to whole gold for display.
func Gold(v float64) int64 {
	return int64(math.Floor(v))
}
