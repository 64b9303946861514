package calculator

import (
	"math"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// FallbackBundleSize replaces missing or zero bundle sizes so purchase math
// never divides by zero.
const FallbackBundleSize = 10

// MaterialRequirement describes what has to be bought for one input tier.
type MaterialRequirement struct {
	Key         models.MaterialKey `json:"key"`
	NeededQty   int                `json:"neededQty"`
	BuyCount    int                `json:"buyCount"`
	BundlePrice float64            `json:"unitCost"`
	BundleSize  int                `json:"bundleSize"`
	TotalCost   float64            `json:"totalCost"`
}

// Requirements is the purchase plan for a target slot count.
type Requirements struct {
	Slots            int                                        `json:"slots"`
	PerMaterial      map[models.MaterialKey]MaterialRequirement `json:"perMaterial"`
	TotalMissingCost float64                                    `json:"totalMissingCost"`
}

// Get returns the requirement of a tier, or a zero requirement when absent.
func (r Requirements) Get(key models.MaterialKey) MaterialRequirement {
	if req, ok := r.PerMaterial[key]; ok {
		return req
	}
	return MaterialRequirement{Key: key, BundleSize: FallbackBundleSize}
}

// ComputeRequirements works out how many bundles of each input tier must be
// bought to craft targetSlots slots on top of the owned inventory. Prices are
// per bundle; unknown prices only zero out the cost, never the counts.
// FallbackBundleSize applies only to stored bundle sizes of 0 or less. A tier
// missing from prices takes the {0, 1} sentinel of PriceSnapshot.Get, so it is
// planned unit by unit; pricing.Cache seeds every key to avoid that.
func ComputeRequirements(recipe models.Recipe, inventory models.Inventory, targetSlots int, prices models.PriceSnapshot) Requirements {
	slots := max(0, targetSlots)
	out := Requirements{
		Slots:       slots,
		PerMaterial: make(map[models.MaterialKey]MaterialRequirement, len(models.InputTiers)),
	}

	for _, key := range models.InputTiers {
		quote := prices.Get(key)
		bundle := quote.BundleSize
		if bundle <= 0 {
			bundle = FallbackBundleSize
		}

		needed := recipe.Quantity(key) * slots
		deficit := needed - inventory.Get(key)

		buy := 0
		if deficit > 0 {
			buy = int(math.Ceil(float64(deficit) / float64(bundle)))
		}

		cost := float64(buy) * quote.UnitPrice
		out.PerMaterial[key] = MaterialRequirement{
			Key:         key,
			NeededQty:   needed,
			BuyCount:    buy,
			BundlePrice: quote.UnitPrice,
			BundleSize:  bundle,
			TotalCost:   cost,
		}
		out.TotalMissingCost += cost
	}

	return out
}

// ApplyPurchase commits a purchase plan: bought bundles are credited and the
// needed quantity is consumed. Overage from whole-bundle rounding stays in the
// returned inventory.
func ApplyPurchase(inventory models.Inventory, req Requirements) models.Inventory {
	next := inventory
	for _, key := range models.InputTiers {
		r := req.Get(key)
		next = next.With(key, inventory.Get(key)+r.BuyCount*r.BundleSize-r.NeededQty)
	}
	return next
}
