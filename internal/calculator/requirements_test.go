package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/pricing"
)

func bundlePrices(size int) models.PriceSnapshot {
	return models.PriceSnapshot{
		models.KeyRare:           {UnitPrice: 100, BundleSize: size},
		models.KeyUncommon:       {UnitPrice: 50, BundleSize: size},
		models.KeyCommon:         {UnitPrice: 20, BundleSize: size},
		models.KeyFusion:         {UnitPrice: 80, BundleSize: 1},
		models.KeySuperiorFusion: {UnitPrice: 120, BundleSize: 1},
	}
}

func TestComputeRequirementsSuperiorFromEmptyInventory(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	req := ComputeRequirements(recipe, models.Inventory{}, 1, bundlePrices(10))

	assert.Equal(t, 5, req.Get(models.KeyRare).BuyCount)
	assert.Equal(t, 6, req.Get(models.KeyUncommon).BuyCount)
	assert.Equal(t, 12, req.Get(models.KeyCommon).BuyCount)

	assert.Equal(t, 43, req.Get(models.KeyRare).NeededQty)
	assert.Equal(t, 59, req.Get(models.KeyUncommon).NeededQty)
	assert.Equal(t, 112, req.Get(models.KeyCommon).NeededQty)

	assert.InDelta(t, 5*100+6*50+12*20, req.TotalMissingCost, 1e-9)
}

func TestComputeRequirementsNonPositiveSlots(t *testing.T) {
	recipe := models.RecipeFor(models.CraftAbidos)
	for _, slots := range []int{0, -1, -50} {
		req := ComputeRequirements(recipe, models.Inventory{}, slots, bundlePrices(10))
		assert.Equal(t, 0, req.Slots)
		assert.Zero(t, req.TotalMissingCost)
		for _, key := range models.InputTiers {
			assert.Zero(t, req.Get(key).BuyCount, "slots %d key %s", slots, key)
			assert.Zero(t, req.Get(key).NeededQty, "slots %d key %s", slots, key)
		}
	}
}

func TestComputeRequirementsCoveredByInventory(t *testing.T) {
	recipe := models.RecipeFor(models.CraftAbidos)
	inv := models.Inventory{Rare: 66, Uncommon: 10, Common: 500}
	req := ComputeRequirements(recipe, inv, 2, bundlePrices(10))

	assert.Zero(t, req.Get(models.KeyRare).BuyCount)
	assert.Zero(t, req.Get(models.KeyCommon).BuyCount)
	assert.Equal(t, 8, req.Get(models.KeyUncommon).BuyCount) // 90-10=80
}

func TestComputeRequirementsZeroBundleFallsBack(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	prices := bundlePrices(0)
	req := ComputeRequirements(recipe, models.Inventory{}, 1, prices)

	assert.Equal(t, FallbackBundleSize, req.Get(models.KeyRare).BundleSize)
	assert.Equal(t, 5, req.Get(models.KeyRare).BuyCount)
}

func TestComputeRequirementsUnknownPricesStillCount(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	req := ComputeRequirements(recipe, models.Inventory{}, 1, models.PriceSnapshot{})

	// unknown keys use the {0, 1} sentinel
	assert.Equal(t, 43, req.Get(models.KeyRare).BuyCount)
	assert.Zero(t, req.TotalMissingCost)
}

func TestComputeRequirementsSeededCacheUsesDefaultBundle(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	req := ComputeRequirements(recipe, models.Inventory{}, 1, pricing.NewCache().Snapshot())

	assert.Equal(t, pricing.DefaultBundleSize, req.Get(models.KeyRare).BundleSize)
	assert.Equal(t, 5, req.Get(models.KeyRare).BuyCount)
}

func TestApplyPurchaseLeavesSurplusNeverDeficit(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	tests := []struct {
		name  string
		inv   models.Inventory
		slots int
		size  int
	}{
		{"empty inventory", models.Inventory{}, 1, 10},
		{"partial inventory", models.Inventory{Rare: 7, Uncommon: 100, Common: 3}, 3, 10},
		{"large bundles", models.Inventory{Rare: 1}, 4, 100},
		{"exact multiple", models.Inventory{Rare: 3, Uncommon: 9, Common: 2}, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices := bundlePrices(tt.size)
			req := ComputeRequirements(recipe, tt.inv, tt.slots, prices)
			next := ApplyPurchase(tt.inv, req)

			for _, key := range models.InputTiers {
				r := req.Get(key)
				want := tt.inv.Get(key) + r.BuyCount*r.BundleSize - r.NeededQty
				assert.Equal(t, want, next.Get(key), key)
				if r.BuyCount > 0 {
					assert.GreaterOrEqual(t, next.Get(key), 0, "purchase must cover deficit for %s", key)
					assert.Less(t, next.Get(key), r.BundleSize, "overage stays under one bundle for %s", key)
				}
			}

			// stock after buying but before consuming covers the whole target
			stocked := tt.inv
			for _, key := range models.InputTiers {
				r := req.Get(key)
				stocked = stocked.With(key, tt.inv.Get(key)+r.BuyCount*r.BundleSize)
			}
			again := ComputeRequirements(recipe, stocked, tt.slots, prices)
			for _, key := range models.InputTiers {
				require.Zero(t, again.Get(key).BuyCount, key)
			}
		})
	}
}

func TestApplyPurchaseThenNextCraftUsesLeftover(t *testing.T) {
	recipe := models.RecipeFor(models.CraftSuperior)
	prices := bundlePrices(10)

	req := ComputeRequirements(recipe, models.Inventory{}, 1, prices)
	next := ApplyPurchase(models.Inventory{}, req)

	assert.Equal(t, models.Inventory{Rare: 7, Uncommon: 1, Common: 8}, next)
}
