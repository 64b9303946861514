package models

import "time"

// WorkshopState is the full serializable calculator state of one owner.
type WorkshopState struct {
	OwnerID      string            `json:"ownerId" bson:"owner_id"`
	CraftType    CraftType         `json:"craftType" bson:"craft_type"`
	TargetSlots  int               `json:"targetSlots" bson:"target_slots"`
	Inventory    Inventory         `json:"inventory" bson:"inventory"`
	Bonus        BonusConfig       `json:"bonus" bson:"bonus"`
	Prices       PriceSnapshot     `json:"prices" bson:"prices"`
	PricesLoaded bool              `json:"pricesLoaded" bson:"prices_loaded"`
	Crafting     CraftingOperation `json:"crafting" bson:"crafting"`
	History      []HistoryEntry    `json:"history" bson:"history"`
	UpdatedAt    time.Time         `json:"updatedAt" bson:"updated_at"`
}

// DefaultWorkshopState is the state of a first-time owner.
func DefaultWorkshopState(ownerID string) WorkshopState {
	return WorkshopState{
		OwnerID:     ownerID,
		CraftType:   CraftSuperior,
		TargetSlots: 1,
		Crafting:    IdleOperation(),
	}
}

// Normalized repairs fields a partial or malformed record may carry so a
// restored state never breaks the calculator.
func (s WorkshopState) Normalized() WorkshopState {
	if !s.CraftType.Valid() {
		s.CraftType = CraftSuperior
	}
	s.TargetSlots = min(MaxTargetSlots, max(0, s.TargetSlots))
	s.Inventory = s.Inventory.Clamped()
	if s.Crafting.Concurrency != 3 && s.Crafting.Concurrency != 4 {
		s.Crafting.Concurrency = ConcurrencyFor(false)
	}
	if !s.Crafting.CraftType.Valid() {
		s.Crafting.CraftType = s.CraftType
	}
	if s.Crafting.StartTime == nil {
		s.Crafting.IsActive = false
		s.Crafting.EndTime = nil
	}
	s.Bonus.CostReductionPercent = nonNegative(s.Bonus.CostReductionPercent)
	s.Bonus.GreatSuccessBonusPercent = nonNegative(s.Bonus.GreatSuccessBonusPercent)
	s.Bonus.TimeReductionPercent = nonNegative(s.Bonus.TimeReductionPercent)
	return s
}

func nonNegative(v *float64) *float64 {
	if v == nil || *v >= 0 {
		return v
	}
	return Percent(0)
}

// UserDataFromState extracts the flat settings record of a workshop state.
func UserDataFromState(s WorkshopState) UserData {
	return UserData{
		UserID:        s.OwnerID,
		TargetSlots:   s.TargetSlots,
		OwnedRare:     s.Inventory.Rare,
		OwnedUncommon: s.Inventory.Uncommon,
		OwnedCommon:   s.Inventory.Common,
		UpdatedAt:     s.UpdatedAt,
	}
}
