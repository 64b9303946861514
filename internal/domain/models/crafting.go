package models

import "time"

// CraftingOperation is the persisted state of the single crafting timer.
// An inactive operation with a nil EndTime is cancelled (or never started);
// an inactive operation with an EndTime has completed.
type CraftingOperation struct {
	CraftType       CraftType  `json:"craftType" bson:"craft_type"`
	IsActive        bool       `json:"isActive" bson:"is_active"`
	StartTime       *time.Time `json:"startTime" bson:"start_time"`
	EndTime         *time.Time `json:"endTime" bson:"end_time"`
	BatchDurationMs *int64     `json:"batchDurationMs" bson:"batch_duration_ms"`
	Concurrency     int        `json:"concurrency" bson:"concurrency"`
	TotalSlots      int        `json:"totalSlots" bson:"total_slots"`
}

// IdleOperation is the state before any craft has been started.
func IdleOperation() CraftingOperation {
	return CraftingOperation{
		CraftType:   CraftSuperior,
		Concurrency: 3,
	}
}
