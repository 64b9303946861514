package models

import "time"

// HistoryEntry snapshots the cost basis of one committed craft. Only the
// actual-result fields may change after creation.
type HistoryEntry struct {
	ID                string    `json:"id" bson:"id"`
	Timestamp         time.Time `json:"timestamp" bson:"timestamp"`
	CraftType         CraftType `json:"craftType" bson:"craft_type"`
	Slots             int       `json:"slots" bson:"slots"`
	UnitCost          float64   `json:"unitCost" bson:"unit_cost"`
	TotalCost         float64   `json:"totalCost" bson:"total_cost"`
	ExpectedOutputQty float64   `json:"expectedOutputQty" bson:"expected_output_qty"`
	ExpectedProfit    float64   `json:"expectedProfit" bson:"expected_profit"`
	ActualOutputQty   *int      `json:"actualOutputQty,omitempty" bson:"actual_output_qty,omitempty"`
	ActualProfit      *float64  `json:"actualProfit,omitempty" bson:"actual_profit,omitempty"`
}

// HasActualResult reports whether the realized output was recorded.
func (e HistoryEntry) HasActualResult() bool {
	return e.ActualOutputQty != nil
}
