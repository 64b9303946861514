package models

// Quote is the market price of one bundle and the number of units in it.
// A zero UnitPrice means the price has not been loaded.
type Quote struct {
	UnitPrice  float64 `json:"unitPrice" bson:"unit_price"`
	BundleSize int     `json:"bundleSize" bson:"bundle_size"`
}

// PerUnit returns the price of a single unit. Non-positive bundle sizes count as 1.
func (q Quote) PerUnit() float64 {
	size := q.BundleSize
	if size <= 0 {
		size = 1
	}
	return q.UnitPrice / float64(size)
}

// PriceSnapshot maps material keys to their current quotes.
type PriceSnapshot map[MaterialKey]Quote

// Get returns the quote for key, or the {0, 1} sentinel when unknown.
func (p PriceSnapshot) Get(key MaterialKey) Quote {
	if q, ok := p[key]; ok {
		return q
	}
	return Quote{UnitPrice: 0, BundleSize: 1}
}

// Clone returns an independent copy.
func (p PriceSnapshot) Clone() PriceSnapshot {
	out := make(PriceSnapshot, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// CatalogItem describes how to look an item up on the market API.
type CatalogItem struct {
	Key          MaterialKey
	ItemID       int
	Name         string
	CategoryCode int
}

// MarketCatalog lists the items fetched on every price refresh.
var MarketCatalog = []CatalogItem{
	{Key: KeyRare, ItemID: 6884308, Name: "아비도스 목재", CategoryCode: 90300},
	{Key: KeyUncommon, ItemID: 6882304, Name: "부드러운 목재", CategoryCode: 90300},
	{Key: KeyCommon, ItemID: 6882301, Name: "목재", CategoryCode: 90300},
	{Key: KeyFusion, ItemID: 6861012, Name: "아비도스 융화 재료", CategoryCode: 50010},
	{Key: KeySuperiorFusion, ItemID: 6861013, Name: "상급 아비도스 융화 재료", CategoryCode: 50010},
}
