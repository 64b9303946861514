package history

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

var (
	// ErrEntryNotFound indicates no entry has the requested id.
	ErrEntryNotFound = errors.New("history entry not found")
	// ErrAlreadyRecorded indicates the actual result of an entry was already set.
	ErrAlreadyRecorded = errors.New("actual result already recorded")
	// ErrInsufficientData indicates a required market price is not loaded.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrNoSlots indicates a commit for zero slots.
	ErrNoSlots = errors.New("target slots must be at least 1")
	// ErrEmpty indicates the ledger has no entries.
	ErrEmpty = errors.New("history is empty")
)

// Ledger is the newest-first record of committed crafts. It is not safe for
// concurrent use.
type Ledger struct {
	entries []models.HistoryEntry
	now     func() time.Time
	newID   func() string
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock sets the time source for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator sets the id source for new entries.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger returns a ledger holding a copy of entries, newest first.
func NewLedger(entries []models.HistoryEntry, opts ...Option) *Ledger {
	l := &Ledger{
		entries: slices.Clone(entries),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Prepare builds the entry that Commit would insert without inserting it.
// Cost and profit figures are frozen from the given prices.
func (l *Ledger) Prepare(recipe models.Recipe, prices models.PriceSnapshot, targetSlots int, bonus models.BonusConfig) (models.HistoryEntry, error) {
	if targetSlots <= 0 {
		return models.HistoryEntry{}, ErrNoSlots
	}

	stats := calculator.EstimateProfit(recipe, prices, targetSlots, bonus)
	if stats == nil {
		return models.HistoryEntry{}, ErrInsufficientData
	}

	return models.HistoryEntry{
		ID:                l.newID(),
		Timestamp:         l.now(),
		CraftType:         recipe.Type,
		Slots:             stats.Slots,
		UnitCost:          stats.UnitCost,
		TotalCost:         stats.TotalCost,
		ExpectedOutputQty: stats.ExpectedOutput,
		ExpectedProfit:    stats.SellingProfit,
	}, nil
}

// Append inserts a prepared entry at the front.
func (l *Ledger) Append(entry models.HistoryEntry) {
	l.entries = slices.Insert(l.entries, 0, entry)
}

// Commit snapshots the current economics of a craft and records it.
func (l *Ledger) Commit(recipe models.Recipe, prices models.PriceSnapshot, targetSlots int, bonus models.BonusConfig) (models.HistoryEntry, error) {
	entry, err := l.Prepare(recipe, prices, targetSlots, bonus)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	l.Append(entry)
	return entry, nil
}

// RecordActualResult stores the realized output of an entry. The realized
// profit uses the current output price after market tax, against the frozen
// total cost. Each entry can be amended once.
func (l *Ledger) RecordActualResult(id string, actualOutputQty int, prices models.PriceSnapshot) (models.HistoryEntry, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return models.HistoryEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return l.record(idx, actualOutputQty, prices)
}

// RecordLatestResult amends the newest entry.
func (l *Ledger) RecordLatestResult(actualOutputQty int, prices models.PriceSnapshot) (models.HistoryEntry, error) {
	if len(l.entries) == 0 {
		return models.HistoryEntry{}, ErrEmpty
	}
	return l.record(0, actualOutputQty, prices)
}

func (l *Ledger) record(idx int, actualOutputQty int, prices models.PriceSnapshot) (models.HistoryEntry, error) {
	entry := l.entries[idx]
	if entry.HasActualResult() {
		return models.HistoryEntry{}, fmt.Errorf("%w: %s", ErrAlreadyRecorded, entry.ID)
	}

	output := prices.Get(entry.CraftType.OutputKey())
	if output.UnitPrice <= 0 {
		return models.HistoryEntry{}, ErrInsufficientData
	}

	qty := max(0, actualOutputQty)
	profit := float64(qty)*output.PerUnit()*(1-calculator.MarketTaxRate) - entry.TotalCost

	entry.ActualOutputQty = &qty
	entry.ActualProfit = &profit
	l.entries[idx] = entry
	return entry, nil
}

// Delete removes one entry.
func (l *Ledger) Delete(id string) error {
	idx := l.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	l.entries = slices.Delete(l.entries, idx, idx+1)
	return nil
}

// Clear removes all entries.
func (l *Ledger) Clear() {
	l.entries = nil
}

// Entries returns a copy of the entries, newest first.
func (l *Ledger) Entries() []models.HistoryEntry {
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Summary aggregates the ledger.
type Summary struct {
	Count               int     `json:"count"`
	TotalCost           float64 `json:"totalCost"`
	TotalExpectedProfit float64 `json:"totalExpectedProfit"`
	RecordedCount       int     `json:"recordedCount"`
	TotalActualProfit   float64 `json:"totalActualProfit"`
}

// Summarize totals cost and profit across entries.
func Summarize(entries []models.HistoryEntry) Summary {
	var s Summary
	for _, e := range entries {
		s.Count++
		s.TotalCost += e.TotalCost
		s.TotalExpectedProfit += e.ExpectedProfit
		if e.ActualProfit != nil {
			s.RecordedCount++
			s.TotalActualProfit += *e.ActualProfit
		}
	}
	return s
}

func (l *Ledger) indexOf(id string) int {
	return slices.IndexFunc(l.entries, func(e models.HistoryEntry) bool { return e.ID == id })
}
