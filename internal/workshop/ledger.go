package workshop

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/history"
)

// History returns the ledger entries, newest first, and their totals.
func (w *Workshop) History() ([]models.HistoryEntry, history.Summary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entries := w.ledger.Entries()
	return entries, history.Summarize(entries)
}

// RecordResult stores the actual output of an entry priced at current market.
func (w *Workshop) RecordResult(id string, actualOutputQty int) (models.HistoryEntry, error) {
	return w.record(func(prices models.PriceSnapshot) (models.HistoryEntry, error) {
		return w.ledger.RecordActualResult(id, actualOutputQty, prices)
	})
}

// RecordLatestResult stores the actual output of the newest entry.
func (w *Workshop) RecordLatestResult(actualOutputQty int) (models.HistoryEntry, error) {
	return w.record(func(prices models.PriceSnapshot) (models.HistoryEntry, error) {
		return w.ledger.RecordLatestResult(actualOutputQty, prices)
	})
}

func (w *Workshop) record(apply func(models.PriceSnapshot) (models.HistoryEntry, error)) (models.HistoryEntry, error) {
	w.mu.Lock()
	entry, err := apply(w.prices.Snapshot())
	if err != nil {
		w.mu.Unlock()
		return models.HistoryEntry{}, err
	}
	w.activity.add(w.clock.Now(), "result recorded: %d items, profit %dG", *entry.ActualOutputQty, calculator.Gold(*entry.ActualProfit))
	w.emitChangeLocked()
	w.mu.Unlock()

	w.logger.Info("actual result recorded", zap.String("entry_id", entry.ID), zap.Int("actual_output", *entry.ActualOutputQty))
	if w.hooks.OnResult != nil {
		w.hooks.OnResult(entry)
	}
	return entry, nil
}

// DeleteHistory removes one entry.
func (w *Workshop) DeleteHistory(id string) error {
	w.mu.Lock()
	if err := w.ledger.Delete(id); err != nil {
		w.mu.Unlock()
		return err
	}
	w.emitChangeLocked()
	w.mu.Unlock()

	return nil
}

// ClearHistory removes every entry.
func (w *Workshop) ClearHistory() {
	w.mu.Lock()
	w.ledger.Clear()
	w.activity.add(w.clock.Now(), "history cleared")
	w.emitChangeLocked()
	w.mu.Unlock()

}
