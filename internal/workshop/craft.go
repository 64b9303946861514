package workshop

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/crafting"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/history"
)

// CommitResult describes what a committed craft changed.
type CommitResult struct {
	Entry        models.HistoryEntry      `json:"entry"`
	Requirements calculator.Requirements  `json:"requirements"`
	Inventory    models.Inventory         `json:"inventory"`
	Operation    models.CraftingOperation `json:"operation"`
}

// CommitAndStart records the craft in history, consumes the purchase plan from
// the inventory and starts the timer. Either all three happen or none do.
func (w *Workshop) CommitAndStart() (CommitResult, error) {
	w.mu.Lock()

	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return CommitResult{}, err
	}

	recipe := models.RecipeFor(w.craftType)
	prices := w.prices.Snapshot()

	entry, err := w.ledger.Prepare(recipe, prices, w.targetSlots, w.bonus)
	if err != nil {
		w.mu.Unlock()
		if errors.Is(err, history.ErrInsufficientData) {
			return CommitResult{}, fmt.Errorf("%w: %v", ErrNotReady, err)
		}
		return CommitResult{}, err
	}
	req := calculator.ComputeRequirements(recipe, w.inventory, w.targetSlots, prices)

	w.ledger.Append(entry)
	w.inventory = calculator.ApplyPurchase(w.inventory, req)
	op := w.timer.Start(w.craftType, w.targetSlots, w.bonus.NinavBlessingActive, w.bonus.TimeReduction())

	now := w.clock.Now()
	total := op.EndTime.Sub(*op.StartTime)
	cycles := crafting.CyclesFor(op.TotalSlots, op.Concurrency)
	w.activity.add(now, "craft started: %s x%d (%d cycles, %d min)", w.craftType, op.TotalSlots, cycles, int(total/time.Minute))
	w.activity.add(now, "history recorded: expected profit %dG", calculator.Gold(entry.ExpectedProfit))

	res := CommitResult{Entry: entry, Requirements: req, Inventory: w.inventory, Operation: op}
	w.emitChangeLocked()
	w.mu.Unlock()

	w.logger.Info("craft committed",
		zap.String("entry_id", entry.ID),
		zap.String("craft_type", string(entry.CraftType)),
		zap.Int("slots", entry.Slots),
		zap.Float64("total_cost", entry.TotalCost),
		zap.Float64("expected_profit", entry.ExpectedProfit),
		zap.Time("end_time", *op.EndTime))

	if w.hooks.OnCommit != nil {
		w.hooks.OnCommit(entry)
	}
	return res, nil
}

// CancelCraft stops the active craft. History and inventory are untouched.
func (w *Workshop) CancelCraft() error {
	w.mu.Lock()
	if err := w.timer.Cancel(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.activity.add(w.clock.Now(), "craft cancelled")
	w.emitChangeLocked()
	w.mu.Unlock()

	w.logger.Info("craft cancelled")
	return nil
}

// CheckCompletion completes the active craft once its end time passed. It
// reports whether this call completed it.
func (w *Workshop) CheckCompletion() bool {
	w.mu.Lock()
	if !w.timer.CheckCompletion() {
		w.mu.Unlock()
		return false
	}
	op := w.timer.State()
	w.activity.add(w.clock.Now(), "craft complete: %s x%d", op.CraftType, op.TotalSlots)
	w.emitChangeLocked()
	w.mu.Unlock()

	w.logger.Info("craft completed", zap.String("craft_type", string(op.CraftType)), zap.Int("slots", op.TotalSlots))
	if w.hooks.OnComplete != nil {
		w.hooks.OnComplete(op)
	}
	return true
}

// Progress returns the derived progress of the current craft.
func (w *Workshop) Progress() crafting.Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer.Progress()
}
