package crafting

import (
	"errors"
	"math"
	"time"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// ErrNotActive is returned when cancelling without an active craft.
var ErrNotActive = errors.New("no active crafting operation")

// Timer tracks the single crafting operation. All state is stored as wall-clock
// timestamps, so a restored operation resumes where it left off. Timer is not
// safe for concurrent use; callers serialize access.
type Timer struct {
	clock Clock
	op    models.CraftingOperation
}

// NewTimer returns a timer holding op. A nil clock uses the system clock.
func NewTimer(clock Clock, op models.CraftingOperation) *Timer {
	if clock == nil {
		clock = RealClock{}
	}
	if op.Concurrency <= 0 {
		op.Concurrency = models.ConcurrencyFor(false)
	}
	if !op.CraftType.Valid() {
		op.CraftType = models.CraftSuperior
	}
	return &Timer{clock: clock, op: op}
}

// Start begins a new operation, replacing whatever was tracked before.
// targetSlots below 1 are raised to 1.
func (t *Timer) Start(craftType models.CraftType, targetSlots int, ninavBlessing bool, timeReductionPercent float64) models.CraftingOperation {
	concurrency := models.ConcurrencyFor(ninavBlessing)
	slots := max(1, targetSlots)
	cycles := CyclesFor(slots, concurrency)

	bonus := models.BonusConfig{
		TimeReductionPercent: models.Percent(timeReductionPercent),
		NinavBlessingActive:  ninavBlessing,
	}
	batch := calculator.BatchDuration(models.RecipeFor(craftType), bonus)
	batchMs := batch.Milliseconds()

	now := t.clock.Now()
	end := now.Add(totalDuration(cycles, batchMs))

	t.op = models.CraftingOperation{
		CraftType:       craftType,
		IsActive:        true,
		StartTime:       &now,
		EndTime:         &end,
		BatchDurationMs: &batchMs,
		Concurrency:     concurrency,
		TotalSlots:      slots,
	}
	return t.State()
}

// Cancel stops the active operation. The end time is cleared so the timer
// reads as idle rather than completed.
func (t *Timer) Cancel() error {
	if !t.op.IsActive {
		return ErrNotActive
	}
	t.op.IsActive = false
	t.op.EndTime = nil
	return nil
}

// CheckCompletion marks an active operation complete once its end time has
// passed. It reports whether this call made the transition; later calls are
// no-ops.
func (t *Timer) CheckCompletion() bool {
	if !t.op.IsActive || t.op.EndTime == nil {
		return false
	}
	if t.clock.Now().Before(*t.op.EndTime) {
		return false
	}
	t.op.IsActive = false
	return true
}

// State returns a copy of the stored operation.
func (t *Timer) State() models.CraftingOperation {
	op := t.op
	if op.StartTime != nil {
		v := *op.StartTime
		op.StartTime = &v
	}
	if op.EndTime != nil {
		v := *op.EndTime
		op.EndTime = &v
	}
	if op.BatchDurationMs != nil {
		v := *op.BatchDurationMs
		op.BatchDurationMs = &v
	}
	return op
}

// Progress derives the current progress from the stored timestamps.
func (t *Timer) Progress() Progress {
	return ComputeProgress(t.op, t.clock.Now())
}

// maxTotalMs is the longest run, in milliseconds, time.Duration can hold.
const maxTotalMs = int64(math.MaxInt64 / int64(time.Millisecond))

// totalDuration is cycles*batchMs, saturated so the end time never wraps
// before the start time.
func totalDuration(cycles int, batchMs int64) time.Duration {
	if cycles <= 0 || batchMs <= 0 {
		return 0
	}
	if int64(cycles) > maxTotalMs/batchMs {
		return time.Duration(maxTotalMs) * time.Millisecond
	}
	return time.Duration(int64(cycles)*batchMs) * time.Millisecond
}

// CyclesFor returns how many batches are needed to run slots on concurrency rows.
func CyclesFor(slots, concurrency int) int {
	if slots <= 0 {
		return 0
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return int(math.Ceil(float64(slots) / float64(concurrency)))
}
