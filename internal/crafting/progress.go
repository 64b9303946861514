package crafting

import (
	"time"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// Status is the lifecycle phase of the crafting timer.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// StatusOf classifies an operation. Cancelled operations read as idle.
func StatusOf(op models.CraftingOperation) Status {
	switch {
	case op.StartTime == nil || op.EndTime == nil:
		return StatusIdle
	case op.IsActive:
		return StatusActive
	default:
		return StatusCompleted
	}
}

// RowProgress is the progress of one parallel crafting row.
type RowProgress struct {
	Index           int     `json:"index"`
	AssignedCycles  int     `json:"assignedCycles"`
	CompletedCycles int     `json:"completedCycles"`
	Complete        bool    `json:"complete"`
	Fraction        float64 `json:"fraction"`
}

// Progress is derived from an operation and the current time; it is never stored.
type Progress struct {
	Status           Status           `json:"status"`
	CraftType        models.CraftType `json:"craftType"`
	Concurrency      int              `json:"concurrency"`
	TotalSlots       int              `json:"totalSlots"`
	TotalCycles      int              `json:"totalCycles"`
	Elapsed          time.Duration    `json:"elapsed"`
	Remaining        time.Duration    `json:"remaining"`
	BatchesCompleted int              `json:"batchesCompleted"`
	Rows             []RowProgress    `json:"rows"`
	ProducedItems    int              `json:"producedItems"`
	TargetItems      int              `json:"targetItems"`
}

// ComputeProgress derives row and item progress of op at now.
func ComputeProgress(op models.CraftingOperation, now time.Time) Progress {
	status := StatusOf(op)
	p := Progress{
		Status:      status,
		CraftType:   op.CraftType,
		Concurrency: op.Concurrency,
	}
	if status == StatusIdle {
		return p
	}

	concurrency := max(1, op.Concurrency)
	slots := max(0, op.TotalSlots)
	p.TotalSlots = slots
	p.TotalCycles = CyclesFor(slots, concurrency)
	p.TargetItems = slots * calculator.BaseYieldPerSlot

	start, end := *op.StartTime, *op.EndTime
	until := now
	if until.After(end) {
		until = end
	}
	elapsed := until.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	p.Elapsed = elapsed
	if remaining := end.Sub(now); remaining > 0 {
		p.Remaining = remaining
	}

	var batch time.Duration
	if op.BatchDurationMs != nil {
		batch = time.Duration(*op.BatchDurationMs) * time.Millisecond
	}

	// zero-length batches finish instantly
	batches := p.TotalCycles
	var within time.Duration
	if batch > 0 {
		batches = int(elapsed / batch)
		within = elapsed % batch
	}
	p.BatchesCompleted = batches

	p.Rows = make([]RowProgress, concurrency)
	for i := range p.Rows {
		assigned := slots / concurrency
		if i < slots%concurrency {
			assigned++
		}
		row := RowProgress{
			Index:           i,
			AssignedCycles:  assigned,
			CompletedCycles: min(batches, assigned),
			Complete:        batches >= assigned,
		}
		if row.Complete {
			row.Fraction = 1
		} else if batch > 0 {
			row.Fraction = float64(within) / float64(batch)
		}
		p.Rows[i] = row
	}

	p.ProducedItems = min(p.TargetItems, batches*concurrency*calculator.BaseYieldPerSlot)
	return p
}
