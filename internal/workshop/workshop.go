package workshop

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/crafting"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/history"
	"github.com/mamadbah2/fusioncalc/internal/pricing"
)

var (
	// ErrAPIKeyMissing blocks crafting until a market API key is configured.
	ErrAPIKeyMissing = errors.New("market api key not configured")
	// ErrAPIError blocks crafting while the last price refresh failed.
	ErrAPIError = errors.New("last price refresh failed")
	// ErrNotReady blocks crafting until prices are loaded.
	ErrNotReady = errors.New("market prices not loaded")
	// ErrBonusIncomplete blocks crafting until the required bonuses are set.
	ErrBonusIncomplete = errors.New("cost reduction and great success bonus must be set")
	// ErrInvalidCraftType rejects unknown craft types.
	ErrInvalidCraftType = errors.New("invalid craft type")
)

// Hooks are invoked after state transitions. OnChange runs under the workshop
// lock so states arrive in order; the others run after it is released. None
// may block, and OnChange must not call back into the workshop.
type Hooks struct {
	OnChange   func(models.WorkshopState)
	OnCommit   func(models.HistoryEntry)
	OnResult   func(models.HistoryEntry)
	OnComplete func(models.CraftingOperation)
}

// Workshop owns the calculator state of one owner and serializes every
// transition on it.
type Workshop struct {
	mu sync.Mutex

	ownerID      string
	craftType    models.CraftType
	targetSlots  int
	inventory    models.Inventory
	bonus        models.BonusConfig
	prices       *pricing.Cache
	pricesLoaded bool
	apiKeySet    bool
	apiError     string

	timer    *crafting.Timer
	ledger   *history.Ledger
	activity activityLog

	clock  crafting.Clock
	hooks  Hooks
	logger *zap.Logger
}

// Options configure a Workshop.
type Options struct {
	Clock            crafting.Clock
	Hooks            Hooks
	Logger           *zap.Logger
	APIKeyConfigured bool
	LedgerOptions    []history.Option
}

// New restores a workshop from a persisted state.
func New(initial models.WorkshopState, opts Options) *Workshop {
	st := initial.Normalized()

	clock := opts.Clock
	if clock == nil {
		clock = crafting.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ledgerOpts := append([]history.Option{history.WithClock(clock.Now)}, opts.LedgerOptions...)

	return &Workshop{
		ownerID:      st.OwnerID,
		craftType:    st.CraftType,
		targetSlots:  st.TargetSlots,
		inventory:    st.Inventory,
		bonus:        st.Bonus,
		prices:       pricing.NewCacheFrom(st.Prices),
		pricesLoaded: st.PricesLoaded,
		apiKeySet:    opts.APIKeyConfigured,
		timer:        crafting.NewTimer(clock, st.Crafting),
		ledger:       history.NewLedger(st.History, ledgerOpts...),
		clock:        clock,
		hooks:        opts.Hooks,
		logger:       logger,
	}
}

// Inputs is a partial update of the calculator inputs; nil fields are kept.
// Inventory tiers are patched one by one so an update never overwrites the
// tiers a concurrent commit just changed.
type Inputs struct {
	CraftType   *models.CraftType
	TargetSlots *int
	Rare        *int
	Uncommon    *int
	Common      *int
}

// UpdateInputs applies user-entered inputs. Negative values are clamped to 0
// and target slots are capped at models.MaxTargetSlots.
func (w *Workshop) UpdateInputs(in Inputs) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if in.CraftType != nil {
		if !in.CraftType.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidCraftType, *in.CraftType)
		}
		w.craftType = *in.CraftType
	}
	if in.TargetSlots != nil {
		w.targetSlots = min(models.MaxTargetSlots, max(0, *in.TargetSlots))
	}
	for key, qty := range map[models.MaterialKey]*int{
		models.KeyRare:     in.Rare,
		models.KeyUncommon: in.Uncommon,
		models.KeyCommon:   in.Common,
	} {
		if qty != nil {
			w.inventory = w.inventory.With(key, max(0, *qty))
		}
	}
	w.emitChangeLocked()
	return nil
}

// PercentUpdate replaces one bonus percentage. A nil Value clears it.
type PercentUpdate struct {
	Value *float64
}

// BonusPatch is a partial bonus update; nil fields are kept.
type BonusPatch struct {
	CostReductionPercent     *PercentUpdate
	GreatSuccessBonusPercent *PercentUpdate
	TimeReductionPercent     *PercentUpdate
	NinavBlessingActive      *bool
}

// UpdateBonus applies patch on top of the current bonus configuration.
func (w *Workshop) UpdateBonus(patch BonusPatch) {
	w.mu.Lock()
	defer w.mu.Unlock()

	bonus := w.bonus
	if patch.CostReductionPercent != nil {
		bonus.CostReductionPercent = patch.CostReductionPercent.Value
	}
	if patch.GreatSuccessBonusPercent != nil {
		bonus.GreatSuccessBonusPercent = patch.GreatSuccessBonusPercent.Value
	}
	if patch.TimeReductionPercent != nil {
		bonus.TimeReductionPercent = patch.TimeReductionPercent.Value
	}
	if patch.NinavBlessingActive != nil {
		bonus.NinavBlessingActive = *patch.NinavBlessingActive
	}
	w.bonus = models.WorkshopState{Bonus: bonus}.Normalized().Bonus
	w.emitChangeLocked()
}

// SetBonus replaces the bonus configuration.
func (w *Workshop) SetBonus(bonus models.BonusConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.bonus = models.WorkshopState{Bonus: bonus}.Normalized().Bonus
	w.emitChangeLocked()
}

// SetAPIKeyConfigured records whether a market API key is available.
func (w *Workshop) SetAPIKeyConfigured(ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.apiKeySet = ok
}

// BeginPriceRefresh clears the sticky api error ahead of a new attempt.
// Foreground refreshes also mark prices as not loaded until they finish.
func (w *Workshop) BeginPriceRefresh(background bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.apiError = ""
	if !background {
		w.pricesLoaded = false
		w.activity.add(w.clock.Now(), "price refresh started")
	}
}

// CompletePriceRefresh merges fetched quotes and marks prices as loaded.
func (w *Workshop) CompletePriceRefresh(partial models.PriceSnapshot, background bool) {
	w.mu.Lock()
	w.prices.Update(partial)
	w.pricesLoaded = true
	if background {
		w.activity.add(w.clock.Now(), "prices refreshed")
	} else {
		w.activity.add(w.clock.Now(), "price refresh complete (%d items)", len(partial))
	}
	w.emitChangeLocked()
	w.mu.Unlock()

}

// FailPriceRefresh records a failed refresh. Crafting stays blocked until a
// later refresh succeeds.
func (w *Workshop) FailPriceRefresh(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.apiError = err.Error()
	w.activity.add(w.clock.Now(), "price refresh failed: %s", w.apiError)
}

// Log appends a message to the activity log.
func (w *Workshop) Log(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activity.add(w.clock.Now(), format, args...)
}

// Ready reports whether a craft may be committed, and why not.
func (w *Workshop) Ready() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.readyLocked()
}

func (w *Workshop) readyLocked() error {
	switch {
	case !w.apiKeySet:
		return ErrAPIKeyMissing
	case w.apiError != "":
		return fmt.Errorf("%w: %s", ErrAPIError, w.apiError)
	case !w.pricesLoaded:
		return ErrNotReady
	case !w.bonus.Complete():
		return ErrBonusIncomplete
	}
	return nil
}

// State returns the persistable state.
func (w *Workshop) State() models.WorkshopState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Workshop) stateLocked() models.WorkshopState {
	return models.WorkshopState{
		OwnerID:      w.ownerID,
		CraftType:    w.craftType,
		TargetSlots:  w.targetSlots,
		Inventory:    w.inventory,
		Bonus:        w.bonus,
		Prices:       w.prices.Snapshot(),
		PricesLoaded: w.pricesLoaded,
		Crafting:     w.timer.State(),
		History:      w.ledger.Entries(),
		UpdatedAt:    w.clock.Now(),
	}
}

// View is a read-consistent snapshot of the state plus every derived figure.
type View struct {
	State        models.WorkshopState    `json:"state"`
	Requirements calculator.Requirements `json:"requirements"`
	Profit       *calculator.ProfitStats `json:"profit"`
	Progress     crafting.Progress       `json:"progress"`
	Summary      history.Summary         `json:"summary"`
	Ready        bool                    `json:"ready"`
	NotReady     string                  `json:"notReadyReason,omitempty"`
	APIError     string                  `json:"apiError,omitempty"`
	Activity     []string                `json:"activity"`
}

// View computes the derived figures from one snapshot of the state.
func (w *Workshop) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := w.stateLocked()
	recipe := models.RecipeFor(st.CraftType)

	v := View{
		State:        st,
		Requirements: calculator.ComputeRequirements(recipe, st.Inventory, st.TargetSlots, st.Prices),
		Progress:     w.timer.Progress(),
		Summary:      history.Summarize(st.History),
		APIError:     w.apiError,
		Activity:     w.activity.list(),
	}
	if w.apiError == "" && st.PricesLoaded {
		v.Profit = calculator.EstimateProfit(recipe, st.Prices, st.TargetSlots, st.Bonus)
	}
	if err := w.readyLocked(); err != nil {
		v.NotReady = err.Error()
	} else {
		v.Ready = true
	}
	return v
}

// emitChangeLocked hands the current state to OnChange. It runs under w.mu so
// observers see states in transition order.
func (w *Workshop) emitChangeLocked() {
	if w.hooks.OnChange != nil {
		w.hooks.OnChange(w.stateLocked())
	}
}
