package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/crafting"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/history"
	"github.com/mamadbah2/fusioncalc/internal/service/market"
	"github.com/mamadbah2/fusioncalc/internal/workshop"
	"github.com/mamadbah2/fusioncalc/pkg/clients/lostark"
)

// MarketService refreshes prices on demand.
type MarketService interface {
	Refresh(ctx context.Context, background bool) error
	SetAPIKey(apiKey string)
}

// WorkshopHandler exposes the calculator, the crafting timer and the history.
type WorkshopHandler struct {
	ws     *workshop.Workshop
	market MarketService
	logger *zap.Logger
}

// NewWorkshopHandler constructs the HTTP handler adapter.
func NewWorkshopHandler(ws *workshop.Workshop, market MarketService, logger *zap.Logger) *WorkshopHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkshopHandler{ws: ws, market: market, logger: logger}
}

type inventoryRequest struct {
	Rare     models.LooseNumber `json:"rare"`
	Uncommon models.LooseNumber `json:"uncommon"`
	Common   models.LooseNumber `json:"common"`
}

type inputsRequest struct {
	CraftType   *string            `json:"craftType"`
	TargetSlots models.LooseNumber `json:"targetSlots"`
	Inventory   *inventoryRequest  `json:"inventory"`
}

type bonusRequest struct {
	CostReductionPercent     models.LooseNumber `json:"costReductionPercent"`
	GreatSuccessBonusPercent models.LooseNumber `json:"greatSuccessBonusPercent"`
	TimeReductionPercent     models.LooseNumber `json:"timeReductionPercent"`
	NinavBlessingActive      *bool              `json:"ninavBlessingActive"`
}

type apiKeyRequest struct {
	APIKey string `json:"apiKey"`
}

type resultRequest struct {
	ActualOutputQty models.LooseNumber `json:"actualOutputQty"`
}

// Snapshot returns the state with every derived figure.
func (h *WorkshopHandler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.ws.View())
}

// UpdateInputs applies a partial update of craft type, slots and inventory.
func (h *WorkshopHandler) UpdateInputs(c *gin.Context) {
	var req inputsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	var in workshop.Inputs
	if req.CraftType != nil {
		ct := models.CraftType(strings.ToLower(strings.TrimSpace(*req.CraftType)))
		in.CraftType = &ct
	}
	in.TargetSlots = looseCount(req.TargetSlots)
	if req.Inventory != nil {
		in.Rare = looseCount(req.Inventory.Rare)
		in.Uncommon = looseCount(req.Inventory.Uncommon)
		in.Common = looseCount(req.Inventory.Common)
	}

	if err := h.ws.UpdateInputs(in); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.View())
}

// UpdateBonus applies a partial update of the bonus configuration. An empty
// string clears a percentage; an absent or null field keeps it.
func (h *WorkshopHandler) UpdateBonus(c *gin.Context) {
	var req bonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.ws.UpdateBonus(workshop.BonusPatch{
		CostReductionPercent:     loosePercent(req.CostReductionPercent),
		GreatSuccessBonusPercent: loosePercent(req.GreatSuccessBonusPercent),
		TimeReductionPercent:     loosePercent(req.TimeReductionPercent),
		NinavBlessingActive:      req.NinavBlessingActive,
	})
	c.JSON(http.StatusOK, h.ws.View())
}

func looseCount(n models.LooseNumber) *int {
	if !n.Provided() {
		return nil
	}
	v := n.Count()
	return &v
}

func loosePercent(n models.LooseNumber) *workshop.PercentUpdate {
	if !n.Provided() {
		return nil
	}
	return &workshop.PercentUpdate{Value: n.Percent()}
}

// SetAPIKey replaces the market API key and refreshes prices with it.
func (h *WorkshopHandler) SetAPIKey(c *gin.Context) {
	var req apiKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.market.SetAPIKey(strings.TrimSpace(req.APIKey))
	h.refresh(c)
}

// RefreshPrices fetches market prices in the foreground.
func (h *WorkshopHandler) RefreshPrices(c *gin.Context) {
	h.refresh(c)
}

func (h *WorkshopHandler) refresh(c *gin.Context) {
	if err := h.market.Refresh(c.Request.Context(), false); err != nil {
		if !errors.Is(err, market.ErrNoAPIKey) {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, h.ws.View())
}

// StartCraft commits the purchase plan to history and starts the timer.
func (h *WorkshopHandler) StartCraft(c *gin.Context) {
	res, err := h.ws.CommitAndStart()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// CancelCraft stops the running craft.
func (h *WorkshopHandler) CancelCraft(c *gin.Context) {
	if err := h.ws.CancelCraft(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ws.Progress())
}

// History lists the ledger with its totals.
func (h *WorkshopHandler) History(c *gin.Context) {
	entries, summary := h.ws.History()
	c.JSON(http.StatusOK, gin.H{"entries": entries, "summary": summary})
}

// RecordResult stores the actual output of one entry.
func (h *WorkshopHandler) RecordResult(c *gin.Context) {
	qty, ok := h.bindResult(c)
	if !ok {
		return
	}
	entry, err := h.ws.RecordResult(c.Param("id"), qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// RecordLatestResult stores the actual output of the newest entry.
func (h *WorkshopHandler) RecordLatestResult(c *gin.Context) {
	qty, ok := h.bindResult(c)
	if !ok {
		return
	}
	entry, err := h.ws.RecordLatestResult(qty)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *WorkshopHandler) bindResult(c *gin.Context) (int, bool) {
	var req resultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return 0, false
	}
	if !req.ActualOutputQty.Provided() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actualOutputQty is required"})
		return 0, false
	}
	return req.ActualOutputQty.Count(), true
}

// DeleteHistory removes one entry.
func (h *WorkshopHandler) DeleteHistory(c *gin.Context) {
	if err := h.ws.DeleteHistory(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory removes every entry.
func (h *WorkshopHandler) ClearHistory(c *gin.Context) {
	h.ws.ClearHistory()
	c.Status(http.StatusNoContent)
}

func (h *WorkshopHandler) badRequest(c *gin.Context, err error) {
	h.logger.Warn("invalid workshop payload", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func (h *WorkshopHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("workshop request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Info("workshop request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrEntryNotFound), errors.Is(err, history.ErrEmpty):
		return http.StatusNotFound
	case errors.Is(err, workshop.ErrInvalidCraftType), errors.Is(err, lostark.ErrInvalidAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrAuthFailed):
		return http.StatusBadGateway
	case errors.Is(err, workshop.ErrAPIKeyMissing),
		errors.Is(err, workshop.ErrAPIError),
		errors.Is(err, workshop.ErrNotReady),
		errors.Is(err, workshop.ErrBonusIncomplete),
		errors.Is(err, history.ErrNoSlots),
		errors.Is(err, history.ErrAlreadyRecorded),
		errors.Is(err, history.ErrInsufficientData),
		errors.Is(err, crafting.ErrNotActive),
		errors.Is(err, market.ErrRefreshInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
