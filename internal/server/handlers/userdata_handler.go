package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/repository/mongodb"
)

// UserDataStore is the storage used by UserDataHandler.
type UserDataStore interface {
	GetUserData(ctx context.Context, userID string) (models.UserData, error)
	UpsertUserData(ctx context.Context, data models.UserData) error
}

// UserDataHandler serves the flat per-user settings record.
type UserDataHandler struct {
	store  UserDataStore
	now    func() time.Time
	logger *zap.Logger
}

// NewUserDataHandler constructs the HTTP handler adapter.
func NewUserDataHandler(store UserDataStore, logger *zap.Logger) *UserDataHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserDataHandler{store: store, now: time.Now, logger: logger}
}

type userDataRequest struct {
	UserID        string             `json:"userId" binding:"required"`
	TargetSlots   models.LooseNumber `json:"targetSlots"`
	OwnedRare     models.LooseNumber `json:"ownedRare"`
	OwnedUncommon models.LooseNumber `json:"ownedUncommon"`
	OwnedCommon   models.LooseNumber `json:"ownedCommon"`
}

// Get returns the stored record, or defaults for an unknown user.
func (h *UserDataHandler) Get(c *gin.Context) {
	userID := c.Param("userId")

	data, err := h.store.GetUserData(c.Request.Context(), userID)
	if errors.Is(err, mongodb.ErrNotFound) {
		c.JSON(http.StatusOK, models.DefaultUserData(userID))
		return
	}
	if err != nil {
		h.logger.Error("failed to load user data", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user data"})
		return
	}

	c.JSON(http.StatusOK, data)
}

// Upsert creates or replaces the record of the posted userId.
func (h *UserDataHandler) Upsert(c *gin.Context) {
	var req userDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid user data payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	data := models.UserData{
		UserID:        req.UserID,
		TargetSlots:   req.TargetSlots.Count(),
		OwnedRare:     req.OwnedRare.Count(),
		OwnedUncommon: req.OwnedUncommon.Count(),
		OwnedCommon:   req.OwnedCommon.Count(),
		UpdatedAt:     h.now().UTC(),
	}
	if !req.TargetSlots.Provided() {
		data.TargetSlots = models.DefaultUserData(req.UserID).TargetSlots
	}

	if err := h.store.UpsertUserData(c.Request.Context(), data); err != nil {
		h.logger.Error("failed to save user data", zap.String("user_id", data.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save user data"})
		return
	}

	c.JSON(http.StatusOK, data)
}
