package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fusioncalc/internal/crafting"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/repository/mongodb"
	"github.com/mamadbah2/fusioncalc/internal/workshop"
)

type memoryUserData struct {
	records map[string]models.UserData
	err     error
}

func (m *memoryUserData) GetUserData(_ context.Context, userID string) (models.UserData, error) {
	if m.err != nil {
		return models.UserData{}, m.err
	}
	data, ok := m.records[userID]
	if !ok {
		return models.UserData{}, mongodb.ErrNotFound
	}
	return data, nil
}

func (m *memoryUserData) UpsertUserData(_ context.Context, data models.UserData) error {
	if m.err != nil {
		return m.err
	}
	m.records[data.UserID] = data
	return nil
}

type fakeMarket struct {
	ws     *workshop.Workshop
	prices models.PriceSnapshot
	err    error
}

func (f *fakeMarket) SetAPIKey(apiKey string) { f.ws.SetAPIKeyConfigured(apiKey != "") }

func (f *fakeMarket) Refresh(_ context.Context, background bool) error {
	if f.err != nil {
		return f.err
	}
	f.ws.BeginPriceRefresh(background)
	f.ws.CompletePriceRefresh(f.prices, background)
	return nil
}

func testPrices() models.PriceSnapshot {
	return models.PriceSnapshot{
		models.KeyRare:           {UnitPrice: 100, BundleSize: 10},
		models.KeyUncommon:       {UnitPrice: 50, BundleSize: 10},
		models.KeyCommon:         {UnitPrice: 20, BundleSize: 10},
		models.KeyFusion:         {UnitPrice: 80, BundleSize: 1},
		models.KeySuperiorFusion: {UnitPrice: 150, BundleSize: 1},
	}
}

func newEngine(t *testing.T) (*gin.Engine, *workshop.Workshop, *memoryUserData, *crafting.MockClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := crafting.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	ws := workshop.New(models.DefaultWorkshopState("local"), workshop.Options{Clock: clk})
	store := &memoryUserData{records: map[string]models.UserData{}}

	udh := NewUserDataHandler(store, nil)
	udh.now = clk.Now
	wh := NewWorkshopHandler(ws, &fakeMarket{ws: ws, prices: testPrices()}, nil)

	r := gin.New()
	r.GET("/api/user-data/:userId", udh.Get)
	r.POST("/api/user-data", udh.Upsert)
	r.GET("/api/workshop", wh.Snapshot)
	r.PUT("/api/workshop/inputs", wh.UpdateInputs)
	r.PUT("/api/workshop/bonus", wh.UpdateBonus)
	r.PUT("/api/workshop/api-key", wh.SetAPIKey)
	r.POST("/api/workshop/prices/refresh", wh.RefreshPrices)
	r.POST("/api/workshop/craft", wh.StartCraft)
	r.POST("/api/workshop/craft/cancel", wh.CancelCraft)
	r.GET("/api/workshop/history", wh.History)
	r.POST("/api/workshop/history/latest/result", wh.RecordLatestResult)
	r.POST("/api/workshop/history/:id/result", wh.RecordResult)
	r.DELETE("/api/workshop/history/:id", wh.DeleteHistory)
	r.DELETE("/api/workshop/history", wh.ClearHistory)
	return r, ws, store, clk
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestUserDataRoutes(t *testing.T) {
	r, _, store, _ := newEngine(t)

	w := do(t, r, http.MethodGet, "/api/user-data/alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.UserData](t, w)
	assert.Equal(t, models.DefaultUserData("alice"), got)

	w = do(t, r, http.MethodPost, "/api/user-data", `{"userId":"alice","targetSlots":"3","ownedRare":"12.7","ownedUncommon":-4,"ownedCommon":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	saved := store.records["alice"]
	assert.Equal(t, 3, saved.TargetSlots)
	assert.Equal(t, 12, saved.OwnedRare)
	assert.Zero(t, saved.OwnedUncommon)
	assert.Zero(t, saved.OwnedCommon)
	assert.False(t, saved.UpdatedAt.IsZero())

	w = do(t, r, http.MethodGet, "/api/user-data/alice", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, decode[models.UserData](t, w).OwnedRare)

	w = do(t, r, http.MethodPost, "/api/user-data", `{"ownedRare":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/user-data", `{"userId":"bob"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, store.records["bob"].TargetSlots)

	store.err = errors.New("connection reset")
	w = do(t, r, http.MethodGet, "/api/user-data/alice", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCraftLifecycle(t *testing.T) {
	r, ws, _, clk := newEngine(t)

	w := do(t, r, http.MethodPost, "/api/workshop/craft", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/api/workshop/api-key", `{"apiKey":" key "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ws.State().PricesLoaded)

	w = do(t, r, http.MethodPost, "/api/workshop/craft", "")
	assert.Equal(t, http.StatusConflict, w.Code, "bonus not set")

	w = do(t, r, http.MethodPut, "/api/workshop/bonus", `{"costReductionPercent":"0","greatSuccessBonusPercent":0,"timeReductionPercent":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Equal(t, true, view["ready"])
	assert.NotNil(t, view["profit"])

	w = do(t, r, http.MethodPut, "/api/workshop/inputs", `{"craftType":"Abidos","targetSlots":"2.9","inventory":{"rare":"40"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := ws.State()
	assert.Equal(t, models.CraftAbidos, st.CraftType)
	assert.Equal(t, 2, st.TargetSlots)
	assert.Equal(t, 40, st.Inventory.Rare)

	w = do(t, r, http.MethodPost, "/api/workshop/craft", "")
	require.Equal(t, http.StatusCreated, w.Code)
	res := decode[workshop.CommitResult](t, w)
	assert.Equal(t, 2, res.Entry.Slots)
	assert.True(t, res.Operation.IsActive)

	w = do(t, r, http.MethodGet, "/api/workshop/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Entries []models.HistoryEntry `json:"entries"`
	}](t, w)
	require.Len(t, hist.Entries, 1)

	clk.Advance(2 * time.Hour)
	assert.True(t, ws.CheckCompletion())

	w = do(t, r, http.MethodPost, "/api/workshop/history/latest/result", `{"actualOutputQty":"21"}`)
	require.Equal(t, http.StatusOK, w.Code)
	entry := decode[models.HistoryEntry](t, w)
	require.NotNil(t, entry.ActualOutputQty)
	assert.Equal(t, 21, *entry.ActualOutputQty)

	w = do(t, r, http.MethodPost, "/api/workshop/history/"+entry.ID+"/result", `{"actualOutputQty":5}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPost, "/api/workshop/history/latest/result", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, "/api/workshop/history/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/workshop/history/"+entry.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, ws.State().History)
}

func TestCancelCraft(t *testing.T) {
	r, _, _, _ := newEngine(t)

	w := do(t, r, http.MethodPost, "/api/workshop/craft/cancel", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	do(t, r, http.MethodPut, "/api/workshop/api-key", `{"apiKey":"key"}`)
	do(t, r, http.MethodPut, "/api/workshop/bonus", `{"costReductionPercent":5,"greatSuccessBonusPercent":10,"ninavBlessingActive":true}`)
	w = do(t, r, http.MethodPost, "/api/workshop/craft", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 4, decode[workshop.CommitResult](t, w).Operation.Concurrency)

	w = do(t, r, http.MethodPost, "/api/workshop/craft/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(crafting.StatusIdle), decode[map[string]any](t, w)["status"])

	w = do(t, r, http.MethodDelete, "/api/workshop/history", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestInputValidation(t *testing.T) {
	r, _, _, _ := newEngine(t)

	w := do(t, r, http.MethodPut, "/api/workshop/inputs", `{"craftType":"mythic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/workshop/inputs", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/workshop", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[map[string]any](t, w)
	assert.Equal(t, false, view["ready"])
	assert.Nil(t, view["profit"])
}

func TestHugeTargetSlotsStartSaneCraft(t *testing.T) {
	r, ws, _, clk := newEngine(t)
	do(t, r, http.MethodPut, "/api/workshop/api-key", `{"apiKey":"key"}`)
	do(t, r, http.MethodPut, "/api/workshop/bonus", `{"costReductionPercent":0,"greatSuccessBonusPercent":0}`)

	w := do(t, r, http.MethodPut, "/api/workshop/inputs", `{"targetSlots":10000000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MaxTargetSlots, ws.State().TargetSlots)

	w = do(t, r, http.MethodPost, "/api/workshop/craft", "")
	require.Equal(t, http.StatusCreated, w.Code)
	op := decode[workshop.CommitResult](t, w).Operation
	assert.True(t, op.EndTime.After(*op.StartTime))

	clk.Advance(time.Second)
	assert.False(t, ws.CheckCompletion())
}

func TestInventoryPatchKeepsOtherTiers(t *testing.T) {
	r, ws, _, _ := newEngine(t)
	do(t, r, http.MethodPut, "/api/workshop/api-key", `{"apiKey":"key"}`)
	do(t, r, http.MethodPut, "/api/workshop/bonus", `{"costReductionPercent":0,"greatSuccessBonusPercent":0}`)

	w := do(t, r, http.MethodPost, "/api/workshop/craft", "")
	require.Equal(t, http.StatusCreated, w.Code)
	after := decode[workshop.CommitResult](t, w).Inventory

	w = do(t, r, http.MethodPut, "/api/workshop/inputs", `{"inventory":{"rare":5}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Inventory{Rare: 5, Uncommon: after.Uncommon, Common: after.Common}, ws.State().Inventory)

	w = do(t, r, http.MethodPut, "/api/workshop/bonus", `{"timeReductionPercent":"15"}`)
	require.Equal(t, http.StatusOK, w.Code)
	b := ws.State().Bonus
	require.NotNil(t, b.CostReductionPercent)
	require.NotNil(t, b.TimeReductionPercent)
	assert.Equal(t, 15.0, *b.TimeReductionPercent)
}
