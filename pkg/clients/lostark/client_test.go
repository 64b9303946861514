package lostark

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

var rareItem = models.CatalogItem{Key: models.KeyRare, ItemID: 6884308, Name: "아비도스 목재", CategoryCode: 90300}

func newServer(t *testing.T, status int, body any) (*httptest.Server, *marketSearchRequest) {
	t.Helper()
	got := new(marketSearchRequest)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/items", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "bearer secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestGetMarketPricePicksMatchingItem(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, marketSearchResponse{Items: []marketItem{
		{ID: 1, Name: "other", BundleCount: 10, CurrentMinPrice: 5},
		{ID: 6884308, Name: "아비도스 목재", BundleCount: 100, CurrentMinPrice: 88},
	}})

	q, err := NewClient(srv.URL).GetMarketPrice(context.Background(), "  secret  ", rareItem)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, models.Quote{UnitPrice: 88, BundleSize: 100}, *q)

	assert.Equal(t, "CURRENT_MIN_PRICE", got.Sort)
	assert.Equal(t, 90300, got.CategoryCode)
	assert.Equal(t, "아비도스 목재", got.ItemName)
	assert.Equal(t, 1, got.PageNo)
}

func TestGetMarketPriceFallbacks(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, marketSearchResponse{Items: []marketItem{
		{ID: 42, RecentPrice: 31},
	}})

	q, err := NewClient(srv.URL).GetMarketPrice(context.Background(), "secret", rareItem)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, models.Quote{UnitPrice: 31, BundleSize: 1}, *q)
}

func TestGetMarketPriceNoItems(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, marketSearchResponse{})

	q, err := NewClient(srv.URL).GetMarketPrice(context.Background(), "secret", rareItem)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestGetMarketPriceErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv, _ := newServer(t, status, map[string]string{"message": "nope"})
		_, err := NewClient(srv.URL).GetMarketPrice(context.Background(), "secret", rareItem)
		assert.ErrorIs(t, err, ErrUnauthorized, "status %d", status)
	}

	srv, _ := newServer(t, http.StatusServiceUnavailable, map[string]string{})
	_, err := NewClient(srv.URL).GetMarketPrice(context.Background(), "secret", rareItem)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestSanitizeAPIKey(t *testing.T) {
	key, err := SanitizeAPIKey("  abc.def  ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", key)

	_, err = SanitizeAPIKey("키abc")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = NewClient("http://127.0.0.1:1").GetMarketPrice(context.Background(), "키", rareItem)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}
