package lostark

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// DefaultBaseURL is the public Lost Ark developer API.
const DefaultBaseURL = "https://developer-lostark.game.onstove.com"

var (
	// ErrUnauthorized is returned when the API rejects the key (HTTP 401/403).
	ErrUnauthorized = errors.New("lostark api key rejected")
	// ErrInvalidAPIKey is returned for keys containing non-ASCII characters.
	ErrInvalidAPIKey = errors.New("lostark api key contains invalid characters")
)

// Client exposes the market lookups used by the price refresh.
type Client interface {
	GetMarketPrice(ctx context.Context, apiKey string, item models.CatalogItem) (*models.Quote, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a market API client against baseURL.
func NewClient(baseURL string) *APIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &APIClient{httpClient: restyClient}
}

type marketSearchRequest struct {
	Sort          string `json:"Sort"`
	CategoryCode  int    `json:"CategoryCode"`
	ItemName      string `json:"ItemName"`
	PageNo        int    `json:"PageNo"`
	SortCondition string `json:"SortCondition"`
}

type marketItem struct {
	ID              int     `json:"Id"`
	Name            string  `json:"Name"`
	BundleCount     int     `json:"BundleCount"`
	CurrentMinPrice float64 `json:"CurrentMinPrice"`
	RecentPrice     float64 `json:"RecentPrice"`
	YDayAvgPrice    float64 `json:"YDayAvgPrice"`
}

type marketSearchResponse struct {
	PageNo     int          `json:"PageNo"`
	PageSize   int          `json:"PageSize"`
	TotalCount int          `json:"TotalCount"`
	Items      []marketItem `json:"Items"`
}

// SanitizeAPIKey trims the key and rejects non-ASCII content, which the
// Authorization header cannot carry.
func SanitizeAPIKey(apiKey string) (string, error) {
	clean := strings.TrimSpace(apiKey)
	for _, r := range clean {
		if r > 0x7f {
			return "", ErrInvalidAPIKey
		}
	}
	return clean, nil
}

// GetMarketPrice searches the market for item and returns its current bundle
// price. A nil quote with a nil error means the market has no listing.
func (c *APIClient) GetMarketPrice(ctx context.Context, apiKey string, item models.CatalogItem) (*models.Quote, error) {
	key, err := SanitizeAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	result := new(marketSearchResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "bearer "+key).
		SetBody(marketSearchRequest{
			Sort:          "CURRENT_MIN_PRICE",
			CategoryCode:  item.CategoryCode,
			ItemName:      item.Name,
			PageNo:        1,
			SortCondition: "ASC",
		}).
		SetResult(result).
		Post("/markets/items")
	if err != nil {
		return nil, fmt.Errorf("search market for %s: %w", item.Name, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, code)
	case code >= http.StatusBadRequest:
		return nil, fmt.Errorf("lostark api error: status %d", code)
	}

	if len(result.Items) == 0 {
		return nil, nil
	}

	picked := result.Items[0]
	for _, it := range result.Items {
		if it.ID == item.ItemID {
			picked = it
			break
		}
	}

	price := picked.CurrentMinPrice
	if price <= 0 {
		price = picked.RecentPrice
	}
	bundle := picked.BundleCount
	if bundle <= 0 {
		bundle = 1
	}

	return &models.Quote{UnitPrice: price, BundleSize: bundle}, nil
}
