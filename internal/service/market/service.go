package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/pkg/clients/lostark"
)

var (
	// ErrNoAPIKey indicates no refresh was attempted because no key is set.
	ErrNoAPIKey = errors.New("market api key not configured")
	// ErrAuthFailed indicates the market rejected the key.
	ErrAuthFailed = errors.New("api key authentication failed (401/403)")
	// ErrRefreshInProgress indicates another refresh is still running.
	ErrRefreshInProgress = errors.New("price refresh already in progress")
)

// PriceSink receives the outcome of a refresh. The workshop implements it.
type PriceSink interface {
	SetAPIKeyConfigured(ok bool)
	BeginPriceRefresh(background bool)
	CompletePriceRefresh(partial models.PriceSnapshot, background bool)
	FailPriceRefresh(err error)
	Log(format string, args ...any)
}

// Service fetches the catalog prices and hands them to the sink.
type Service struct {
	client  lostark.Client
	sink    PriceSink
	catalog []models.CatalogItem
	logger  *zap.Logger

	keyMu  sync.RWMutex
	apiKey string

	running sync.Mutex
}

// NewService wires a market refresh service.
func NewService(client lostark.Client, sink PriceSink, apiKey string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		client:  client,
		sink:    sink,
		catalog: models.MarketCatalog,
		logger:  logger,
	}
	s.SetAPIKey(apiKey)
	return s
}

// SetAPIKey replaces the key used by later refreshes.
func (s *Service) SetAPIKey(apiKey string) {
	s.keyMu.Lock()
	s.apiKey = apiKey
	s.keyMu.Unlock()
	s.sink.SetAPIKeyConfigured(apiKey != "")
}

func (s *Service) key() string {
	s.keyMu.RLock()
	defer s.keyMu.RUnlock()
	return s.apiKey
}

// Refresh fetches every catalog item in turn. Items that fail for reasons
// other than authentication are skipped; an authentication failure aborts
// the refresh and leaves the sink in the error state.
func (s *Service) Refresh(ctx context.Context, background bool) error {
	apiKey := s.key()
	if apiKey == "" {
		return ErrNoAPIKey
	}
	if !s.running.TryLock() {
		return ErrRefreshInProgress
	}
	defer s.running.Unlock()

	s.sink.BeginPriceRefresh(background)

	clean, err := lostark.SanitizeAPIKey(apiKey)
	if err != nil {
		s.sink.FailPriceRefresh(err)
		return err
	}

	partial := make(models.PriceSnapshot, len(s.catalog))
	for _, item := range s.catalog {
		if !background {
			s.logger.Debug("requesting market price", zap.String("item", item.Name), zap.Int("item_id", item.ItemID), zap.Int("category", item.CategoryCode))
		}

		quote, err := s.client.GetMarketPrice(ctx, clean, item)
		if err != nil {
			if errors.Is(err, lostark.ErrUnauthorized) {
				failure := fmt.Errorf("%w: %v", ErrAuthFailed, err)
				s.logger.Warn("market api rejected key", zap.Error(err))
				s.sink.FailPriceRefresh(failure)
				return failure
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.sink.FailPriceRefresh(ctxErr)
				return ctxErr
			}
			s.logger.Warn("market price lookup failed", zap.String("item", item.Name), zap.Error(err))
			s.sink.Log("price lookup failed for %s: %v", item.Name, err)
			continue
		}
		if quote == nil {
			s.logger.Info("no market listing", zap.String("item", item.Name))
			if !background {
				s.sink.Log("no market data for %s", item.Name)
			}
			continue
		}

		partial[item.Key] = *quote
	}

	s.sink.CompletePriceRefresh(partial, background)
	s.logger.Info("market prices refreshed", zap.Int("items", len(partial)), zap.Bool("background", background))
	return nil
}
