package market

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/pkg/clients/lostark"
)

type fakeClient struct {
	quotes map[models.MaterialKey]*models.Quote
	errs   map[models.MaterialKey]error
	calls  []models.MaterialKey
	keys   []string
}

func (f *fakeClient) GetMarketPrice(_ context.Context, apiKey string, item models.CatalogItem) (*models.Quote, error) {
	f.calls = append(f.calls, item.Key)
	f.keys = append(f.keys, apiKey)
	if err := f.errs[item.Key]; err != nil {
		return nil, err
	}
	return f.quotes[item.Key], nil
}

type fakeSink struct {
	configured bool
	begun      int
	completed  []models.PriceSnapshot
	failed     []error
	logs       []string
}

func (f *fakeSink) SetAPIKeyConfigured(ok bool) { f.configured = ok }
func (f *fakeSink) BeginPriceRefresh(bool)      { f.begun++ }
func (f *fakeSink) CompletePriceRefresh(p models.PriceSnapshot, _ bool) {
	f.completed = append(f.completed, p)
}
func (f *fakeSink) FailPriceRefresh(err error) { f.failed = append(f.failed, err) }
func (f *fakeSink) Log(format string, args ...any) {
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func allQuotes() map[models.MaterialKey]*models.Quote {
	out := map[models.MaterialKey]*models.Quote{}
	for i, key := range models.AllMaterialKeys {
		out[key] = &models.Quote{UnitPrice: float64(10 * (i + 1)), BundleSize: 10}
	}
	return out
}

func TestRefreshMergesAllQuotes(t *testing.T) {
	client := &fakeClient{quotes: allQuotes()}
	sink := &fakeSink{}
	svc := NewService(client, sink, " key ", nil)

	require.NoError(t, svc.Refresh(context.Background(), false))
	assert.True(t, sink.configured)
	assert.Equal(t, 1, sink.begun)
	require.Len(t, sink.completed, 1)
	assert.Len(t, sink.completed[0], len(models.AllMaterialKeys))
	assert.Empty(t, sink.failed)
	assert.Equal(t, "key", client.keys[0])
}

func TestRefreshSkipsMissingAndGenericFailures(t *testing.T) {
	quotes := allQuotes()
	quotes[models.KeyFusion] = nil
	client := &fakeClient{
		quotes: quotes,
		errs:   map[models.MaterialKey]error{models.KeyCommon: errors.New("lostark api error: status 500")},
	}
	sink := &fakeSink{}
	svc := NewService(client, sink, "key", nil)

	require.NoError(t, svc.Refresh(context.Background(), false))
	require.Len(t, sink.completed, 1)
	got := sink.completed[0]
	assert.NotContains(t, got, models.KeyFusion)
	assert.NotContains(t, got, models.KeyCommon)
	assert.Contains(t, got, models.KeySuperiorFusion)
	assert.Len(t, client.calls, len(models.AllMaterialKeys))
	assert.NotEmpty(t, sink.logs)
}

func TestRefreshAbortsOnAuthFailure(t *testing.T) {
	client := &fakeClient{
		quotes: allQuotes(),
		errs:   map[models.MaterialKey]error{models.KeyUncommon: fmt.Errorf("%w: status 401", lostark.ErrUnauthorized)},
	}
	sink := &fakeSink{}
	svc := NewService(client, sink, "key", nil)

	err := svc.Refresh(context.Background(), true)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Empty(t, sink.completed)
	require.Len(t, sink.failed, 1)
	assert.ErrorIs(t, sink.failed[0], ErrAuthFailed)
	assert.Equal(t, []models.MaterialKey{models.KeyRare, models.KeyUncommon}, client.calls)
}

func TestRefreshRejectsBadKeys(t *testing.T) {
	sink := &fakeSink{}
	svc := NewService(&fakeClient{}, sink, "", nil)
	assert.ErrorIs(t, svc.Refresh(context.Background(), false), ErrNoAPIKey)
	assert.False(t, sink.configured)
	assert.Zero(t, sink.begun)

	svc.SetAPIKey("키")
	assert.ErrorIs(t, svc.Refresh(context.Background(), false), lostark.ErrInvalidAPIKey)
	require.Len(t, sink.failed, 1)
}
