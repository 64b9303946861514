package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/fusioncalc/internal/config"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// HistoryRange is the sheet range history rows are appended to.
const HistoryRange = "History!A:J"

// HistorySheet appends ledger entries to the History tab of one spreadsheet.
type HistorySheet struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// NewHistorySheet authenticates with the service account credentials file
// and targets cfg.SpreadsheetID.
func NewHistorySheet(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*HistorySheet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &HistorySheet{
		values:        service.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// AppendHistory writes entry as a new row below the existing history.
func (s *HistorySheet) AppendHistory(ctx context.Context, entry models.HistoryEntry) error {
	payload := &sheetsapi.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{HistoryRow(entry)},
	}

	_, err := s.values.Append(s.spreadsheetID, HistoryRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append history entry %s: %w", entry.ID, err)
	}

	s.logger.Debug("history row appended", zap.String("entry_id", entry.ID), zap.Bool("has_result", entry.HasActualResult()))
	return nil
}

// HistoryRow lays out entry across the ten History columns: id, timestamp,
// craft type, slots, unit cost, total cost, expected output, expected profit,
// actual output, actual profit. Actual result cells stay empty until a result
// is recorded.
func HistoryRow(entry models.HistoryEntry) []interface{} {
	var actualQty, actualProfit interface{} = "", ""
	if entry.ActualOutputQty != nil {
		actualQty = *entry.ActualOutputQty
	}
	if entry.ActualProfit != nil {
		actualProfit = *entry.ActualProfit
	}

	return []interface{}{
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339),
		string(entry.CraftType),
		entry.Slots,
		entry.UnitCost,
		entry.TotalCost,
		entry.ExpectedOutputQty,
		entry.ExpectedProfit,
		actualQty,
		actualProfit,
	}
}
