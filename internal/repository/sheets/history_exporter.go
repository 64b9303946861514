package sheets

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

const exportTimeout = 15 * time.Second

// HistoryAppender stores one ledger entry as a spreadsheet row.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, entry models.HistoryEntry) error
}

// HistoryExporter mirrors ledger events into a spreadsheet without blocking
// the workshop.
type HistoryExporter struct {
	sheet  HistoryAppender
	logger *zap.Logger
}

// NewHistoryExporter wraps sheet.
func NewHistoryExporter(sheet HistoryAppender, logger *zap.Logger) *HistoryExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryExporter{sheet: sheet, logger: logger}
}

// Export appends entry synchronously.
func (e *HistoryExporter) Export(ctx context.Context, entry models.HistoryEntry) error {
	return e.sheet.AppendHistory(ctx, entry)
}

// ExportAsync appends entry in the background; failures are only logged.
func (e *HistoryExporter) ExportAsync(entry models.HistoryEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		if err := e.Export(ctx, entry); err != nil {
			e.logger.Warn("history export failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
	}()
}
