package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/calculator"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/pkg/clients/whatsapp"
)

// CompletionNotifier pushes a one-shot message when a craft finishes.
type CompletionNotifier struct {
	client  whatsapp.Client
	to      string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCompletionNotifier wires a notifier sending to the phone number to.
func NewCompletionNotifier(client whatsapp.Client, to string, logger *zap.Logger) *CompletionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionNotifier{
		client:  client,
		to:      to,
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Notify sends the completion message for op.
func (n *CompletionNotifier) Notify(ctx context.Context, op models.CraftingOperation) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	id, err := n.client.SendTextMessage(ctx, n.to, CompletionMessage(op))
	if err != nil {
		return fmt.Errorf("notify completion: %w", err)
	}
	n.logger.Info("completion notification sent", zap.String("message_id", id))
	return nil
}

// NotifyAsync sends the message in the background; failures are only logged.
func (n *CompletionNotifier) NotifyAsync(op models.CraftingOperation) {
	go func() {
		if err := n.Notify(context.Background(), op); err != nil {
			n.logger.Warn("completion notification failed", zap.Error(err))
		}
	}()
}

// CompletionMessage renders the text sent for a finished operation.
func CompletionMessage(op models.CraftingOperation) string {
	slots := op.TotalSlots
	items := slots * calculator.BaseYieldPerSlot
	msg := fmt.Sprintf("Crafting complete: %s x%d slots (%d items).", op.CraftType.DisplayName(), slots, items)
	if op.EndTime != nil {
		msg += fmt.Sprintf(" Finished at %s.", op.EndTime.Format("15:04"))
	}
	return msg
}
