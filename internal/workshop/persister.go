package workshop

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/domain/models"
)

// StateStore persists workshop states and the owner's flat settings record.
type StateStore interface {
	SaveWorkshopState(ctx context.Context, state models.WorkshopState) error
	UpsertUserData(ctx context.Context, data models.UserData) error
}

// Persister writes state changes in the background. Only the latest pending
// state is kept, so a slow store never queues up stale writes or blocks callers.
type Persister struct {
	store   StateStore
	pending chan models.WorkshopState
	timeout time.Duration
	logger  *zap.Logger
}

// NewPersister builds a persister around store.
func NewPersister(store StateStore, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{
		store:   store,
		pending: make(chan models.WorkshopState, 1),
		timeout: 10 * time.Second,
		logger:  logger,
	}
}

// Enqueue schedules st for saving, replacing any state not yet written.
func (p *Persister) Enqueue(st models.WorkshopState) {
	for {
		select {
		case p.pending <- st:
			return
		default:
		}
		select {
		case <-p.pending:
		default:
		}
	}
}

// Run drains the queue until ctx is done, then flushes what is left.
func (p *Persister) Run(ctx context.Context) {
	for {
		select {
		case st := <-p.pending:
			p.save(st)
		case <-ctx.Done():
			select {
			case st := <-p.pending:
				p.save(st)
			default:
			}
			return
		}
	}
}

func (p *Persister) save(st models.WorkshopState) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.store.SaveWorkshopState(ctx, st); err != nil {
		p.logger.Error("failed to save workshop state", zap.String("owner_id", st.OwnerID), zap.Error(err))
		return
	}
	if err := p.store.UpsertUserData(ctx, models.UserDataFromState(st)); err != nil {
		p.logger.Error("failed to save user data", zap.String("owner_id", st.OwnerID), zap.Error(err))
		return
	}
	p.logger.Debug("workshop state saved", zap.String("owner_id", st.OwnerID))
}
