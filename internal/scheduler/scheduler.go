package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/config"
	"github.com/mamadbah2/fusioncalc/internal/service/market"
)

// PriceRefresher refreshes market prices.
type PriceRefresher interface {
	Refresh(ctx context.Context, background bool) error
}

// CompletionChecker finalizes a crafting operation whose end time has passed.
type CompletionChecker interface {
	CheckCompletion() bool
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron    *cron.Cron
	prices  PriceRefresher
	timer   CompletionChecker
	cfg     config.SchedulerConfig
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(cfg config.SchedulerConfig, prices PriceRefresher, timer CompletionChecker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	// Overlapping refreshes are skipped rather than queued.
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:    c,
		prices:  prices,
		timer:   timer,
		cfg:     cfg,
		timeout: 45 * time.Second,
		logger:  logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("price_refresh", s.cfg.PriceRefreshSchedule),
		zap.String("timer_poll", s.cfg.TimerPollSchedule))

	if _, err := s.cron.AddFunc(s.cfg.PriceRefreshSchedule, s.refreshPrices); err != nil {
		return fmt.Errorf("schedule price refresh: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.TimerPollSchedule, s.pollTimer); err != nil {
		return fmt.Errorf("schedule timer poll: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshPrices() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	err := s.prices.Refresh(ctx, true)
	switch {
	case err == nil:
		s.logger.Debug("scheduled price refresh finished")
	case errors.Is(err, market.ErrNoAPIKey), errors.Is(err, market.ErrRefreshInProgress):
		s.logger.Debug("scheduled price refresh skipped", zap.Error(err))
	default:
		s.logger.Warn("scheduled price refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) pollTimer() {
	if s.timer.CheckCompletion() {
		s.logger.Info("crafting operation completed")
	}
}
