package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/fusioncalc/internal/config"
	"github.com/mamadbah2/fusioncalc/internal/domain/models"
	"github.com/mamadbah2/fusioncalc/internal/repository/mongodb"
	"github.com/mamadbah2/fusioncalc/internal/repository/sheets"
	"github.com/mamadbah2/fusioncalc/internal/scheduler"
	"github.com/mamadbah2/fusioncalc/internal/server/handlers"
	"github.com/mamadbah2/fusioncalc/internal/server/router"
	marketsvc "github.com/mamadbah2/fusioncalc/internal/service/market"
	notifysvc "github.com/mamadbah2/fusioncalc/internal/service/notify"
	"github.com/mamadbah2/fusioncalc/internal/workshop"
	"github.com/mamadbah2/fusioncalc/pkg/clients/lostark"
	whatsappclient "github.com/mamadbah2/fusioncalc/pkg/clients/whatsapp"
	"github.com/mamadbah2/fusioncalc/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	cancelConnect()
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		baseLogger.Warn("failed to ensure mongodb indexes", zap.Error(err))
	}

	initial := loadWorkshopState(ctx, mongoRepo, cfg.Workshop.OwnerID, baseLogger)

	persister := workshop.NewPersister(mongoRepo, logger.Named(baseLogger, "workshop.persister"))
	hooks := workshop.Hooks{OnChange: persister.Enqueue}

	if cfg.Sheets.Enabled() {
		historySheet, err := sheets.NewHistorySheet(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter := sheets.NewHistoryExporter(historySheet, logger.Named(baseLogger, "repo.sheets.history"))
		hooks.OnCommit = exporter.ExportAsync
		hooks.OnResult = exporter.ExportAsync
		baseLogger.Info("history export to google sheets enabled")
	} else {
		baseLogger.Info("google sheets not configured, history export disabled")
	}

	if cfg.WhatsApp.Enabled() {
		notifier := notifysvc.NewCompletionNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.NotifyTo, logger.Named(baseLogger, "svc.notify"))
		hooks.OnComplete = notifier.NotifyAsync
		baseLogger.Info("whatsapp completion notifications enabled")
	} else {
		baseLogger.Info("whatsapp not configured, completion notifications disabled")
	}

	ws := workshop.New(initial, workshop.Options{
		Hooks:  hooks,
		Logger: logger.Named(baseLogger, "workshop"),
	})

	marketClient := lostark.NewClient(cfg.Market.BaseURL)
	market := marketsvc.NewService(marketClient, ws, cfg.Market.APIKey, logger.Named(baseLogger, "svc.market"))
	if cfg.Market.APIKey == "" {
		baseLogger.Warn("LOSTARK_API_KEY missing, crafting stays blocked until a key is set")
	}

	userDataHandler := handlers.NewUserDataHandler(mongoRepo, logger.Named(baseLogger, "handlers.userdata"))
	workshopHandler := handlers.NewWorkshopHandler(ws, market, logger.Named(baseLogger, "handlers.workshop"))
	engine := router.New(userDataHandler, workshopHandler, logger.Named(baseLogger, "router"))

	persistCtx, stopPersist := context.WithCancel(context.Background())
	persistDone := make(chan struct{})
	go func() {
		persister.Run(persistCtx)
		close(persistDone)
	}()

	sched := scheduler.NewScheduler(cfg.Scheduler, market, ws, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	go func() {
		if err := market.Refresh(ctx, false); err != nil && !errors.Is(err, marketsvc.ErrNoAPIKey) {
			baseLogger.Warn("initial price refresh failed", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("owner_id", cfg.Workshop.OwnerID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop()

	persister.Enqueue(ws.State())
	stopPersist()
	<-persistDone
}

// loadWorkshopState restores the owner's workshop, falling back to defaults
// when nothing was saved or the store is unreadable.
func loadWorkshopState(ctx context.Context, repo mongodb.Repository, ownerID string, log *zap.Logger) models.WorkshopState {
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := repo.LoadWorkshopState(loadCtx, ownerID)
	switch {
	case err == nil:
		log.Info("workshop state restored", zap.String("owner_id", ownerID), zap.Int("history", len(st.History)))
		st.OwnerID = ownerID
		return st
	case errors.Is(err, mongodb.ErrNotFound):
		log.Info("no saved workshop state, starting fresh", zap.String("owner_id", ownerID))
	default:
		log.Warn("failed to load workshop state, starting fresh", zap.String("owner_id", ownerID), zap.Error(err))
	}
	return models.DefaultWorkshopState(ownerID)
}
