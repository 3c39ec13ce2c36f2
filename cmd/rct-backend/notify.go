package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/cache"
	"github.com/sriRacha21/rct-backend/internal/config"
	"github.com/sriRacha21/rct-backend/internal/handlers"
	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/notify"
	"github.com/sriRacha21/rct-backend/internal/repository"
	"github.com/sriRacha21/rct-backend/internal/scheduler"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run the open-seat reconciliation loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runNotify(cmd.Context(), cfg, log)
		},
	}
}

func runNotify(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := config.NewClients(ctx, cfg)
	if err != nil {
		return err
	}
	defer clients.Close()
	log.Info("firebase ready")

	trackerRepo := repository.NewTrackerRepository(clients.Firestore, log)
	userRepo := repository.NewUserRepository(clients.Firestore)

	// The cache must hold the full active set before the first cycle.
	trackerCache := cache.New(log)
	initial, err := trackerRepo.ListActive(ctx)
	if err != nil {
		return err
	}
	trackerCache.Populate(initial)
	log.Info("tracker cache populated", zap.Int("trackers", len(initial)))

	go func() {
		if err := trackerRepo.Watch(ctx, trackerCache.Replace); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("tracker change feed stopped", zap.Error(err))
		}
	}()

	window, err := scheduler.NewWindow(cfg.QuietStart, cfg.QuietEnd)
	if err != nil {
		return err
	}

	var terms scheduler.TermSource
	if cfg.SeasonOverride != "" {
		season, err := models.ParseSeason(cfg.SeasonOverride)
		if err != nil {
			return err
		}
		terms = scheduler.StaticTermSource{Season: season}
	} else {
		terms = scheduler.FileTermSource{Path: cfg.SeasonFile}
	}

	// Fetch timeout stays below the poll interval so a hung upstream
	// call cannot outlast its cycle.
	fetchTimeout := cfg.PollInterval - time.Second
	if fetchTimeout <= 0 {
		fetchTimeout = cfg.PollInterval
	}
	socClient := soc.NewClient(cfg.SOCBaseURL, cfg.Campus, cfg.Level, fetchTimeout)

	sender := notify.NewFCMSender(clients.Messaging, log)
	engine := notify.NewEngine(userRepo, trackerRepo, sender, log)
	poller := scheduler.NewPoller(trackerCache, socClient, engine, terms, window, cfg.PollInterval, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handlers.NewRouter(poller),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
		}
	}()

	poller.Run(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
	}
	return nil
}
