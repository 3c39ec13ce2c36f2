package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sriRacha21/rct-backend/internal/config"
	"github.com/sriRacha21/rct-backend/internal/harvest"
	"github.com/sriRacha21/rct-backend/internal/models"
	"github.com/sriRacha21/rct-backend/internal/repository"
	"github.com/sriRacha21/rct-backend/internal/scheduler"
	"github.com/sriRacha21/rct-backend/internal/soc"
)

func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Mirror the SOC catalog into per-season index documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx := cmd.Context()
			clients, err := config.NewClients(ctx, cfg)
			if err != nil {
				return err
			}
			defer clients.Close()

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
			season, _, err := terms.Resolve(time.Now())
			if err != nil {
				return err
			}

			socClient := soc.NewClient(cfg.SOCBaseURL, cfg.Campus, cfg.Level, 30*time.Second)
			courseRepo := repository.NewCourseRepository(clients.Firestore, log)
			job := harvest.NewJob(socClient, courseRepo, log)
			return job.Run(ctx, season)
		},
	}
}
