package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sriRacha21/rct-backend/internal/config"
	"github.com/sriRacha21/rct-backend/internal/logger"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rct-backend",
		Short:         "Course tracker backend: open-seat notifier and catalog harvester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newNotifyCmd())
	cmd.AddCommand(newHarvestCmd())
	return cmd
}

// bootstrap loads config and builds the logger shared by every
// subcommand.
func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return cfg, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
