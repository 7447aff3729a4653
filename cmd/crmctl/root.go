package main

import (
	"facility-crm/pkg/config"
	applogger "facility-crm/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env: общее окружение подкоманд: конфиг и логгер создаются один раз.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:          "crmctl",
		Short:        "Служебные команды facility-crm: миграции, сидеры, токены",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.cfg = config.New()
			e.logger = applogger.NewLogger(e.cfg.Log)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = e.logger.Sync()
		},
	}
	cmd.AddCommand(newMigrateCmd(e), newSeedCmd(e), newTokenCmd(e))
	return cmd
}
