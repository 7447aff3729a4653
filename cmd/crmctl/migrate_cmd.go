package main

import (
	"fmt"

	"facility-crm/migrations"
	"facility-crm/pkg/database/postgresql"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(e *env) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить встроенные миграции (или откатить последнюю с --down)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := postgresql.ConnectDB(e.cfg.Postgres.DSN, e.logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			db := stdlib.OpenDBFromPool(pool)
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("goose: %w", err)
			}

			if down {
				if err := goose.DownContext(cmd.Context(), db, "."); err != nil {
					return fmt.Errorf("откат миграции: %w", err)
				}
			} else if err := goose.UpContext(cmd.Context(), db, "."); err != nil {
				return fmt.Errorf("применение миграций: %w", err)
			}

			version, err := goose.GetDBVersionContext(cmd.Context(), db)
			if err != nil {
				return err
			}
			e.logger.Info("Миграции выполнены", zap.Int64("version", version), zap.Bool("down", down))
			return nil
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Откатить последнюю миграцию")
	return cmd
}
