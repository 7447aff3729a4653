package main

import (
	"fmt"

	"facility-crm/pkg/database/postgresql"
	"facility-crm/seeders"

	"github.com/spf13/cobra"
)

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Наполнить справочник прав, роли, оргструктуру и администратора",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := postgresql.ConnectDB(e.cfg.Postgres.DSN, e.logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			res, err := seeders.Run(cmd.Context(), pool, e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin_id=%d root_department_id=%d\n", res.AdminID, res.RootDepartmentID)
			return nil
		},
	}
}
