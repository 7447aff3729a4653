package main

import (
	"fmt"

	"facility-crm/pkg/service"

	"github.com/spf13/cobra"
)

// Вход по паролю не реализован: токен для разработки выдаётся этой командой.
func newTokenCmd(e *env) *cobra.Command {
	var employeeID uint64

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить access-токен для сотрудника (только для разработки)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if employeeID == 0 {
				return fmt.Errorf("--employee должен быть больше нуля")
			}
			jwtSvc := service.NewJWTService(e.cfg.JWT.SecretKey, e.cfg.JWT.AccessTokenTTL, e.logger)
			token, err := jwtSvc.GenerateAccessToken(employeeID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&employeeID, "employee", 0, "ID сотрудника (обязательно)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}
