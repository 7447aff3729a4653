package seeders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// seedAdmin создаёт администратора в корневом департаменте и возвращает его id.
func seedAdmin(ctx context.Context, tx pgx.Tx, rootDepartmentID uint64, logger *zap.Logger) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx,
		`SELECT id FROM employees WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL`,
		adminEmail,
	).Scan(&id)
	if err == nil {
		logger.Info("Администратор уже существует, пропускаем", zap.Uint64("employee_id", id))
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	var roleID uint64
	if err := tx.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, adminRoleName).Scan(&roleID); err != nil {
		return 0, fmt.Errorf("не найдена роль %q: %w", adminRoleName, err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO employees (full_name, email, role_id, department_id, status_code)
		 VALUES ($1, $2, $3, $4, 'ACTIVE') RETURNING id`,
		adminFullName, adminEmail, roleID, rootDepartmentID,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	logger.Info("Создан администратор", zap.Uint64("employee_id", id), zap.String("email", adminEmail))
	return id, nil
}
