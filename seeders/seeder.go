package seeders

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Result struct {
	AdminID          uint64
	RootDepartmentID uint64
}

// Run наполняет справочник прав, роли, оргструктуру и администратора.
// Повторный запуск ничего не дублирует.
func Run(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) (*Result, error) {
	logger.Info("Запуск сидеров")

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := seedPermissions(ctx, tx, logger); err != nil {
		return nil, err
	}
	if err := seedRoles(ctx, tx, logger); err != nil {
		return nil, err
	}
	rootID, err := seedDepartments(ctx, tx, logger)
	if err != nil {
		return nil, err
	}
	adminID, err := seedAdmin(ctx, tx, rootID, logger)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	logger.Info("Сидеры завершены", zap.Uint64("admin_id", adminID), zap.Uint64("root_department_id", rootID))
	return &Result{AdminID: adminID, RootDepartmentID: rootID}, nil
}
