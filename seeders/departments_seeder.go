package seeders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func seedDepartments(ctx context.Context, tx pgx.Tx, logger *zap.Logger) (uint64, error) {
	logger.Info("Наполнение таблицы 'departments'")
	return seedDepartment(ctx, tx, departmentsData, nil)
}

// seedDepartment создаёт узел и его поддерево; существующий узел с тем же
// именем у того же родителя переиспользуется.
func seedDepartment(ctx context.Context, tx pgx.Tx, node departmentSeed, parentID *uint64) (uint64, error) {
	var id uint64
	err := tx.QueryRow(ctx,
		`SELECT id FROM departments WHERE name = $1 AND parent_id IS NOT DISTINCT FROM $2 LIMIT 1`,
		node.Name, parentID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx,
			`INSERT INTO departments (name, parent_id) VALUES ($1, $2) RETURNING id`,
			node.Name, parentID,
		).Scan(&id)
	}
	if err != nil {
		return 0, err
	}

	for _, child := range node.Children {
		if _, err := seedDepartment(ctx, tx, child, &id); err != nil {
			return 0, err
		}
	}
	return id, nil
}
