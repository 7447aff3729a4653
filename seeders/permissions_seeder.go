package seeders

import (
	"context"
	"sort"

	"facility-crm/internal/authz"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// true - обновить описание, если право с таким ключом уже существует.
// false - пропустить существующее право.
const updateIfExistsPermissions = true

func seedPermissions(ctx context.Context, tx pgx.Tx, logger *zap.Logger) error {
	logger.Info("Наполнение таблицы 'permissions'", zap.Int("count", len(authz.Catalog)))

	query := `INSERT INTO permissions (key, description) VALUES ($1, $2)
			  ON CONFLICT (key) DO NOTHING`
	if updateIfExistsPermissions {
		query = `INSERT INTO permissions (key, description) VALUES ($1, $2)
				 ON CONFLICT (key) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()`
	}

	keys := make([]string, 0, len(authz.Catalog))
	for key := range authz.Catalog {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := tx.Exec(ctx, query, key, authz.Catalog[key]); err != nil {
			return err
		}
	}
	return nil
}
