package seeders

import (
	"context"
	"fmt"
	"strings"

	"facility-crm/internal/authz"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func seedRoles(ctx context.Context, tx pgx.Tx, logger *zap.Logger) error {
	logger.Info("Наполнение таблицы 'roles'", zap.Int("count", len(rolesData)))

	for _, r := range rolesData {
		var roleID uint64
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description) VALUES ($1, $2)
			 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()
			 RETURNING id`,
			r.Name, r.Description,
		).Scan(&roleID)
		if err != nil {
			return fmt.Errorf("роль %q: %w", r.Name, err)
		}

		keys := expandKeys(r.Permissions)
		_, err = tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id)
			 SELECT $1, id FROM permissions WHERE key = ANY($2)
			 ON CONFLICT DO NOTHING`,
			roleID, keys,
		)
		if err != nil {
			return fmt.Errorf("права роли %q: %w", r.Name, err)
		}
	}
	return nil
}

// expandKeys раскрывает "ресурс:*" в конкретные ключи каталога.
// В справочнике прав хранятся только конкретные ключи.
func expandKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		resource, ok := strings.CutSuffix(key, ":"+authz.Wildcard)
		if !ok {
			out = append(out, key)
			continue
		}
		for catalogKey := range authz.Catalog {
			if strings.HasPrefix(catalogKey, resource+":") {
				out = append(out, catalogKey)
			}
		}
	}
	return out
}
