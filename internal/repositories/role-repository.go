package repositories

import (
	"context"
	"errors"
	"fmt"

	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	roleTable   = "roles"
	roleColumns = "r.id, r.name, r.description, r.created_at, r.updated_at"
)

var roleListSpec = listSpec{
	searchColumns: []string{"r.name", "r.description"},
	filterFields:  map[string]string{"id": "r.id"},
	sortFields:    map[string]string{"id": "r.id", "name": "r.name", "created_at": "r.created_at"},
	defaultSort:   "r.id ASC",
}

type RoleRepositoryInterface interface {
	GetRoles(ctx context.Context, filter types.Filter) ([]entities.Role, uint64, error)
	FindRole(ctx context.Context, id uint64) (*entities.Role, error)
	CreateRoleInTx(ctx context.Context, tx pgx.Tx, role entities.Role) (*entities.Role, error)
	UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*entities.Role, error)
	DeleteRole(ctx context.Context, id uint64) error
	GetRolePermissions(ctx context.Context, roleID uint64) ([]entities.Permission, error)
	ReplaceRolePermissionsInTx(ctx context.Context, tx pgx.Tx, roleID uint64, permissionIDs []uint64) error
}

type RoleRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRoleRepository(storage *pgxpool.Pool, logger *zap.Logger) RoleRepositoryInterface {
	return &RoleRepository{storage: storage, logger: logger}
}

func scanRole(row pgx.Row) (*entities.Role, error) {
	var r entities.Role
	err := row.Scan(&r.ID, &r.Name, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования роли: %w", err)
	}
	return &r, nil
}

func (r *RoleRepository) GetRoles(ctx context.Context, filter types.Filter) ([]entities.Role, uint64, error) {
	countQuery, countArgs, err := roleListSpec.where(psql.Select("COUNT(*)").From(roleTable+" r"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета ролей: %w", err)
	}
	if total == 0 {
		return []entities.Role{}, 0, nil
	}

	b := roleListSpec.where(psql.Select(roleColumns).From(roleTable+" r"), filter)
	query, args, err := page(roleListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка ролей: %w", err)
	}
	defer rows.Close()

	roles := make([]entities.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, *role)
	}
	return roles, total, rows.Err()
}

func (r *RoleRepository) FindRole(ctx context.Context, id uint64) (*entities.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.id = $1`
	return scanRole(r.storage.QueryRow(ctx, query, id))
}

func (r *RoleRepository) CreateRoleInTx(ctx context.Context, tx pgx.Tx, role entities.Role) (*entities.Role, error) {
	query := `INSERT INTO roles (name, description) VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`
	created, err := scanRole(pick(r.storage, tx).QueryRow(ctx, query, role.Name, role.Description))
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

func (r *RoleRepository) UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*entities.Role, error) {
	b := psql.Update(roleTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.Description.Valid {
		b = b.Set("description", payload.Description.String)
		hasChanges = true
	} else if payload.Sent.IsNull("description") {
		b = b.Set("description", nil)
		hasChanges = true
	}
	if !hasChanges {
		return r.FindRole(ctx, id)
	}

	query, args, err := b.Suffix("RETURNING id, name, description, created_at, updated_at").ToSql()
	if err != nil {
		return nil, err
	}
	role, err := scanRole(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return role, nil
}

func (r *RoleRepository) DeleteRole(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, "DELETE FROM roles WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) GetRolePermissions(ctx context.Context, roleID uint64) ([]entities.Permission, error) {
	query := `
		SELECT p.id, p.key, p.description, p.created_at, p.updated_at
		FROM permissions p
		INNER JOIN role_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.key`
	rows, err := r.storage.Query(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения прав для роли: %w", err)
	}
	defer rows.Close()
	return collectPermissions(rows)
}

// ReplaceRolePermissionsInTx полностью заменяет набор прав роли.
func (r *RoleRepository) ReplaceRolePermissionsInTx(ctx context.Context, tx pgx.Tx, roleID uint64, permissionIDs []uint64) error {
	if _, err := tx.Exec(ctx, "DELETE FROM role_permissions WHERE role_id = $1", roleID); err != nil {
		return fmt.Errorf("ошибка удаления прав роли: %w", err)
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(permissionIDs))
	for _, permID := range uniqueIDs(permissionIDs) {
		rows = append(rows, []interface{}{roleID, permID})
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"role_permissions"}, []string{"role_id", "permission_id"}, pgx.CopyFromRows(rows))
	if err != nil {
		return mapPgError(err)
	}
	return nil
}
