package repositories

import (
	"context"
	"errors"
	"fmt"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	permissionTable   = "permissions"
	permissionColumns = "p.id, p.key, p.description, p.created_at, p.updated_at"
)

var permissionListSpec = listSpec{
	searchColumns: []string{"p.key", "p.description"},
	filterFields:  map[string]string{"id": "p.id", "key": "p.key"},
	sortFields:    map[string]string{"id": "p.id", "key": "p.key", "created_at": "p.created_at"},
	defaultSort:   "p.key ASC",
}

type PermissionRepositoryInterface interface {
	GetPermissions(ctx context.Context, filter types.Filter) ([]entities.Permission, uint64, error)
	FindPermission(ctx context.Context, id uint64) (*entities.Permission, error)
	FindByKey(ctx context.Context, key string) (*entities.Permission, error)
	CountByIDs(ctx context.Context, ids []uint64) (int, error)
	CreatePermission(ctx context.Context, permission entities.Permission) (*entities.Permission, error)
	UpdatePermission(ctx context.Context, id uint64, payload dto.UpdatePermissionDTO) (*entities.Permission, error)
	DeletePermission(ctx context.Context, id uint64) error

	LoadSources(ctx context.Context, employeeID uint64, maxDepth int) (authz.Subject, authz.Sources, error)
	GetOverrides(ctx context.Context, employeeID uint64) ([]entities.PermissionOverride, error)
	ReplaceOverridesInTx(ctx context.Context, tx pgx.Tx, employeeID uint64, overrides []entities.PermissionOverride) error
}

type PermissionRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewPermissionRepository(storage *pgxpool.Pool, logger *zap.Logger) PermissionRepositoryInterface {
	return &PermissionRepository{storage: storage, logger: logger}
}

func scanPermission(row pgx.Row) (*entities.Permission, error) {
	var p entities.Permission
	err := row.Scan(&p.ID, &p.Key, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования права: %w", err)
	}
	return &p, nil
}

func collectPermissions(rows pgx.Rows) ([]entities.Permission, error) {
	permissions := make([]entities.Permission, 0)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, *p)
	}
	return permissions, rows.Err()
}

func (r *PermissionRepository) GetPermissions(ctx context.Context, filter types.Filter) ([]entities.Permission, uint64, error) {
	countQuery, countArgs, err := permissionListSpec.where(psql.Select("COUNT(*)").From(permissionTable+" p"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета прав: %w", err)
	}
	if total == 0 {
		return []entities.Permission{}, 0, nil
	}

	b := permissionListSpec.where(psql.Select(permissionColumns).From(permissionTable+" p"), filter)
	query, args, err := page(permissionListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка прав: %w", err)
	}
	defer rows.Close()

	permissions, err := collectPermissions(rows)
	return permissions, total, err
}

func (r *PermissionRepository) FindPermission(ctx context.Context, id uint64) (*entities.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p WHERE p.id = $1`
	return scanPermission(r.storage.QueryRow(ctx, query, id))
}

func (r *PermissionRepository) FindByKey(ctx context.Context, key string) (*entities.Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p WHERE p.key = $1`
	return scanPermission(r.storage.QueryRow(ctx, query, key))
}

// CountByIDs: сколько из переданных id реально существует.
func (r *PermissionRepository) CountByIDs(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int
	err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE id = ANY($1)`, uniqueIDs(ids)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка проверки прав: %w", err)
	}
	return count, nil
}

func (r *PermissionRepository) CreatePermission(ctx context.Context, permission entities.Permission) (*entities.Permission, error) {
	query := `INSERT INTO permissions (key, description) VALUES ($1, $2)
		RETURNING id, key, description, created_at, updated_at`
	created, err := scanPermission(r.storage.QueryRow(ctx, query, permission.Key, permission.Description))
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

func (r *PermissionRepository) UpdatePermission(ctx context.Context, id uint64, payload dto.UpdatePermissionDTO) (*entities.Permission, error) {
	if !payload.Description.Valid {
		return r.FindPermission(ctx, id)
	}
	query, args, err := psql.Update(permissionTable).
		Set("description", payload.Description.String).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, key, description, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanPermission(r.storage.QueryRow(ctx, query, args...))
}

func (r *PermissionRepository) DeletePermission(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, "DELETE FROM permissions WHERE id = $1", id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LoadSources собирает всё, что нужно резолверу: ключи роли, цепочку департаментов
// (на один уровень глубже лимита, чтобы резолвер увидел обрезку), ключи департаментов
// и индивидуальные разрешения/запреты. Неактивный или удалённый сотрудник — ErrUserNotFound.
func (r *PermissionRepository) LoadSources(ctx context.Context, employeeID uint64, maxDepth int) (authz.Subject, authz.Sources, error) {
	subject := authz.Subject{EmployeeID: employeeID}
	src := authz.Sources{
		Departments:    make(map[uint64]authz.DepartmentNode),
		DepartmentKeys: make(map[uint64][]string),
	}

	err := r.storage.QueryRow(ctx,
		`SELECT role_id, department_id FROM employees WHERE id = $1 AND deleted_at IS NULL AND status_code = $2`,
		employeeID, constants.EmployeeStatusActive,
	).Scan(&subject.RoleID, &subject.DepartmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return subject, src, apperrors.ErrUserNotFound
	}
	if err != nil {
		return subject, src, fmt.Errorf("ошибка загрузки сотрудника: %w", err)
	}

	src.RoleKeys, err = r.queryKeys(ctx, `
		SELECT p.key FROM permissions p
		INNER JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1`, subject.RoleID)
	if err != nil {
		return subject, src, fmt.Errorf("ошибка загрузки прав роли: %w", err)
	}

	if subject.DepartmentID != nil && maxDepth > 0 {
		if err := r.loadDepartmentChain(ctx, *subject.DepartmentID, maxDepth, &src); err != nil {
			return subject, src, err
		}
	}

	rows, err := r.storage.Query(ctx, `
		SELECT p.key, o.effect FROM employee_permission_overrides o
		INNER JOIN permissions p ON p.id = o.permission_id
		WHERE o.employee_id = $1`, employeeID)
	if err != nil {
		return subject, src, fmt.Errorf("ошибка загрузки индивидуальных прав: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, effect string
		if err := rows.Scan(&key, &effect); err != nil {
			return subject, src, fmt.Errorf("ошибка сканирования индивидуального права: %w", err)
		}
		if effect == entities.OverrideDeny {
			src.EmployeeDenies = append(src.EmployeeDenies, key)
		} else {
			src.EmployeeGrants = append(src.EmployeeGrants, key)
		}
	}
	return subject, src, rows.Err()
}

func (r *PermissionRepository) loadDepartmentChain(ctx context.Context, departmentID uint64, maxDepth int, src *authz.Sources) error {
	rows, err := r.storage.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id, 1 AS depth FROM departments WHERE id = $1
			UNION ALL
			SELECT d.id, d.parent_id, c.depth + 1
			FROM departments d
			INNER JOIN chain c ON d.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT DISTINCT id, parent_id FROM chain`, departmentID, maxDepth+1)
	if err != nil {
		return fmt.Errorf("ошибка загрузки цепочки департаментов: %w", err)
	}
	ids := make([]uint64, 0)
	for rows.Next() {
		var node authz.DepartmentNode
		if err := rows.Scan(&node.ID, &node.ParentID); err != nil {
			rows.Close()
			return fmt.Errorf("ошибка сканирования департамента: %w", err)
		}
		src.Departments[node.ID] = node
		ids = append(ids, node.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	keyRows, err := r.storage.Query(ctx, `
		SELECT dp.department_id, p.key FROM department_permissions dp
		INNER JOIN permissions p ON p.id = dp.permission_id
		WHERE dp.department_id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("ошибка загрузки прав департаментов: %w", err)
	}
	defer keyRows.Close()
	for keyRows.Next() {
		var deptID uint64
		var key string
		if err := keyRows.Scan(&deptID, &key); err != nil {
			return fmt.Errorf("ошибка сканирования права департамента: %w", err)
		}
		src.DepartmentKeys[deptID] = append(src.DepartmentKeys[deptID], key)
	}
	return keyRows.Err()
}

func (r *PermissionRepository) queryKeys(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *PermissionRepository) GetOverrides(ctx context.Context, employeeID uint64) ([]entities.PermissionOverride, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT o.employee_id, o.permission_id, p.key, o.effect
		FROM employee_permission_overrides o
		INNER JOIN permissions p ON p.id = o.permission_id
		WHERE o.employee_id = $1
		ORDER BY p.key`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения индивидуальных прав: %w", err)
	}
	defer rows.Close()

	overrides := make([]entities.PermissionOverride, 0)
	for rows.Next() {
		var o entities.PermissionOverride
		if err := rows.Scan(&o.EmployeeID, &o.PermissionID, &o.PermissionKey, &o.Effect); err != nil {
			return nil, fmt.Errorf("ошибка сканирования индивидуального права: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// ReplaceOverridesInTx заменяет весь набор индивидуальных прав сотрудника.
// Повтор permission_id схлопывается: побеждает последнее значение.
func (r *PermissionRepository) ReplaceOverridesInTx(ctx context.Context, tx pgx.Tx, employeeID uint64, overrides []entities.PermissionOverride) error {
	if _, err := tx.Exec(ctx, "DELETE FROM employee_permission_overrides WHERE employee_id = $1", employeeID); err != nil {
		return fmt.Errorf("ошибка удаления индивидуальных прав: %w", err)
	}
	if len(overrides) == 0 {
		return nil
	}

	effects := make(map[uint64]string, len(overrides))
	order := make([]uint64, 0, len(overrides))
	for _, o := range overrides {
		if _, ok := effects[o.PermissionID]; !ok {
			order = append(order, o.PermissionID)
		}
		effects[o.PermissionID] = o.Effect
	}

	b := psql.Insert("employee_permission_overrides").Columns("employee_id", "permission_id", "effect")
	for _, permID := range order {
		b = b.Values(employeeID, permID, effects[permID])
	}
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return mapPgError(err)
	}
	return nil
}
