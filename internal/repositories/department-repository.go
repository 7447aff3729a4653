package repositories

import (
	"context"
	"errors"
	"fmt"

	"facility-crm/internal/authz"
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
	departmentTable   = "departments"
	departmentColumns = "d.id, d.name, d.parent_id, d.head_employee_id, d.created_at, d.updated_at"
	departmentReturn  = "RETURNING id, name, parent_id, head_employee_id, created_at, updated_at"
)

var departmentListSpec = listSpec{
	searchColumns: []string{"d.name"},
	filterFields:  map[string]string{"id": "d.id", "parent_id": "d.parent_id", "head_employee_id": "d.head_employee_id"},
	sortFields:    map[string]string{"id": "d.id", "name": "d.name", "created_at": "d.created_at"},
	defaultSort:   "d.name ASC",
}

type DepartmentRepositoryInterface interface {
	GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error)
	FindDepartment(ctx context.Context, id uint64) (*entities.Department, error)
	CreateDepartment(ctx context.Context, department entities.Department) (*entities.Department, error)
	UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*entities.Department, error)
	DeleteDepartment(ctx context.Context, id uint64) error
	GetAllNodes(ctx context.Context) (map[uint64]authz.DepartmentNode, error)
	GetDepartmentPermissions(ctx context.Context, departmentID uint64) ([]entities.Permission, error)
	ReplaceDepartmentPermissionsInTx(ctx context.Context, tx pgx.Tx, departmentID uint64, permissionIDs []uint64) error
}

type DepartmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewDepartmentRepository(storage *pgxpool.Pool, logger *zap.Logger) DepartmentRepositoryInterface {
	return &DepartmentRepository{storage: storage, logger: logger}
}

func scanDepartment(row pgx.Row) (*entities.Department, error) {
	var d entities.Department
	err := row.Scan(&d.ID, &d.Name, &d.ParentID, &d.HeadEmployeeID, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования department: %w", err)
	}
	return &d, nil
}

func (r *DepartmentRepository) GetDepartments(ctx context.Context, filter types.Filter) ([]entities.Department, uint64, error) {
	countQuery, countArgs, err := departmentListSpec.where(psql.Select("COUNT(*)").From(departmentTable+" d"), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета департаментов: %w", err)
	}
	if total == 0 {
		return []entities.Department{}, 0, nil
	}

	b := departmentListSpec.where(psql.Select(departmentColumns).From(departmentTable+" d"), filter)
	query, args, err := page(departmentListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка департаментов: %w", err)
	}
	defer rows.Close()

	departments := make([]entities.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, 0, err
		}
		departments = append(departments, *d)
	}
	return departments, total, rows.Err()
}

func (r *DepartmentRepository) FindDepartment(ctx context.Context, id uint64) (*entities.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments d WHERE d.id = $1`
	return scanDepartment(r.storage.QueryRow(ctx, query, id))
}

func (r *DepartmentRepository) CreateDepartment(ctx context.Context, department entities.Department) (*entities.Department, error) {
	query := `INSERT INTO departments (name, parent_id, head_employee_id) VALUES ($1, $2, $3) ` + departmentReturn
	created, err := scanDepartment(r.storage.QueryRow(ctx, query, department.Name, department.ParentID, department.HeadEmployeeID))
	if err != nil {
		return nil, mapPgError(err)
	}
	return created, nil
}

func (r *DepartmentRepository) UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*entities.Department, error) {
	b := psql.Update(departmentTable).Where(sq.Eq{"id": id}).Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	if payload.Name.Valid {
		b = b.Set("name", payload.Name.String)
		hasChanges = true
	}
	if payload.ParentID.Valid {
		b = b.Set("parent_id", payload.ParentID.Uint64)
		hasChanges = true
	} else if payload.Sent.IsNull("parent_id") {
		b = b.Set("parent_id", nil)
		hasChanges = true
	}
	if payload.HeadEmployeeID.Valid {
		b = b.Set("head_employee_id", payload.HeadEmployeeID.Uint64)
		hasChanges = true
	} else if payload.Sent.IsNull("head_employee_id") {
		b = b.Set("head_employee_id", nil)
		hasChanges = true
	}
	if !hasChanges {
		return r.FindDepartment(ctx, id)
	}

	query, args, err := b.Suffix(departmentReturn).ToSql()
	if err != nil {
		return nil, err
	}
	d, err := scanDepartment(r.storage.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return d, nil
}

// DeleteDepartment: департамент с дочерними не удаляется (FK RESTRICT → ErrConflict).
func (r *DepartmentRepository) DeleteDepartment(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetAllNodes: всё дерево в виде id → parent_id для проверок иерархии.
func (r *DepartmentRepository) GetAllNodes(ctx context.Context) (map[uint64]authz.DepartmentNode, error) {
	rows, err := r.storage.Query(ctx, `SELECT id, parent_id FROM departments`)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки дерева департаментов: %w", err)
	}
	defer rows.Close()

	nodes := make(map[uint64]authz.DepartmentNode)
	for rows.Next() {
		var node authz.DepartmentNode
		if err := rows.Scan(&node.ID, &node.ParentID); err != nil {
			return nil, fmt.Errorf("ошибка сканирования департамента: %w", err)
		}
		nodes[node.ID] = node
	}
	return nodes, rows.Err()
}

func (r *DepartmentRepository) GetDepartmentPermissions(ctx context.Context, departmentID uint64) ([]entities.Permission, error) {
	rows, err := r.storage.Query(ctx, `
		SELECT p.id, p.key, p.description, p.created_at, p.updated_at
		FROM permissions p
		INNER JOIN department_permissions dp ON p.id = dp.permission_id
		WHERE dp.department_id = $1
		ORDER BY p.key`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения прав департамента: %w", err)
	}
	defer rows.Close()
	return collectPermissions(rows)
}

func (r *DepartmentRepository) ReplaceDepartmentPermissionsInTx(ctx context.Context, tx pgx.Tx, departmentID uint64, permissionIDs []uint64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM department_permissions WHERE department_id = $1`, departmentID); err != nil {
		return fmt.Errorf("ошибка удаления прав департамента: %w", err)
	}
	if len(permissionIDs) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(permissionIDs))
	for _, permID := range uniqueIDs(permissionIDs) {
		rows = append(rows, []interface{}{departmentID, permID})
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"department_permissions"}, []string{"department_id", "permission_id"}, pgx.CopyFromRows(rows))
	if err != nil {
		return mapPgError(err)
	}
	return nil
}
