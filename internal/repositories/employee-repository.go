package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	employeeTable = "employees"
	employeeFrom  = `employees e
		LEFT JOIN roles r ON r.id = e.role_id
		LEFT JOIN departments d ON d.id = e.department_id
		LEFT JOIN positions p ON p.id = e.position_id`
)

const employeeColumns = `e.id, e.full_name, e.email, e.phone, e.role_id, e.department_id, e.position_id,
	e.status_code, e.created_at, e.updated_at, e.deleted_at, r.name, d.name, p.name`

var employeeListSpec = listSpec{
	searchColumns: []string{"e.full_name", "e.email", "e.phone"},
	filterFields: map[string]string{
		"id":            "e.id",
		"role_id":       "e.role_id",
		"department_id": "e.department_id",
		"position_id":   "e.position_id",
		"status_code":   "e.status_code",
	},
	sortFields:  map[string]string{"id": "e.id", "full_name": "e.full_name", "email": "e.email", "created_at": "e.created_at"},
	defaultSort: "e.full_name ASC",
}

type EmployeeRepositoryInterface interface {
	GetEmployees(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error)
	FindEmployee(ctx context.Context, id uint64) (*entities.Employee, error)
	FindByEmail(ctx context.Context, email string) (*entities.Employee, error)
	CreateEmployee(ctx context.Context, employee entities.Employee) (*entities.Employee, error)
	UpdateEmployee(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*entities.Employee, error)
	DeleteEmployee(ctx context.Context, id uint64) error
	FindShortByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error)
}

type EmployeeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEmployeeRepository(storage *pgxpool.Pool, logger *zap.Logger) EmployeeRepositoryInterface {
	return &EmployeeRepository{storage: storage, logger: logger}
}

func scanEmployee(row pgx.Row) (*entities.Employee, error) {
	var e entities.Employee
	err := row.Scan(
		&e.ID, &e.FullName, &e.Email, &e.Phone, &e.RoleID, &e.DepartmentID, &e.PositionID,
		&e.StatusCode, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.RoleName, &e.DepartmentName, &e.PositionName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования сотрудника: %w", err)
	}
	return &e, nil
}

func (r *EmployeeRepository) GetEmployees(ctx context.Context, filter types.Filter) ([]entities.Employee, uint64, error) {
	base := psql.Select("COUNT(e.id)").From(employeeFrom).Where(sq.Eq{"e.deleted_at": nil})
	countQuery, countArgs, err := employeeListSpec.where(base, filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета сотрудников: %w", err)
	}
	if total == 0 {
		return []entities.Employee{}, 0, nil
	}

	b := employeeListSpec.where(psql.Select(employeeColumns).From(employeeFrom).Where(sq.Eq{"e.deleted_at": nil}), filter)
	query, args, err := page(employeeListSpec.order(b, filter), filter).ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка сотрудников: %w", err)
	}
	defer rows.Close()

	employees := make([]entities.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, *e)
	}
	return employees, total, rows.Err()
}

func (r *EmployeeRepository) FindEmployee(ctx context.Context, id uint64) (*entities.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM ` + employeeFrom + ` WHERE e.id = $1 AND e.deleted_at IS NULL`
	return scanEmployee(r.storage.QueryRow(ctx, query, id))
}

func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*entities.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM ` + employeeFrom + ` WHERE LOWER(e.email) = $1 AND e.deleted_at IS NULL`
	return scanEmployee(r.storage.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *EmployeeRepository) CreateEmployee(ctx context.Context, employee entities.Employee) (*entities.Employee, error) {
	var id uint64
	err := r.storage.QueryRow(ctx, `
		INSERT INTO employees (full_name, email, phone, role_id, department_id, position_id, status_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		employee.FullName, strings.TrimSpace(employee.Email), employee.Phone, employee.RoleID,
		employee.DepartmentID, employee.PositionID, employee.StatusCode,
	).Scan(&id)
	if err != nil {
		return nil, mapPgError(err)
	}
	return r.FindEmployee(ctx, id)
}

func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*entities.Employee, error) {
	b := psql.Update(employeeTable).
		Where(sq.Eq{"id": id, "deleted_at": nil}).
		Set("updated_at", sq.Expr("NOW()"))
	hasChanges := false
	set := func(column string, value interface{}) {
		b = b.Set(column, value)
		hasChanges = true
	}

	if payload.FullName.Valid {
		set("full_name", payload.FullName.String)
	}
	if payload.Email.Valid {
		set("email", strings.TrimSpace(payload.Email.String))
	}
	if payload.Phone.Valid {
		set("phone", payload.Phone.String)
	} else if payload.Sent.IsNull("phone") {
		set("phone", nil)
	}
	if payload.RoleID.Valid {
		set("role_id", payload.RoleID.Uint64)
	}
	if payload.DepartmentID.Valid {
		set("department_id", payload.DepartmentID.Uint64)
	} else if payload.Sent.IsNull("department_id") {
		set("department_id", nil)
	}
	if payload.PositionID.Valid {
		set("position_id", payload.PositionID.Uint64)
	} else if payload.Sent.IsNull("position_id") {
		set("position_id", nil)
	}
	if payload.StatusCode.Valid {
		set("status_code", payload.StatusCode.String)
	}
	if !hasChanges {
		return r.FindEmployee(ctx, id)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return r.FindEmployee(ctx, id)
}

// DeleteEmployee: мягкое удаление; индивидуальные права удаляются сразу.
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, id uint64) error {
	result, err := r.storage.Exec(ctx,
		`UPDATE employees SET deleted_at = NOW(), status_code = 'INACTIVE', updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	if _, err := r.storage.Exec(ctx, `DELETE FROM employee_permission_overrides WHERE employee_id = $1`, id); err != nil {
		r.logger.Warn("не удалось удалить индивидуальные права", zap.Uint64("employee_id", id), zap.Error(err))
	}
	return nil
}

// FindShortByIDs возвращает ФИО по id, включая удалённых (для истории).
func (r *EmployeeRepository) FindShortByIDs(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	names := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.storage.Query(ctx, `SELECT id, full_name FROM employees WHERE id = ANY($1)`, uniqueIDs(ids))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения сотрудников: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
