package services

import (
	"context"
	"strings"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"go.uber.org/zap"
)

type EmployeeServiceInterface interface {
	GetEmployees(ctx context.Context, filter types.Filter) ([]dto.EmployeeDTO, uint64, error)
	FindEmployee(ctx context.Context, id uint64) (*dto.EmployeeDTO, error)
	CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error)
	UpdateEmployee(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*dto.EmployeeDTO, error)
	DeleteEmployee(ctx context.Context, id uint64) error
}

type EmployeeService struct {
	employeeRepo    repositories.EmployeeRepositoryInterface
	authPermissions AuthPermissionServiceInterface
	logger          *zap.Logger
}

func NewEmployeeService(
	employeeRepo repositories.EmployeeRepositoryInterface,
	authPermissions AuthPermissionServiceInterface,
	logger *zap.Logger,
) EmployeeServiceInterface {
	return &EmployeeService{
		employeeRepo:    employeeRepo,
		authPermissions: authPermissions,
		logger:          logger,
	}
}

func (s *EmployeeService) GetEmployees(ctx context.Context, filter types.Filter) ([]dto.EmployeeDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.EmployeesView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.employeeRepo.GetEmployees(ctx, filter)
	if err != nil {
		s.logger.Error("EmployeeService: ошибка получения списка сотрудников", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, employeeToDTO), total, nil
}

// authorize грузит сотрудника и проверяет право над ним (ABAC по иерархии).
func (s *EmployeeService) authorize(ctx context.Context, id uint64, permission string) (*authz.Context, *entities.Employee, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.employeeRepo.FindEmployee(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	authCtx.Target = target
	if !authz.CanDo(permission, *authCtx) {
		s.logger.Warn("Отказано в доступе к сотруднику",
			zap.Uint64("actor_id", authCtx.Actor.ID),
			zap.Uint64("employee_id", id),
			zap.String("permission", permission),
		)
		return nil, nil, apperrors.ErrForbidden
	}
	return authCtx, target, nil
}

func (s *EmployeeService) FindEmployee(ctx context.Context, id uint64) (*dto.EmployeeDTO, error) {
	_, target, err := s.authorize(ctx, id, authz.EmployeesView)
	if err != nil {
		return nil, err
	}
	return employeeToDTO(target), nil
}

func (s *EmployeeService) CreateEmployee(ctx context.Context, payload dto.CreateEmployeeDTO) (*dto.EmployeeDTO, error) {
	actorID, err := checkPermission(ctx, authz.EmployeesCreate, s.logger)
	if err != nil {
		return nil, err
	}
	employee := entities.Employee{
		FullName:     strings.TrimSpace(payload.FullName),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		RoleID:       payload.RoleID,
		DepartmentID: payload.DepartmentID,
		PositionID:   payload.PositionID,
		StatusCode:   payload.StatusCode,
	}
	if employee.StatusCode == "" {
		employee.StatusCode = constants.EmployeeStatusActive
	}
	if payload.Phone != nil {
		employee.Phone = utils.ToPtr(utils.NormalizePhone(*payload.Phone))
	}

	created, err := s.employeeRepo.CreateEmployee(ctx, employee)
	if err != nil {
		s.logger.Error("EmployeeService: ошибка создания сотрудника", zap.String("email", employee.Email), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Сотрудник создан", zap.Uint64("employee_id", created.ID), zap.Uint64("actor_id", actorID))
	return employeeToDTO(created), nil
}

// UpdateEmployee: роль, департамент и статус влияют на права, их меняет только employees:permissions.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, id uint64, payload dto.UpdateEmployeeDTO) (*dto.EmployeeDTO, error) {
	authCtx, current, err := s.authorize(ctx, id, authz.EmployeesUpdate)
	if err != nil {
		return nil, err
	}

	accessChanged := (payload.RoleID.Valid && payload.RoleID.Uint64 != current.RoleID) ||
		(payload.DepartmentID.Valid && utils.DiffPtr(current.DepartmentID, &payload.DepartmentID.Uint64)) ||
		(payload.Sent.IsNull("department_id") && current.DepartmentID != nil) ||
		(payload.StatusCode.Valid && payload.StatusCode.String != current.StatusCode)
	if accessChanged && !authz.CanDo(authz.EmployeesPermissions, authz.Context{Permissions: authCtx.Permissions}) {
		return nil, apperrors.ErrForbidden
	}

	if payload.Email.Valid {
		payload.Email.String = strings.ToLower(strings.TrimSpace(payload.Email.String))
	}
	if payload.Phone.Valid {
		payload.Phone.String = utils.NormalizePhone(payload.Phone.String)
	}

	updated, err := s.employeeRepo.UpdateEmployee(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	if accessChanged {
		invalidateEmployee(ctx, s.authPermissions, id)
		s.logger.Info("Изменены атрибуты доступа сотрудника",
			zap.Uint64("employee_id", id),
			zap.Uint64("role_id", updated.RoleID),
			zap.Uint64p("department_id", updated.DepartmentID),
			zap.String("status", updated.StatusCode),
			zap.Uint64("actor_id", authCtx.Actor.ID),
		)
	}
	return employeeToDTO(updated), nil
}

// DeleteEmployee: мягкое удаление; удалить самого себя нельзя.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uint64) error {
	authCtx, _, err := s.authorize(ctx, id, authz.EmployeesDelete)
	if err != nil {
		return err
	}
	if authCtx.Actor.ID == id {
		return apperrors.NewInvalidInputError("Нельзя удалить собственную учётную запись")
	}
	if err := s.employeeRepo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	invalidateEmployee(ctx, s.authPermissions, id)
	s.logger.Info("Сотрудник удалён", zap.Uint64("employee_id", id), zap.Uint64("actor_id", authCtx.Actor.ID))
	return nil
}
