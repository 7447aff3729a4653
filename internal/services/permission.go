package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PermissionServiceInterface interface {
	GetPermissions(ctx context.Context, filter types.Filter) ([]dto.PermissionDTO, uint64, error)
	FindPermission(ctx context.Context, id uint64) (*dto.PermissionDTO, error)
	CreatePermission(ctx context.Context, payload dto.CreatePermissionDTO) (*dto.PermissionDTO, error)
	UpdatePermission(ctx context.Context, id uint64, payload dto.UpdatePermissionDTO) (*dto.PermissionDTO, error)
	DeletePermission(ctx context.Context, id uint64) error

	GetEmployeePermissions(ctx context.Context, employeeID uint64) (*dto.EffectivePermissionsDTO, error)
	ReplaceOverrides(ctx context.Context, employeeID uint64, payload dto.ReplaceOverridesDTO) (*dto.EffectivePermissionsDTO, error)
	GetMe(ctx context.Context) (*dto.MeDTO, error)
	GetMyPermissions(ctx context.Context) (*dto.EffectivePermissionsDTO, error)
}

type PermissionService struct {
	permissionRepo  repositories.PermissionRepositoryInterface
	employeeRepo    repositories.EmployeeRepositoryInterface
	txManager       repositories.TxManagerInterface
	authPermissions AuthPermissionServiceInterface
	logger          *zap.Logger
}

func NewPermissionService(
	permissionRepo repositories.PermissionRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	txManager repositories.TxManagerInterface,
	authPermissions AuthPermissionServiceInterface,
	logger *zap.Logger,
) PermissionServiceInterface {
	return &PermissionService{
		permissionRepo:  permissionRepo,
		employeeRepo:    employeeRepo,
		txManager:       txManager,
		authPermissions: authPermissions,
		logger:          logger,
	}
}

func (s *PermissionService) GetPermissions(ctx context.Context, filter types.Filter) ([]dto.PermissionDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.PermissionsView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.permissionRepo.GetPermissions(ctx, filter)
	if err != nil {
		s.logger.Error("PermissionService: ошибка получения справочника прав", zap.Error(err))
		return nil, 0, err
	}
	return permissionsToDTO(items), total, nil
}

func (s *PermissionService) FindPermission(ctx context.Context, id uint64) (*dto.PermissionDTO, error) {
	if _, err := checkPermission(ctx, authz.PermissionsView, s.logger); err != nil {
		return nil, err
	}
	p, err := s.permissionRepo.FindPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	out := permissionToDTO(p)
	return &out, nil
}

func (s *PermissionService) CreatePermission(ctx context.Context, payload dto.CreatePermissionDTO) (*dto.PermissionDTO, error) {
	actorID, err := checkPermission(ctx, authz.PermissionsManage, s.logger)
	if err != nil {
		return nil, err
	}
	p, err := s.permissionRepo.CreatePermission(ctx, entities.Permission{Key: payload.Key, Description: payload.Description})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Право добавлено в справочник", zap.String("key", p.Key), zap.Uint64("actor_id", actorID))
	out := permissionToDTO(p)
	return &out, nil
}

func (s *PermissionService) UpdatePermission(ctx context.Context, id uint64, payload dto.UpdatePermissionDTO) (*dto.PermissionDTO, error) {
	if _, err := checkPermission(ctx, authz.PermissionsManage, s.logger); err != nil {
		return nil, err
	}
	p, err := s.permissionRepo.UpdatePermission(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	out := permissionToDTO(p)
	return &out, nil
}

// DeletePermission удаляет ключ вместе со всеми назначениями, поэтому кеш сбрасывается целиком.
func (s *PermissionService) DeletePermission(ctx context.Context, id uint64) error {
	actorID, err := checkPermission(ctx, authz.PermissionsManage, s.logger)
	if err != nil {
		return err
	}
	if err := s.permissionRepo.DeletePermission(ctx, id); err != nil {
		return err
	}
	invalidateAll(ctx, s.authPermissions)
	s.logger.Info("Право удалено из справочника", zap.Uint64("permission_id", id), zap.Uint64("actor_id", actorID))
	return nil
}

// GetEmployeePermissions: свои права видит каждый, чужие только с employees:permissions.
func (s *PermissionService) GetEmployeePermissions(ctx context.Context, employeeID uint64) (*dto.EffectivePermissionsDTO, error) {
	actorID, err := utils.GetEmployeeIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	if actorID != employeeID {
		if _, err := checkPermission(ctx, authz.EmployeesPermissions, s.logger); err != nil {
			return nil, err
		}
	}
	return s.effective(ctx, employeeID)
}

func (s *PermissionService) GetMyPermissions(ctx context.Context) (*dto.EffectivePermissionsDTO, error) {
	actorID, err := utils.GetEmployeeIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return s.effective(ctx, actorID)
}

func (s *PermissionService) effective(ctx context.Context, employeeID uint64) (*dto.EffectivePermissionsDTO, error) {
	eff, err := s.authPermissions.GetEffectivePermissions(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.permissionRepo.GetOverrides(ctx, employeeID)
	if err != nil {
		s.logger.Error("PermissionService: ошибка получения индивидуальных прав", zap.Uint64("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	return effectiveToDTO(employeeID, eff, overrides), nil
}

func effectiveToDTO(employeeID uint64, eff *authz.EffectivePermissions, overrides []entities.PermissionOverride) *dto.EffectivePermissionsDTO {
	out := &dto.EffectivePermissionsDTO{
		EmployeeID:      employeeID,
		Permissions:     eff.Keys(),
		Grants:          eff.Grants(),
		Denied:          eff.DeniedKeys(),
		DepartmentChain: eff.DepartmentChain,
		Truncated:       eff.Truncated,
	}
	if out.DepartmentChain == nil {
		out.DepartmentChain = []uint64{}
	}
	for _, o := range overrides {
		out.Overrides = append(out.Overrides, dto.OverrideDTO{
			PermissionID:  o.PermissionID,
			PermissionKey: o.PermissionKey,
			Effect:        o.Effect,
		})
	}
	return out
}

// ReplaceOverrides заменяет индивидуальные разрешения и запреты сотрудника целиком.
func (s *PermissionService) ReplaceOverrides(ctx context.Context, employeeID uint64, payload dto.ReplaceOverridesDTO) (*dto.EffectivePermissionsDTO, error) {
	actorID, err := checkPermission(ctx, authz.EmployeesPermissions, s.logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.employeeRepo.FindEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(payload.Overrides))
	overrides := make([]entities.PermissionOverride, 0, len(payload.Overrides))
	for _, item := range payload.Overrides {
		ids = append(ids, item.PermissionID)
		overrides = append(overrides, entities.PermissionOverride{
			EmployeeID:   employeeID,
			PermissionID: item.PermissionID,
			Effect:       item.Effect,
		})
	}
	if err := ensurePermissionsExist(ctx, s.permissionRepo, ids); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.permissionRepo.ReplaceOverridesInTx(ctx, tx, employeeID, overrides)
	})
	if err != nil {
		s.logger.Error("PermissionService: ошибка замены индивидуальных прав", zap.Uint64("employee_id", employeeID), zap.Error(err))
		return nil, err
	}
	invalidateEmployee(ctx, s.authPermissions, employeeID)

	s.logger.Info("Индивидуальные права сотрудника обновлены",
		zap.Uint64("employee_id", employeeID),
		zap.Int("count", len(overrides)),
		zap.Uint64("actor_id", actorID),
	)
	return s.effective(ctx, employeeID)
}

// GetMe: профиль и права текущего сотрудника, права берутся уже вычисленные middleware.
func (s *PermissionService) GetMe(ctx context.Context) (*dto.MeDTO, error) {
	actorID, err := utils.GetEmployeeIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	perms, err := utils.GetEffectivePermissionsFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	employee, err := s.employeeRepo.FindEmployee(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return &dto.MeDTO{
		EmployeeDTO:   *employeeToDTO(employee),
		Permissions:   perms.Keys(),
		PermissionMap: perms.ToMap(),
	}, nil
}
