package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/types"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RoleServiceInterface interface {
	GetRoles(ctx context.Context, filter types.Filter) ([]dto.RoleDTO, uint64, error)
	FindRole(ctx context.Context, id uint64) (*dto.RoleDTO, error)
	CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.RoleDTO, error)
	UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*dto.RoleDTO, error)
	DeleteRole(ctx context.Context, id uint64) error
	GetRolePermissions(ctx context.Context, id uint64) ([]dto.PermissionDTO, error)
	ReplaceRolePermissions(ctx context.Context, id uint64, payload dto.ReplaceIDsDTO) ([]dto.PermissionDTO, error)
}

type RoleService struct {
	roleRepo        repositories.RoleRepositoryInterface
	permissionRepo  repositories.PermissionRepositoryInterface
	txManager       repositories.TxManagerInterface
	authPermissions AuthPermissionServiceInterface
	logger          *zap.Logger
}

func NewRoleService(
	roleRepo repositories.RoleRepositoryInterface,
	permissionRepo repositories.PermissionRepositoryInterface,
	txManager repositories.TxManagerInterface,
	authPermissions AuthPermissionServiceInterface,
	logger *zap.Logger,
) RoleServiceInterface {
	return &RoleService{
		roleRepo:        roleRepo,
		permissionRepo:  permissionRepo,
		txManager:       txManager,
		authPermissions: authPermissions,
		logger:          logger,
	}
}

func (s *RoleService) GetRoles(ctx context.Context, filter types.Filter) ([]dto.RoleDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.RolesView, s.logger); err != nil {
		return nil, 0, err
	}
	roles, total, err := s.roleRepo.GetRoles(ctx, filter)
	if err != nil {
		s.logger.Error("RoleService: ошибка получения списка ролей", zap.Error(err))
		return nil, 0, err
	}
	return listOf(roles, roleToDTO), total, nil
}

func (s *RoleService) FindRole(ctx context.Context, id uint64) (*dto.RoleDTO, error) {
	if _, err := checkPermission(ctx, authz.RolesView, s.logger); err != nil {
		return nil, err
	}
	role, err := s.roleRepo.FindRole(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.roleRepo.GetRolePermissions(ctx, id)
	if err != nil {
		s.logger.Error("RoleService: ошибка получения прав роли", zap.Uint64("role_id", id), zap.Error(err))
		return nil, err
	}
	out := roleToDTO(role)
	out.Permissions = permissionsToDTO(perms)
	return out, nil
}

// CreateRole создаёт роль и сразу назначает ей права одной транзакцией.
func (s *RoleService) CreateRole(ctx context.Context, payload dto.CreateRoleDTO) (*dto.RoleDTO, error) {
	actorID, err := checkPermission(ctx, authz.RolesCreate, s.logger)
	if err != nil {
		return nil, err
	}
	if err := ensurePermissionsExist(ctx, s.permissionRepo, payload.PermissionIDs); err != nil {
		return nil, err
	}

	var created *entities.Role
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		role, err := s.roleRepo.CreateRoleInTx(ctx, tx, entities.Role{Name: payload.Name, Description: payload.Description})
		if err != nil {
			return err
		}
		created = role
		return s.roleRepo.ReplaceRolePermissionsInTx(ctx, tx, role.ID, payload.PermissionIDs)
	})
	if err != nil {
		s.logger.Error("RoleService: ошибка создания роли", zap.String("name", payload.Name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Роль создана", zap.Uint64("role_id", created.ID), zap.Uint64("actor_id", actorID))
	perms, err := s.roleRepo.GetRolePermissions(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	out := roleToDTO(created)
	out.Permissions = permissionsToDTO(perms)
	return out, nil
}

func (s *RoleService) UpdateRole(ctx context.Context, id uint64, payload dto.UpdateRoleDTO) (*dto.RoleDTO, error) {
	if _, err := checkPermission(ctx, authz.RolesUpdate, s.logger); err != nil {
		return nil, err
	}
	role, err := s.roleRepo.UpdateRole(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return roleToDTO(role), nil
}

func (s *RoleService) DeleteRole(ctx context.Context, id uint64) error {
	actorID, err := checkPermission(ctx, authz.RolesDelete, s.logger)
	if err != nil {
		return err
	}
	if err := s.roleRepo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Роль удалена", zap.Uint64("role_id", id), zap.Uint64("actor_id", actorID))
	return nil
}

func (s *RoleService) GetRolePermissions(ctx context.Context, id uint64) ([]dto.PermissionDTO, error) {
	if _, err := checkPermission(ctx, authz.RolesView, s.logger); err != nil {
		return nil, err
	}
	if _, err := s.roleRepo.FindRole(ctx, id); err != nil {
		return nil, err
	}
	perms, err := s.roleRepo.GetRolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return permissionsToDTO(perms), nil
}

// ReplaceRolePermissions меняет набор прав роли и сбрасывает кеш прав у всех сотрудников.
func (s *RoleService) ReplaceRolePermissions(ctx context.Context, id uint64, payload dto.ReplaceIDsDTO) ([]dto.PermissionDTO, error) {
	actorID, err := checkPermission(ctx, authz.RolesUpdate, s.logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.roleRepo.FindRole(ctx, id); err != nil {
		return nil, err
	}
	if err := ensurePermissionsExist(ctx, s.permissionRepo, payload.PermissionIDs); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.roleRepo.ReplaceRolePermissionsInTx(ctx, tx, id, payload.PermissionIDs)
	})
	if err != nil {
		s.logger.Error("RoleService: ошибка замены прав роли", zap.Uint64("role_id", id), zap.Error(err))
		return nil, err
	}
	invalidateAll(ctx, s.authPermissions)

	s.logger.Info("Права роли обновлены",
		zap.Uint64("role_id", id),
		zap.Int("count", len(payload.PermissionIDs)),
		zap.Uint64("actor_id", actorID),
	)
	perms, err := s.roleRepo.GetRolePermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return permissionsToDTO(perms), nil
}
