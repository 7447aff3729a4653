package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type DepartmentServiceInterface interface {
	GetDepartments(ctx context.Context, filter types.Filter) ([]dto.DepartmentDTO, uint64, error)
	FindDepartment(ctx context.Context, id uint64) (*dto.DepartmentDTO, error)
	CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error)
	UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*dto.DepartmentDTO, error)
	DeleteDepartment(ctx context.Context, id uint64) error
	GetAncestors(ctx context.Context, id uint64) ([]dto.DepartmentDTO, error)
	GetDepartmentPermissions(ctx context.Context, id uint64) ([]dto.PermissionDTO, error)
	ReplaceDepartmentPermissions(ctx context.Context, id uint64, payload dto.ReplaceIDsDTO) ([]dto.PermissionDTO, error)
}

type DepartmentService struct {
	departmentRepo  repositories.DepartmentRepositoryInterface
	permissionRepo  repositories.PermissionRepositoryInterface
	txManager       repositories.TxManagerInterface
	authPermissions AuthPermissionServiceInterface
	maxDepth        int
	logger          *zap.Logger
}

func NewDepartmentService(
	departmentRepo repositories.DepartmentRepositoryInterface,
	permissionRepo repositories.PermissionRepositoryInterface,
	txManager repositories.TxManagerInterface,
	authPermissions AuthPermissionServiceInterface,
	maxDepth int,
	logger *zap.Logger,
) DepartmentServiceInterface {
	if maxDepth <= 0 {
		maxDepth = authz.DefaultMaxDepartmentDepth
	}
	return &DepartmentService{
		departmentRepo:  departmentRepo,
		permissionRepo:  permissionRepo,
		txManager:       txManager,
		authPermissions: authPermissions,
		maxDepth:        maxDepth,
		logger:          logger,
	}
}

func (s *DepartmentService) GetDepartments(ctx context.Context, filter types.Filter) ([]dto.DepartmentDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.departmentRepo.GetDepartments(ctx, filter)
	if err != nil {
		s.logger.Error("DepartmentService: ошибка получения списка департаментов", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, departmentToDTO), total, nil
}

func (s *DepartmentService) FindDepartment(ctx context.Context, id uint64) (*dto.DepartmentDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, err
	}
	d, err := s.departmentRepo.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	return departmentToDTO(d), nil
}

func (s *DepartmentService) CreateDepartment(ctx context.Context, payload dto.CreateDepartmentDTO) (*dto.DepartmentDTO, error) {
	actorID, err := checkPermission(ctx, authz.StructureCreate, s.logger)
	if err != nil {
		return nil, err
	}
	d, err := s.departmentRepo.CreateDepartment(ctx, entities.Department{
		Name:           payload.Name,
		ParentID:       payload.ParentID,
		HeadEmployeeID: payload.HeadEmployeeID,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Департамент создан", zap.Uint64("department_id", d.ID), zap.Uint64("actor_id", actorID))
	return departmentToDTO(d), nil
}

// UpdateDepartment: смена родителя меняет наследуемые права, поэтому кеш сбрасывается у всех.
func (s *DepartmentService) UpdateDepartment(ctx context.Context, id uint64, payload dto.UpdateDepartmentDTO) (*dto.DepartmentDTO, error) {
	actorID, err := checkPermission(ctx, authz.StructureUpdate, s.logger)
	if err != nil {
		return nil, err
	}
	current, err := s.departmentRepo.FindDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	parentChanged := false
	if payload.ParentID.Valid {
		if err := s.checkParent(ctx, id, payload.ParentID.Uint64); err != nil {
			return nil, err
		}
		parentChanged = current.ParentID == nil || *current.ParentID != payload.ParentID.Uint64
	} else if payload.Sent.IsNull("parent_id") {
		parentChanged = current.ParentID != nil
	}

	d, err := s.departmentRepo.UpdateDepartment(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	if parentChanged {
		invalidateAll(ctx, s.authPermissions)
		s.logger.Info("Департамент перемещён в дереве",
			zap.Uint64("department_id", id),
			zap.Uint64p("parent_id", d.ParentID),
			zap.Uint64("actor_id", actorID),
		)
	}
	return departmentToDTO(d), nil
}

// checkParent запрещает делать родителем сам департамент или любого его потомка.
func (s *DepartmentService) checkParent(ctx context.Context, id, parentID uint64) error {
	if parentID == id {
		return apperrors.NewInvalidInputError("Департамент не может быть родителем самому себе")
	}
	nodes, err := s.departmentRepo.GetAllNodes(ctx)
	if err != nil {
		s.logger.Error("DepartmentService: ошибка загрузки дерева департаментов", zap.Error(err))
		return err
	}
	if _, ok := nodes[parentID]; !ok {
		return apperrors.NewInvalidInputError("Родительский департамент %d не найден", parentID)
	}
	chain, _ := authz.DepartmentChain(&parentID, nodes, len(nodes)+1)
	for _, ancestor := range chain {
		if ancestor == id {
			return apperrors.NewInvalidInputError("Перенос департамента %d под %d создаёт цикл", id, parentID)
		}
	}
	return nil
}

func (s *DepartmentService) DeleteDepartment(ctx context.Context, id uint64) error {
	actorID, err := checkPermission(ctx, authz.StructureDelete, s.logger)
	if err != nil {
		return err
	}
	if err := s.departmentRepo.DeleteDepartment(ctx, id); err != nil {
		return err
	}
	invalidateAll(ctx, s.authPermissions)
	s.logger.Info("Департамент удалён", zap.Uint64("department_id", id), zap.Uint64("actor_id", actorID))
	return nil
}

// GetAncestors: цепочка родителей от ближайшего к корню, не длиннее maxDepth.
func (s *DepartmentService) GetAncestors(ctx context.Context, id uint64) ([]dto.DepartmentDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, err
	}
	nodes, err := s.departmentRepo.GetAllNodes(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := nodes[id]; !ok {
		return nil, apperrors.ErrNotFound
	}
	chain, truncated := authz.DepartmentChain(&id, nodes, s.maxDepth+1)
	if truncated {
		s.logger.Warn("DepartmentService: цепочка родителей обрезана", zap.Uint64("department_id", id), zap.Int("max_depth", s.maxDepth))
	}

	out := make([]dto.DepartmentDTO, 0, len(chain))
	for _, ancestorID := range chain[1:] {
		d, err := s.departmentRepo.FindDepartment(ctx, ancestorID)
		if err != nil {
			return nil, err
		}
		out = append(out, *departmentToDTO(d))
	}
	return out, nil
}

func (s *DepartmentService) GetDepartmentPermissions(ctx context.Context, id uint64) ([]dto.PermissionDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, err
	}
	if _, err := s.departmentRepo.FindDepartment(ctx, id); err != nil {
		return nil, err
	}
	perms, err := s.departmentRepo.GetDepartmentPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return permissionsToDTO(perms), nil
}

func (s *DepartmentService) ReplaceDepartmentPermissions(ctx context.Context, id uint64, payload dto.ReplaceIDsDTO) ([]dto.PermissionDTO, error) {
	actorID, err := checkPermission(ctx, authz.StructureUpdate, s.logger)
	if err != nil {
		return nil, err
	}
	if _, err := s.departmentRepo.FindDepartment(ctx, id); err != nil {
		return nil, err
	}
	if err := ensurePermissionsExist(ctx, s.permissionRepo, payload.PermissionIDs); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		return s.departmentRepo.ReplaceDepartmentPermissionsInTx(ctx, tx, id, payload.PermissionIDs)
	})
	if err != nil {
		s.logger.Error("DepartmentService: ошибка замены прав департамента", zap.Uint64("department_id", id), zap.Error(err))
		return nil, err
	}
	invalidateAll(ctx, s.authPermissions)

	s.logger.Info("Права департамента обновлены", zap.Uint64("department_id", id), zap.Uint64("actor_id", actorID))
	perms, err := s.departmentRepo.GetDepartmentPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return permissionsToDTO(perms), nil
}
