package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/types"

	"go.uber.org/zap"
)

type PositionServiceInterface interface {
	GetPositions(ctx context.Context, filter types.Filter) ([]dto.PositionDTO, uint64, error)
	FindPosition(ctx context.Context, id uint64) (*dto.PositionDTO, error)
	CreatePosition(ctx context.Context, payload dto.CreatePositionDTO) (*dto.PositionDTO, error)
	UpdatePosition(ctx context.Context, id uint64, payload dto.UpdatePositionDTO) (*dto.PositionDTO, error)
	DeletePosition(ctx context.Context, id uint64) error
}

type PositionService struct {
	positionRepository repositories.PositionRepositoryInterface
	logger             *zap.Logger
}

func NewPositionService(positionRepository repositories.PositionRepositoryInterface,
	logger *zap.Logger,
) PositionServiceInterface {
	return &PositionService{
		positionRepository: positionRepository,
		logger:             logger,
	}
}

func (s *PositionService) GetPositions(ctx context.Context, filter types.Filter) ([]dto.PositionDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.positionRepository.GetPositions(ctx, filter)
	if err != nil {
		s.logger.Error("Ошибка при получении должностей", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, positionToDTO), total, nil
}

func (s *PositionService) FindPosition(ctx context.Context, id uint64) (*dto.PositionDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureView, s.logger); err != nil {
		return nil, err
	}
	data, err := s.positionRepository.FindPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	return positionToDTO(data), nil
}

func (s *PositionService) CreatePosition(ctx context.Context, payload dto.CreatePositionDTO) (*dto.PositionDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureCreate, s.logger); err != nil {
		return nil, err
	}
	created, err := s.positionRepository.CreatePosition(ctx, entities.Position{Name: payload.Name, DepartmentID: payload.DepartmentID})
	if err != nil {
		s.logger.Error("Ошибка при создании должности", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Должность успешно создана", zap.Uint64("position_id", created.ID))
	return positionToDTO(created), nil
}

func (s *PositionService) UpdatePosition(ctx context.Context, id uint64, payload dto.UpdatePositionDTO) (*dto.PositionDTO, error) {
	if _, err := checkPermission(ctx, authz.StructureUpdate, s.logger); err != nil {
		return nil, err
	}
	updated, err := s.positionRepository.UpdatePosition(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return positionToDTO(updated), nil
}

func (s *PositionService) DeletePosition(ctx context.Context, id uint64) error {
	if _, err := checkPermission(ctx, authz.StructureDelete, s.logger); err != nil {
		return err
	}
	return s.positionRepository.DeletePosition(ctx, id)
}
