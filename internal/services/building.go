package services

import (
	"context"
	"strings"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	"facility-crm/pkg/types"

	"go.uber.org/zap"
)

type BuildingServiceInterface interface {
	GetBuildings(ctx context.Context, filter types.Filter) ([]dto.BuildingDTO, uint64, error)
	FindBuilding(ctx context.Context, id uint64) (*dto.BuildingDTO, error)
	CreateBuilding(ctx context.Context, payload dto.CreateBuildingDTO) (*dto.BuildingDTO, error)
	UpdateBuilding(ctx context.Context, id uint64, payload dto.UpdateBuildingDTO) (*dto.BuildingDTO, error)
	DeleteBuilding(ctx context.Context, id uint64) error
}

type BuildingService struct {
	buildingRepo repositories.BuildingRepositoryInterface
	logger       *zap.Logger
}

func NewBuildingService(buildingRepo repositories.BuildingRepositoryInterface, logger *zap.Logger) BuildingServiceInterface {
	return &BuildingService{buildingRepo: buildingRepo, logger: logger}
}

func (s *BuildingService) GetBuildings(ctx context.Context, filter types.Filter) ([]dto.BuildingDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.BuildingsView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.buildingRepo.GetBuildings(ctx, filter)
	if err != nil {
		s.logger.Error("BuildingService: ошибка получения списка зданий", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, buildingToDTO), total, nil
}

func (s *BuildingService) FindBuilding(ctx context.Context, id uint64) (*dto.BuildingDTO, error) {
	if _, err := checkPermission(ctx, authz.BuildingsView, s.logger); err != nil {
		return nil, err
	}
	b, err := s.buildingRepo.FindBuilding(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildingToDTO(b), nil
}

func (s *BuildingService) CreateBuilding(ctx context.Context, payload dto.CreateBuildingDTO) (*dto.BuildingDTO, error) {
	actorID, err := checkPermission(ctx, authz.BuildingsCreate, s.logger)
	if err != nil {
		return nil, err
	}
	building := entities.Building{
		Name:     strings.TrimSpace(payload.Name),
		Address:  strings.TrimSpace(payload.Address),
		ClientID: payload.ClientID,
		Floors:   payload.Floors,
		AreaSqm:  payload.AreaSqm,
		Status:   payload.Status,
	}
	if building.Status == "" {
		building.Status = constants.BuildingStatusActive
	}
	created, err := s.buildingRepo.CreateBuilding(ctx, building)
	if err != nil {
		s.logger.Error("BuildingService: ошибка создания здания", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Здание создано", zap.Uint64("building_id", created.ID), zap.Uint64("actor_id", actorID))
	return buildingToDTO(created), nil
}

func (s *BuildingService) UpdateBuilding(ctx context.Context, id uint64, payload dto.UpdateBuildingDTO) (*dto.BuildingDTO, error) {
	if _, err := checkPermission(ctx, authz.BuildingsUpdate, s.logger); err != nil {
		return nil, err
	}
	updated, err := s.buildingRepo.UpdateBuilding(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return buildingToDTO(updated), nil
}

func (s *BuildingService) DeleteBuilding(ctx context.Context, id uint64) error {
	actorID, err := checkPermission(ctx, authz.BuildingsDelete, s.logger)
	if err != nil {
		return err
	}
	if err := s.buildingRepo.DeleteBuilding(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Здание удалено", zap.Uint64("building_id", id), zap.Uint64("actor_id", actorID))
	return nil
}
