package services

import (
	"context"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	"facility-crm/pkg/types"

	"go.uber.org/zap"
)

type AssetServiceInterface interface {
	GetAssets(ctx context.Context, filter types.Filter) ([]dto.AssetDTO, uint64, error)
	FindAsset(ctx context.Context, id uint64) (*dto.AssetDTO, error)
	CreateAsset(ctx context.Context, payload dto.CreateAssetDTO) (*dto.AssetDTO, error)
	UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*dto.AssetDTO, error)
	DeleteAsset(ctx context.Context, id uint64) error
}

type AssetService struct {
	assetRepo repositories.AssetRepositoryInterface
	logger    *zap.Logger
}

func NewAssetService(assetRepo repositories.AssetRepositoryInterface, logger *zap.Logger) AssetServiceInterface {
	return &AssetService{assetRepo: assetRepo, logger: logger}
}

// GetAssets: фильтр по зданию — ?filter[building_id]=3.
func (s *AssetService) GetAssets(ctx context.Context, filter types.Filter) ([]dto.AssetDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.AssetsView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.assetRepo.GetAssets(ctx, filter)
	if err != nil {
		s.logger.Error("AssetService: ошибка получения списка оборудования", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, assetToDTO), total, nil
}

func (s *AssetService) FindAsset(ctx context.Context, id uint64) (*dto.AssetDTO, error) {
	if _, err := checkPermission(ctx, authz.AssetsView, s.logger); err != nil {
		return nil, err
	}
	a, err := s.assetRepo.FindAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	return assetToDTO(a), nil
}

func (s *AssetService) CreateAsset(ctx context.Context, payload dto.CreateAssetDTO) (*dto.AssetDTO, error) {
	actorID, err := checkPermission(ctx, authz.AssetsCreate, s.logger)
	if err != nil {
		return nil, err
	}
	asset := entities.Asset{
		Name:         payload.Name,
		BuildingID:   payload.BuildingID,
		Category:     payload.Category,
		SerialNumber: payload.SerialNumber,
		Status:       payload.Status,
		InstalledAt:  payload.InstalledAt,
	}
	if asset.Status == "" {
		asset.Status = constants.AssetOperational
	}
	created, err := s.assetRepo.CreateAsset(ctx, asset)
	if err != nil {
		s.logger.Error("AssetService: ошибка создания оборудования", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Оборудование создано", zap.Uint64("asset_id", created.ID), zap.Uint64("actor_id", actorID))
	return assetToDTO(created), nil
}

func (s *AssetService) UpdateAsset(ctx context.Context, id uint64, payload dto.UpdateAssetDTO) (*dto.AssetDTO, error) {
	if _, err := checkPermission(ctx, authz.AssetsUpdate, s.logger); err != nil {
		return nil, err
	}
	updated, err := s.assetRepo.UpdateAsset(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return assetToDTO(updated), nil
}

func (s *AssetService) DeleteAsset(ctx context.Context, id uint64) error {
	if _, err := checkPermission(ctx, authz.AssetsDelete, s.logger); err != nil {
		return err
	}
	return s.assetRepo.DeleteAsset(ctx, id)
}
