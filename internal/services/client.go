package services

import (
	"context"
	"strings"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"go.uber.org/zap"
)

type ClientServiceInterface interface {
	GetClients(ctx context.Context, filter types.Filter) ([]dto.ClientDTO, uint64, error)
	FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error)
	CreateClient(ctx context.Context, payload dto.CreateClientDTO) (*dto.ClientDTO, error)
	UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*dto.ClientDTO, error)
	DeleteClient(ctx context.Context, id uint64) error
}

type ClientService struct {
	clientRepo repositories.ClientRepositoryInterface
	logger     *zap.Logger
}

func NewClientService(clientRepo repositories.ClientRepositoryInterface, logger *zap.Logger) ClientServiceInterface {
	return &ClientService{clientRepo: clientRepo, logger: logger}
}

func (s *ClientService) GetClients(ctx context.Context, filter types.Filter) ([]dto.ClientDTO, uint64, error) {
	if _, err := checkPermission(ctx, authz.ClientsView, s.logger); err != nil {
		return nil, 0, err
	}
	items, total, err := s.clientRepo.GetClients(ctx, filter)
	if err != nil {
		s.logger.Error("ClientService: ошибка получения списка клиентов", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, clientToDTO), total, nil
}

func (s *ClientService) FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error) {
	if _, err := checkPermission(ctx, authz.ClientsView, s.logger); err != nil {
		return nil, err
	}
	c, err := s.clientRepo.FindClient(ctx, id)
	if err != nil {
		return nil, err
	}
	return clientToDTO(c), nil
}

func (s *ClientService) CreateClient(ctx context.Context, payload dto.CreateClientDTO) (*dto.ClientDTO, error) {
	actorID, err := checkPermission(ctx, authz.ClientsCreate, s.logger)
	if err != nil {
		return nil, err
	}
	client := entities.Client{
		Name:          strings.TrimSpace(payload.Name),
		Type:          payload.Type,
		Email:         payload.Email,
		ContactPerson: payload.ContactPerson,
		Notes:         payload.Notes,
	}
	if client.Type == "" {
		client.Type = entities.ClientTypeCompany
	}
	if payload.Phone != nil {
		client.Phone = utils.ToPtr(utils.NormalizePhone(*payload.Phone))
	}

	created, err := s.clientRepo.CreateClient(ctx, client)
	if err != nil {
		s.logger.Error("ClientService: ошибка создания клиента", zap.Error(err))
		return nil, err
	}
	s.logger.Info("Клиент создан", zap.Uint64("client_id", created.ID), zap.Uint64("actor_id", actorID))
	return clientToDTO(created), nil
}

func (s *ClientService) UpdateClient(ctx context.Context, id uint64, payload dto.UpdateClientDTO) (*dto.ClientDTO, error) {
	if _, err := checkPermission(ctx, authz.ClientsUpdate, s.logger); err != nil {
		return nil, err
	}
	if payload.Phone.Valid {
		payload.Phone.String = utils.NormalizePhone(payload.Phone.String)
	}
	updated, err := s.clientRepo.UpdateClient(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return clientToDTO(updated), nil
}

// DeleteClient: клиента с привязанными зданиями удалить нельзя (409).
func (s *ClientService) DeleteClient(ctx context.Context, id uint64) error {
	actorID, err := checkPermission(ctx, authz.ClientsDelete, s.logger)
	if err != nil {
		return err
	}
	if err := s.clientRepo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Клиент удалён", zap.Uint64("client_id", id), zap.Uint64("actor_id", actorID))
	return nil
}
