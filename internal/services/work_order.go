package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"facility-crm/internal/authz"
	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type WorkOrderServiceInterface interface {
	GetWorkOrders(ctx context.Context, filter types.Filter) ([]dto.WorkOrderDTO, uint64, error)
	FindWorkOrder(ctx context.Context, id uint64) (*dto.WorkOrderDTO, error)
	CreateWorkOrder(ctx context.Context, payload dto.CreateWorkOrderDTO) (*dto.WorkOrderDTO, error)
	UpdateWorkOrder(ctx context.Context, id uint64, payload dto.UpdateWorkOrderDTO) (*dto.WorkOrderDTO, error)
	TransitionWorkOrder(ctx context.Context, id uint64, payload dto.TransitionWorkOrderDTO) (*dto.WorkOrderDTO, error)
	DeleteWorkOrder(ctx context.Context, id uint64) error
	GetActivity(ctx context.Context, id uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error)
	AddComment(ctx context.Context, id uint64, payload dto.CreateCommentDTO) error
	ExportWorkOrders(ctx context.Context, filter types.Filter) (*excelize.File, error)
}

type WorkOrderService struct {
	workOrderRepo   repositories.WorkOrderRepositoryInterface
	employeeRepo    repositories.EmployeeRepositoryInterface
	activityRepo    repositories.ActivityRepositoryInterface
	activityService ActivityServiceInterface
	txManager       repositories.TxManagerInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewWorkOrderService(
	workOrderRepo repositories.WorkOrderRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	activityRepo repositories.ActivityRepositoryInterface,
	activityService ActivityServiceInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) WorkOrderServiceInterface {
	return &WorkOrderService{
		workOrderRepo:   workOrderRepo,
		employeeRepo:    employeeRepo,
		activityRepo:    activityRepo,
		activityService: activityService,
		txManager:       txManager,
		logger:          logger,
		now:             time.Now,
	}
}

// authorize загружает заявку и проверяет право над ней с учётом области и участия.
func (s *WorkOrderService) authorize(ctx context.Context, id uint64, permission string) (*authz.Context, *entities.WorkOrder, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.workOrderRepo.FindWorkOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	authCtx.Target = order

	if !authz.CanDo(permission, *authCtx) {
		// Участник ленты видит заявку даже без прав по области.
		participant, err := s.activityRepo.IsParticipant(ctx, entities.ActivityEntityWorkOrder, id, authCtx.Actor.ID)
		if err != nil {
			return nil, nil, err
		}
		authCtx.IsParticipant = participant
		if !participant || !authz.CanDo(permission, *authCtx) {
			s.logger.Warn("Отказано в доступе к заявке",
				zap.Uint64("actor_id", authCtx.Actor.ID),
				zap.Uint64("work_order_id", id),
				zap.String("permission", permission),
			)
			return nil, nil, apperrors.ErrForbidden
		}
	}
	return authCtx, order, nil
}

func (s *WorkOrderService) GetWorkOrders(ctx context.Context, filter types.Filter) ([]dto.WorkOrderDTO, uint64, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, 0, err
	}
	if !authz.CanDo(authz.WorkOrdersView, *authCtx) {
		return nil, 0, apperrors.ErrForbidden
	}
	items, total, err := s.workOrderRepo.GetWorkOrders(ctx, filter, visibilityOf(authCtx))
	if err != nil {
		s.logger.Error("WorkOrderService: ошибка получения списка заявок", zap.Error(err))
		return nil, 0, err
	}
	return listOf(items, workOrderToDTO), total, nil
}

func (s *WorkOrderService) FindWorkOrder(ctx context.Context, id uint64) (*dto.WorkOrderDTO, error) {
	_, order, err := s.authorize(ctx, id, authz.WorkOrdersView)
	if err != nil {
		return nil, err
	}
	return workOrderToDTO(order), nil
}

func (s *WorkOrderService) checkAssignee(ctx context.Context, assigneeID uint64) error {
	assignee, err := s.employeeRepo.FindEmployee(ctx, assigneeID)
	if err != nil {
		return apperrors.NewInvalidInputError("Исполнитель %d не найден", assigneeID)
	}
	if assignee.StatusCode != constants.EmployeeStatusActive {
		return apperrors.NewInvalidInputError("Исполнитель %d неактивен", assigneeID)
	}
	return nil
}

func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, payload dto.CreateWorkOrderDTO) (*dto.WorkOrderDTO, error) {
	authCtx, err := buildAuthzContext(ctx, s.employeeRepo)
	if err != nil {
		return nil, err
	}
	if !authz.CanDo(authz.WorkOrdersCreate, *authCtx) {
		return nil, apperrors.ErrForbidden
	}
	if payload.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *payload.AssigneeID); err != nil {
			return nil, err
		}
	}

	order := entities.WorkOrder{
		Title:        strings.TrimSpace(payload.Title),
		Description:  payload.Description,
		BuildingID:   payload.BuildingID,
		AssetID:      payload.AssetID,
		IncidentID:   payload.IncidentID,
		CreatorID:    authCtx.Actor.ID,
		AssigneeID:   payload.AssigneeID,
		DepartmentID: payload.DepartmentID,
		Status:       constants.WorkOrderCreated,
		Priority:     payload.Priority,
		ScheduledFor: payload.ScheduledFor,
	}
	if order.Priority == "" {
		order.Priority = constants.PriorityNormal
	}
	if order.DepartmentID == nil {
		order.DepartmentID = authCtx.Actor.DepartmentID
	}
	changes := []change{{eventType: constants.EventCreated, newValue: utils.ToPtr(order.Title)}}
	if order.AssigneeID != nil {
		order.Status = constants.WorkOrderAssigned
		changes = append(changes, change{eventType: constants.EventAssigneeChange, newValue: utils.IDToString(order.AssigneeID)})
	}

	rec := activityRecord{
		entityType: entities.ActivityEntityWorkOrder,
		actorID:    authCtx.Actor.ID,
		changes:    changes,
		recipients: []uint64{utils.SafeDeref(order.AssigneeID)},
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.workOrderRepo.CreateWorkOrderInTx(ctx, tx, order)
		if err != nil {
			return err
		}
		rec.entityID = id
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		s.logger.Error("WorkOrderService: ошибка создания заявки", zap.Error(err))
		return nil, err
	}
	s.activityService.Publish(ctx, rec, items)

	s.logger.Info("Заявка создана", zap.Uint64("work_order_id", rec.entityID), zap.Uint64("actor_id", authCtx.Actor.ID))
	created, err := s.workOrderRepo.FindWorkOrder(ctx, rec.entityID)
	if err != nil {
		return nil, err
	}
	return workOrderToDTO(created), nil
}

// UpdateWorkOrder правит поля заявки; завершённые и отменённые заявки не меняются.
func (s *WorkOrderService) UpdateWorkOrder(ctx context.Context, id uint64, payload dto.UpdateWorkOrderDTO) (*dto.WorkOrderDTO, error) {
	authCtx, _, err := s.authorize(ctx, id, authz.WorkOrdersUpdate)
	if err != nil {
		return nil, err
	}

	rec := activityRecord{entityType: entities.ActivityEntityWorkOrder, entityID: id, actorID: authCtx.Actor.ID}
	if payload.Comment.Valid {
		rec.comment = utils.ToPtr(payload.Comment.String)
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.workOrderRepo.FindWorkOrderForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if constants.IsFinalStatus(current.Status) {
			return apperrors.ErrInvalidTransition
		}
		rec.changes = workOrderChanges(current, payload)
		rec.recipients = []uint64{current.CreatorID, utils.SafeDeref(current.AssigneeID)}

		if err := s.workOrderRepo.UpdateWorkOrderInTx(ctx, tx, id, payload); err != nil {
			return err
		}
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.activityService.Publish(ctx, rec, items)

	updated, err := s.workOrderRepo.FindWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return workOrderToDTO(updated), nil
}

// TransitionWorkOrder меняет статус под блокировкой строки, чтобы параллельные переходы не гонялись.
func (s *WorkOrderService) TransitionWorkOrder(ctx context.Context, id uint64, payload dto.TransitionWorkOrderDTO) (*dto.WorkOrderDTO, error) {
	authCtx, _, err := s.authorize(ctx, id, authz.WorkOrdersTransition)
	if err != nil {
		return nil, err
	}
	if payload.AssigneeID != nil {
		if err := s.checkAssignee(ctx, *payload.AssigneeID); err != nil {
			return nil, err
		}
	}

	rec := activityRecord{
		entityType: entities.ActivityEntityWorkOrder,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		comment:    payload.Comment,
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		order, err := s.workOrderRepo.FindWorkOrderForUpdateInTx(ctx, tx, id)
		if err != nil {
			return err
		}
		oldAssignee := utils.SafeDeref(order.AssigneeID)
		rec.changes, err = applyWorkOrderTransition(order, payload, s.now())
		if err != nil {
			return err
		}
		rec.recipients = []uint64{order.CreatorID, oldAssignee, utils.SafeDeref(order.AssigneeID)}

		if err := s.workOrderRepo.SaveTransitionInTx(ctx, tx, *order); err != nil {
			return err
		}
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			s.logger.Info("Недопустимый переход заявки", zap.Uint64("work_order_id", id), zap.String("to", payload.Status))
		}
		return nil, err
	}
	s.activityService.Publish(ctx, rec, items)

	s.logger.Info("Статус заявки изменён",
		zap.Uint64("work_order_id", id),
		zap.String("status", payload.Status),
		zap.Uint64("actor_id", authCtx.Actor.ID),
	)
	updated, err := s.workOrderRepo.FindWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return workOrderToDTO(updated), nil
}

func (s *WorkOrderService) DeleteWorkOrder(ctx context.Context, id uint64) error {
	authCtx, order, err := s.authorize(ctx, id, authz.WorkOrdersDelete)
	if err != nil {
		return err
	}
	rec := activityRecord{
		entityType: entities.ActivityEntityWorkOrder,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		changes:    []change{{eventType: constants.EventDeleted}},
		recipients: []uint64{order.CreatorID, utils.SafeDeref(order.AssigneeID)},
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.workOrderRepo.DeleteWorkOrderInTx(ctx, tx, id); err != nil {
			return err
		}
		var err error
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return err
	}
	s.activityService.Publish(ctx, rec, items)
	s.logger.Info("Заявка удалена", zap.Uint64("work_order_id", id), zap.Uint64("actor_id", authCtx.Actor.ID))
	return nil
}

func (s *WorkOrderService) GetActivity(ctx context.Context, id uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error) {
	if _, _, err := s.authorize(ctx, id, authz.WorkOrdersView); err != nil {
		return nil, 0, err
	}
	return s.activityService.Timeline(ctx, entities.ActivityEntityWorkOrder, id, filter)
}

// AddComment доступен всем, кто видит заявку, в том числе в финальном статусе.
func (s *WorkOrderService) AddComment(ctx context.Context, id uint64, payload dto.CreateCommentDTO) error {
	authCtx, order, err := s.authorize(ctx, id, authz.WorkOrdersView)
	if err != nil {
		return err
	}
	comment := strings.TrimSpace(payload.Comment)
	if comment == "" {
		return apperrors.NewInvalidInputError("Комментарий не может быть пустым")
	}
	rec := activityRecord{
		entityType: entities.ActivityEntityWorkOrder,
		entityID:   id,
		actorID:    authCtx.Actor.ID,
		comment:    &comment,
		recipients: []uint64{order.CreatorID, utils.SafeDeref(order.AssigneeID)},
	}
	var items []entities.Activity
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		items, err = s.activityService.RecordInTx(ctx, tx, rec)
		return err
	})
	if err != nil {
		return err
	}
	s.activityService.Publish(ctx, rec, items)
	return nil
}
