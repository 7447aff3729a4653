package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/events"
	"facility-crm/internal/repositories"
	"facility-crm/pkg/constants"
	"facility-crm/pkg/eventbus"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var statusLabels = map[string]string{
	constants.WorkOrderCreated:      "Создана",
	constants.WorkOrderAssigned:     "Назначена",
	constants.WorkOrderInProgress:   "В работе",
	constants.WorkOrderCompleted:    "Выполнена",
	constants.WorkOrderCanceled:     "Отменена",
	constants.IncidentOpen:          "Открыт",
	constants.IncidentInvestigating: "Расследуется",
	constants.IncidentResolved:      "Решён",
	constants.IncidentClosed:        "Закрыт",
}

var priorityLabels = map[string]string{
	constants.PriorityLow:    "Низкий",
	constants.PriorityNormal: "Обычный",
	constants.PriorityHigh:   "Высокий",
	constants.PriorityUrgent: "Срочный",
}

var severityLabels = map[string]string{
	constants.SeverityLow:      "Низкая",
	constants.SeverityMedium:   "Средняя",
	constants.SeverityHigh:     "Высокая",
	constants.SeverityCritical: "Критическая",
}

func label(labels map[string]string, v *string) string {
	if v == nil {
		return ""
	}
	if l, ok := labels[*v]; ok {
		return l
	}
	return *v
}

// humanizeSince: "только что", "2ч 5м назад"; старше недели — обычная дата.
func humanizeSince(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "только что"
	case d < 7*24*time.Hour:
		return utils.FormatDuration(d) + " назад"
	}
	return utils.FormatDateTime(t)
}

type ActivityServiceInterface interface {
	Timeline(ctx context.Context, entityType string, entityID uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error)
	RecordInTx(ctx context.Context, tx pgx.Tx, rec activityRecord) ([]entities.Activity, error)
	Publish(ctx context.Context, rec activityRecord, items []entities.Activity)
}

// activityRecord: пачка изменений одной операции, пишется с общим tx_id.
type activityRecord struct {
	entityType string
	entityID   uint64
	actorID    uint64
	changes    []change
	comment    *string
	recipients []uint64
}

type ActivityService struct {
	activityRepo   repositories.ActivityRepositoryInterface
	employeeRepo   repositories.EmployeeRepositoryInterface
	departmentRepo repositories.DepartmentRepositoryInterface
	assetRepo      repositories.AssetRepositoryInterface
	bus            *eventbus.Bus
	logger         *zap.Logger
	now            func() time.Time
}

func NewActivityService(
	activityRepo repositories.ActivityRepositoryInterface,
	employeeRepo repositories.EmployeeRepositoryInterface,
	departmentRepo repositories.DepartmentRepositoryInterface,
	assetRepo repositories.AssetRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *ActivityService {
	return &ActivityService{
		activityRepo:   activityRepo,
		employeeRepo:   employeeRepo,
		departmentRepo: departmentRepo,
		assetRepo:      assetRepo,
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

// RecordInTx пишет все изменения операции в ленту в рамках транзакции.
// Комментарий прикрепляется к первой записи.
func (s *ActivityService) RecordInTx(ctx context.Context, tx pgx.Tx, rec activityRecord) ([]entities.Activity, error) {
	if len(rec.changes) == 0 && rec.comment == nil {
		return nil, nil
	}
	txID := uuid.New()
	changes := rec.changes
	if len(changes) == 0 {
		changes = []change{{eventType: constants.EventComment}}
	}

	created := make([]entities.Activity, 0, len(changes))
	for i, ch := range changes {
		a := entities.Activity{
			EntityType: rec.entityType,
			EntityID:   rec.entityID,
			ActorID:    rec.actorID,
			EventType:  ch.eventType,
			OldValue:   ch.oldValue,
			NewValue:   ch.newValue,
			TxID:       &txID,
		}
		if i == 0 {
			a.Comment = rec.comment
		}
		saved, err := s.activityRepo.CreateInTx(ctx, tx, a)
		if err != nil {
			return nil, err
		}
		created = append(created, *saved)
	}
	return created, nil
}

// Publish рассылает записи после коммита. Автор действия уведомление не получает.
func (s *ActivityService) Publish(ctx context.Context, rec activityRecord, items []entities.Activity) {
	if s.bus == nil || len(items) == 0 {
		return
	}
	recipients := make([]uint64, 0, len(rec.recipients))
	for _, id := range uniqueRecipients(rec.recipients) {
		if id != rec.actorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return
	}

	rendered := s.render(ctx, rec.entityType, items)
	for i := range rendered {
		txID := ""
		if items[i].TxID != nil {
			txID = items[i].TxID.String()
		}
		s.bus.Publish(ctx, events.ActivityCreatedEvent{
			EntityType: rec.entityType,
			EntityID:   rec.entityID,
			TxID:       txID,
			Activity:   rendered[i],
			Recipients: recipients,
		})
	}
}

func uniqueRecipients(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *ActivityService) Timeline(ctx context.Context, entityType string, entityID uint64, filter types.Filter) ([]dto.ActivityDTO, uint64, error) {
	items, total, err := s.activityRepo.FindByEntity(ctx, entityType, entityID, uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		s.logger.Error("ActivityService: не удалось получить ленту", zap.String("entity_type", entityType), zap.Uint64("entity_id", entityID), zap.Error(err))
		return nil, 0, err
	}
	return s.render(ctx, entityType, items), total, nil
}

func (s *ActivityService) render(ctx context.Context, entityType string, items []entities.Activity) []dto.ActivityDTO {
	r := &timelineRenderer{
		ctx:         ctx,
		service:     s,
		entityType:  entityType,
		employees:   s.employeeNames(ctx, items),
		departments: make(map[uint64]string),
		assets:      make(map[uint64]string),
	}
	now := s.now()
	out := make([]dto.ActivityDTO, 0, len(items))
	for i := range items {
		a := &items[i]
		actorName := a.ActorName
		if actorName == nil {
			if name, ok := r.employees[a.ActorID]; ok {
				actorName = &name
			}
		}
		out = append(out, dto.ActivityDTO{
			ID:             a.ID,
			EventType:      a.EventType,
			Actor:          shortEmployee(&a.ActorID, actorName),
			OldValue:       a.OldValue,
			NewValue:       a.NewValue,
			Comment:        a.Comment,
			Text:           r.text(a),
			CreatedAt:      utils.FormatDateTime(a.CreatedAt),
			CreatedAtHuman: humanizeSince(a.CreatedAt, now),
		})
	}
	return out
}

// employeeNames одним запросом подтягивает ФИО авторов и исполнителей из ленты.
func (s *ActivityService) employeeNames(ctx context.Context, items []entities.Activity) map[uint64]string {
	ids := make([]uint64, 0, len(items))
	for _, a := range items {
		if a.ActorName == nil {
			ids = append(ids, a.ActorID)
		}
		if a.EventType == constants.EventAssigneeChange {
			for _, v := range []*string{a.OldValue, a.NewValue} {
				if id, ok := parseID(v); ok {
					ids = append(ids, id)
				}
			}
		}
	}
	if len(ids) == 0 {
		return map[uint64]string{}
	}
	names, err := s.employeeRepo.FindShortByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("ActivityService: не удалось получить имена сотрудников", zap.Error(err))
		return map[uint64]string{}
	}
	return names
}

func parseID(v *string) (uint64, bool) {
	if v == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(*v, 10, 64)
	return id, err == nil && id > 0
}

type timelineRenderer struct {
	ctx         context.Context
	service     *ActivityService
	entityType  string
	employees   map[uint64]string
	departments map[uint64]string
	assets      map[uint64]string
}

func (r *timelineRenderer) employee(v *string) string {
	id, ok := parseID(v)
	if !ok {
		return ""
	}
	if name, ok := r.employees[id]; ok {
		return name
	}
	return fmt.Sprintf("сотрудник #%d", id)
}

func (r *timelineRenderer) department(v *string) string {
	id, ok := parseID(v)
	if !ok {
		return ""
	}
	if name, ok := r.departments[id]; ok {
		return name
	}
	name := fmt.Sprintf("#%d", id)
	if dept, err := r.service.departmentRepo.FindDepartment(r.ctx, id); err == nil {
		name = dept.Name
	} else {
		r.service.logger.Warn("Не удалось найти департамент по ID из ленты", zap.Uint64("department_id", id))
	}
	r.departments[id] = name
	return name
}

func (r *timelineRenderer) asset(v *string) string {
	id, ok := parseID(v)
	if !ok {
		return ""
	}
	if name, ok := r.assets[id]; ok {
		return name
	}
	name := fmt.Sprintf("#%d", id)
	if asset, err := r.service.assetRepo.FindAsset(r.ctx, id); err == nil {
		name = asset.Name
	} else {
		r.service.logger.Warn("Не удалось найти оборудование по ID из ленты", zap.Uint64("asset_id", id))
	}
	r.assets[id] = name
	return name
}

func (r *timelineRenderer) text(a *entities.Activity) string {
	oldValue, newValue := utils.SafeDeref(a.OldValue), utils.SafeDeref(a.NewValue)

	switch a.EventType {
	case constants.EventCreated:
		if r.entityType == entities.ActivityEntityIncident {
			return fmt.Sprintf("Зарегистрирован инцидент: «%s»", newValue)
		}
		return fmt.Sprintf("Создана заявка: «%s»", newValue)
	case constants.EventStatusChange:
		return fmt.Sprintf("Статус изменён: «%s» → «%s»", label(statusLabels, a.OldValue), label(statusLabels, a.NewValue))
	case constants.EventAssigneeChange:
		switch {
		case a.OldValue == nil:
			return fmt.Sprintf("Назначен исполнитель: %s", r.employee(a.NewValue))
		case a.NewValue == nil:
			return fmt.Sprintf("Исполнитель снят: %s", r.employee(a.OldValue))
		}
		return fmt.Sprintf("Исполнитель изменён: %s → %s", r.employee(a.OldValue), r.employee(a.NewValue))
	case constants.EventTitleChange:
		return fmt.Sprintf("Изменено название: «%s» на «%s»", oldValue, newValue)
	case constants.EventDescriptionChange:
		return "Изменено описание"
	case constants.EventPriorityChange:
		return fmt.Sprintf("Установлен приоритет: «%s»", label(priorityLabels, a.NewValue))
	case constants.EventSeverityChange:
		return fmt.Sprintf("Установлена критичность: «%s»", label(severityLabels, a.NewValue))
	case constants.EventDepartmentChange:
		if a.NewValue == nil {
			return "Департамент снят"
		}
		return fmt.Sprintf("Передано в департамент: «%s»", r.department(a.NewValue))
	case constants.EventAssetChange:
		if a.NewValue == nil {
			return "Оборудование отвязано"
		}
		return fmt.Sprintf("Изменено оборудование: «%s»", r.asset(a.NewValue))
	case constants.EventScheduleChange:
		if a.NewValue == nil {
			return "Плановая дата снята"
		}
		if t, err := time.Parse(time.RFC3339, newValue); err == nil {
			return fmt.Sprintf("Запланировано на: %s", utils.FormatDateTime(t))
		}
		return fmt.Sprintf("Запланировано на: %s", newValue)
	case constants.EventComment:
		return "Добавлен комментарий"
	case constants.EventDeleted:
		return "Запись удалена"
	}
	return fmt.Sprintf("Изменено поле: «%s» на «%s»", oldValue, newValue)
}
