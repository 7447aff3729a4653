package services

import (
	"strings"
	"time"

	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/pkg/constants"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/aarondl/null/v8"
)

// Разрешённые переходы статусов рабочих заявок. Финальные статусы переходов не имеют.
var workOrderTransitions = map[string][]string{
	constants.WorkOrderCreated:    {constants.WorkOrderAssigned, constants.WorkOrderCanceled},
	constants.WorkOrderAssigned:   {constants.WorkOrderInProgress, constants.WorkOrderCreated, constants.WorkOrderCanceled},
	constants.WorkOrderInProgress: {constants.WorkOrderCompleted, constants.WorkOrderCanceled},
}

var incidentTransitions = map[string][]string{
	constants.IncidentOpen:          {constants.IncidentInvestigating, constants.IncidentClosed},
	constants.IncidentInvestigating: {constants.IncidentResolved, constants.IncidentClosed},
	constants.IncidentResolved:      {constants.IncidentClosed},
}

func canTransition(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

// change: одно изменение для ленты событий.
type change struct {
	eventType string
	oldValue  *string
	newValue  *string
}

// applyWorkOrderTransition меняет статус и исполнителя заявки по правилам жизненного цикла.
// Повторная передача текущего статуса assigned/in_progress с новым исполнителем — переназначение.
func applyWorkOrderTransition(order *entities.WorkOrder, payload dto.TransitionWorkOrderDTO, now time.Time) ([]change, error) {
	from, to := order.Status, payload.Status

	if constants.IsFinalStatus(from) {
		return nil, apperrors.ErrInvalidTransition
	}

	reassign := payload.AssigneeID != nil && utils.DiffPtr(order.AssigneeID, payload.AssigneeID)
	if from == to {
		if !reassign || (from != constants.WorkOrderAssigned && from != constants.WorkOrderInProgress) {
			return nil, apperrors.ErrInvalidTransition
		}
	} else if !canTransition(workOrderTransitions, from, to) {
		return nil, apperrors.ErrInvalidTransition
	}

	oldAssignee := order.AssigneeID
	switch to {
	case constants.WorkOrderAssigned, constants.WorkOrderInProgress:
		if reassign {
			order.AssigneeID = payload.AssigneeID
		}
		if order.AssigneeID == nil {
			return nil, apperrors.NewInvalidInputError("Для статуса %q нужен исполнитель", to)
		}
		if to == constants.WorkOrderInProgress && order.StartedAt == nil {
			order.StartedAt = utils.ToPtr(now)
		}
	case constants.WorkOrderCreated:
		order.AssigneeID = nil
	case constants.WorkOrderCompleted:
		order.CompletedAt = utils.ToPtr(now)
	case constants.WorkOrderCanceled:
		reason := strings.TrimSpace(utils.SafeDeref(payload.CancelReason))
		if reason == "" {
			return nil, apperrors.NewInvalidInputError("Для отмены заявки нужна причина")
		}
		order.CancelReason = &reason
		order.CanceledAt = utils.ToPtr(now)
	}
	order.Status = to

	changes := make([]change, 0, 2)
	if from != to {
		changes = append(changes, change{
			eventType: constants.EventStatusChange,
			oldValue:  utils.ToPtr(from),
			newValue:  utils.ToPtr(to),
		})
	}
	if utils.DiffPtr(oldAssignee, order.AssigneeID) {
		changes = append(changes, change{
			eventType: constants.EventAssigneeChange,
			oldValue:  utils.IDToString(oldAssignee),
			newValue:  utils.IDToString(order.AssigneeID),
		})
	}
	return changes, nil
}

func applyIncidentTransition(incident *entities.Incident, to string, now time.Time) (*change, error) {
	from := incident.Status
	if !canTransition(incidentTransitions, from, to) {
		return nil, apperrors.ErrInvalidTransition
	}
	if to == constants.IncidentResolved {
		incident.ResolvedAt = utils.ToPtr(now)
	}
	incident.Status = to
	return &change{
		eventType: constants.EventStatusChange,
		oldValue:  utils.ToPtr(from),
		newValue:  utils.ToPtr(to),
	}, nil
}

// Сравнение значений PATCH с текущими для записи в ленту.

func textChange(eventType, current string, v null.String) []change {
	if !v.Valid || v.String == current {
		return nil
	}
	return []change{{eventType: eventType, oldValue: utils.ToPtr(current), newValue: utils.ToPtr(v.String)}}
}

// nullableTextChange не хранит значения: длинные тексты в ленту не копируются.
func nullableTextChange(eventType string, current *string, v null.String, sent types.SentFields, key string) []change {
	switch {
	case v.Valid && (current == nil || *current != v.String):
	case sent.IsNull(key) && current != nil:
	default:
		return nil
	}
	return []change{{eventType: eventType}}
}

func idChange(eventType string, current *uint64, v null.Uint64, sent types.SentFields, key string) []change {
	var next *uint64
	switch {
	case v.Valid:
		next = utils.ToPtr(v.Uint64)
	case sent.IsNull(key):
	default:
		return nil
	}
	if !utils.DiffPtr(current, next) {
		return nil
	}
	return []change{{eventType: eventType, oldValue: utils.IDToString(current), newValue: utils.IDToString(next)}}
}

func timeChange(eventType string, current *time.Time, v null.Time, sent types.SentFields, key string) []change {
	var next *time.Time
	switch {
	case v.Valid:
		next = utils.ToPtr(v.Time)
	case sent.IsNull(key):
	default:
		return nil
	}
	if (current == nil && next == nil) || (current != nil && next != nil && current.Equal(*next)) {
		return nil
	}
	return []change{{eventType: eventType, oldValue: formatRFC3339(current), newValue: formatRFC3339(next)}}
}

func formatRFC3339(t *time.Time) *string {
	if t == nil {
		return nil
	}
	return utils.ToPtr(t.UTC().Format(time.RFC3339))
}

func workOrderChanges(current *entities.WorkOrder, payload dto.UpdateWorkOrderDTO) []change {
	var changes []change
	changes = append(changes, textChange(constants.EventTitleChange, current.Title, payload.Title)...)
	changes = append(changes, nullableTextChange(constants.EventDescriptionChange, current.Description, payload.Description, payload.Sent, "description")...)
	changes = append(changes, textChange(constants.EventPriorityChange, current.Priority, payload.Priority)...)
	changes = append(changes, idChange(constants.EventAssetChange, current.AssetID, payload.AssetID, payload.Sent, "asset_id")...)
	changes = append(changes, idChange(constants.EventDepartmentChange, current.DepartmentID, payload.DepartmentID, payload.Sent, "department_id")...)
	changes = append(changes, timeChange(constants.EventScheduleChange, current.ScheduledFor, payload.ScheduledFor, payload.Sent, "scheduled_for")...)
	return changes
}

func incidentChanges(current *entities.Incident, payload dto.UpdateIncidentDTO) []change {
	var changes []change
	changes = append(changes, textChange(constants.EventTitleChange, current.Title, payload.Title)...)
	changes = append(changes, nullableTextChange(constants.EventDescriptionChange, current.Description, payload.Description, payload.Sent, "description")...)
	changes = append(changes, textChange(constants.EventSeverityChange, current.Severity, payload.Severity)...)
	changes = append(changes, idChange(constants.EventAssetChange, current.AssetID, payload.AssetID, payload.Sent, "asset_id")...)
	changes = append(changes, idChange(constants.EventDepartmentChange, current.DepartmentID, payload.DepartmentID, payload.Sent, "department_id")...)
	return changes
}
