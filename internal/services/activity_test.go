package services

import (
	"context"
	"testing"
	"time"

	"facility-crm/internal/entities"
	"facility-crm/pkg/constants"
	"facility-crm/pkg/types"
	"facility-crm/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestActivityService_TimelineText(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeActivityRepo{}
	employees := &fakeEmployeeRepo{items: map[uint64]*entities.Employee{
		1: {ID: 1, FullName: "Диспетчер Петрова"},
		2: {ID: 2, FullName: "Техник Иванов"},
	}}
	departments := &fakeDepartmentRepo{items: map[uint64]*entities.Department{3: {ID: 3, Name: "Служба инженеров"}}}
	assets := &fakeAssetRepo{items: map[uint64]*entities.Asset{5: {ID: 5, Name: "Чиллер №2"}}}

	svc := NewActivityService(repo, employees, departments, assets, nil, zap.NewNop())
	svc.now = func() time.Time { return now }

	add := func(eventType string, oldValue, newValue *string, at time.Time) {
		repo.items = append(repo.items, entities.Activity{
			ID: uint64(len(repo.items) + 1), EntityType: entities.ActivityEntityWorkOrder, EntityID: 1,
			ActorID: 1, EventType: eventType, OldValue: oldValue, NewValue: newValue, CreatedAt: at,
		})
	}
	add(constants.EventCreated, nil, utils.ToPtr("Протечка"), now.Add(-30*time.Second))
	add(constants.EventAssigneeChange, nil, utils.ToPtr("2"), now.Add(-2*time.Hour))
	add(constants.EventAssigneeChange, utils.ToPtr("2"), utils.ToPtr("77"), now.Add(-2*time.Hour))
	add(constants.EventStatusChange, utils.ToPtr(constants.WorkOrderAssigned), utils.ToPtr(constants.WorkOrderInProgress), now.Add(-8*24*time.Hour))
	add(constants.EventPriorityChange, utils.ToPtr(constants.PriorityNormal), utils.ToPtr(constants.PriorityUrgent), now)
	add(constants.EventDepartmentChange, nil, utils.ToPtr("3"), now)
	add(constants.EventDepartmentChange, utils.ToPtr("3"), nil, now)
	add(constants.EventAssetChange, nil, utils.ToPtr("5"), now)
	add(constants.EventAssetChange, nil, utils.ToPtr("6"), now)
	add(constants.EventScheduleChange, nil, utils.ToPtr("2024-05-03T06:30:00Z"), now)
	add(constants.EventDescriptionChange, nil, nil, now)

	items, total, err := svc.Timeline(context.Background(), entities.ActivityEntityWorkOrder, 1, types.Filter{Limit: 50})
	require.NoError(t, err)
	require.Equal(t, uint64(11), total)

	texts := make([]string, 0, len(items))
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{
		"Создана заявка: «Протечка»",
		"Назначен исполнитель: Техник Иванов",
		"Исполнитель изменён: Техник Иванов → сотрудник #77",
		"Статус изменён: «Назначена» → «В работе»",
		"Установлен приоритет: «Срочный»",
		"Передано в департамент: «Служба инженеров»",
		"Департамент снят",
		"Изменено оборудование: «Чиллер №2»",
		"Изменено оборудование: «#6»",
		"Запланировано на: " + utils.FormatDateTime(time.Date(2024, 5, 3, 6, 30, 0, 0, time.UTC)),
		"Изменено описание",
	}, texts)

	assert.Equal(t, "только что", items[0].CreatedAtHuman)
	assert.Equal(t, "2ч назад", items[1].CreatedAtHuman)
	assert.Equal(t, utils.FormatDateTime(now.Add(-8*24*time.Hour)), items[3].CreatedAtHuman)

	require.NotNil(t, items[0].Actor)
	assert.Equal(t, "Диспетчер Петрова", items[0].Actor.FullName)
}

func TestActivityService_RecordInTx(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, &fakeEmployeeRepo{}, &fakeDepartmentRepo{}, &fakeAssetRepo{}, nil, zap.NewNop())
	ctx := context.Background()

	items, err := svc.RecordInTx(ctx, nil, activityRecord{entityType: entities.ActivityEntityIncident, entityID: 2, actorID: 1})
	require.NoError(t, err)
	assert.Empty(t, items, "без изменений и комментария запись не создаётся")

	comment := "Выехали на место"
	items, err = svc.RecordInTx(ctx, nil, activityRecord{
		entityType: entities.ActivityEntityIncident,
		entityID:   2,
		actorID:    1,
		comment:    &comment,
		changes: []change{
			{eventType: constants.EventStatusChange, oldValue: utils.ToPtr(constants.IncidentOpen), newValue: utils.ToPtr(constants.IncidentInvestigating)},
			{eventType: constants.EventSeverityChange, newValue: utils.ToPtr(constants.SeverityHigh)},
		},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].TxID)
	assert.Equal(t, *items[0].TxID, *items[1].TxID)
	assert.Equal(t, &comment, items[0].Comment)
	assert.Nil(t, items[1].Comment)

	items, err = svc.RecordInTx(ctx, nil, activityRecord{entityType: entities.ActivityEntityIncident, entityID: 2, actorID: 1, comment: &comment})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, constants.EventComment, items[0].EventType)
}

func TestUniqueRecipients(t *testing.T) {
	assert.Equal(t, []uint64{3, 1}, uniqueRecipients([]uint64{3, 0, 1, 3}))
}
