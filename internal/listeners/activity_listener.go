package listeners

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/entities"
	"facility-crm/internal/events"
	"facility-crm/internal/services"
	"facility-crm/pkg/eventbus"
	"facility-crm/pkg/websocket"
)

// DefaultGroupDelay: сколько ждать остальные записи той же операции перед отправкой.
const DefaultGroupDelay = 2 * time.Second

type groupKey struct {
	EntityType string
	EntityID   uint64
	TxID       string
}

type activityGroup struct {
	events []events.ActivityCreatedEvent
	timer  *time.Timer
}

// ActivityPayload: одно уведомление на операцию: все записи ленты с общим tx_id.
type ActivityPayload struct {
	EntityType string            `json:"entity_type"`
	EntityID   uint64            `json:"entity_id"`
	TxID       string            `json:"tx_id"`
	Link       string            `json:"link"`
	Items      []dto.ActivityDTO `json:"items"`
}

type ActivityListener struct {
	wsNotificationService services.WebSocketNotificationServiceInterface
	delay                 time.Duration
	logger                *zap.Logger

	groups   map[groupKey]*activityGroup
	groupsMu sync.Mutex
}

func NewActivityListener(
	wsNotificationService services.WebSocketNotificationServiceInterface,
	delay time.Duration,
	logger *zap.Logger,
) *ActivityListener {
	if delay <= 0 {
		delay = DefaultGroupDelay
	}
	return &ActivityListener{
		wsNotificationService: wsNotificationService,
		delay:                 delay,
		logger:                logger,
		groups:                make(map[groupKey]*activityGroup),
	}
}

func (l *ActivityListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.ActivityCreated, l.handleActivityCreated)
	l.logger.Info("ActivityListener подписан на событие", zap.String("event", events.ActivityCreated))
}

func (l *ActivityListener) handleActivityCreated(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.ActivityCreatedEvent)
	if !ok {
		return nil
	}
	key := groupKey{EntityType: e.EntityType, EntityID: e.EntityID, TxID: e.TxID}

	l.groupsMu.Lock()
	defer l.groupsMu.Unlock()

	group, exists := l.groups[key]
	if !exists {
		group = &activityGroup{}
		l.groups[key] = group
		group.timer = time.AfterFunc(l.delay, func() {
			l.flushGroup(key)
		})
	}
	group.events = append(group.events, e)
	return nil
}

// Flush немедленно рассылает все накопленные группы (остановка сервера).
func (l *ActivityListener) Flush() {
	l.groupsMu.Lock()
	keys := make([]groupKey, 0, len(l.groups))
	for key, group := range l.groups {
		group.timer.Stop()
		keys = append(keys, key)
	}
	l.groupsMu.Unlock()

	for _, key := range keys {
		l.flushGroup(key)
	}
}

func (l *ActivityListener) flushGroup(key groupKey) {
	l.groupsMu.Lock()
	group, exists := l.groups[key]
	if !exists {
		l.groupsMu.Unlock()
		return
	}
	delete(l.groups, key)
	l.groupsMu.Unlock()

	if len(group.events) == 0 {
		return
	}
	payload, recipients := buildPayload(key, group.events)
	for _, employeeID := range recipients {
		if err := l.wsNotificationService.SendNotification(employeeID, payload, websocket.MessageActivityCreated); err != nil {
			l.logger.Error("Не удалось отправить WebSocket-уведомление",
				zap.Uint64("employee_id", employeeID),
				zap.String("entity_type", key.EntityType),
				zap.Uint64("entity_id", key.EntityID),
				zap.Error(err),
			)
		}
	}
}

func buildPayload(key groupKey, groupEvents []events.ActivityCreatedEvent) (*ActivityPayload, []uint64) {
	items := make([]dto.ActivityDTO, 0, len(groupEvents))
	seen := make(map[uint64]struct{})
	recipients := make([]uint64, 0)
	for _, e := range groupEvents {
		items = append(items, e.Activity)
		for _, id := range e.Recipients {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	sort.Slice(recipients, func(i, j int) bool { return recipients[i] < recipients[j] })

	return &ActivityPayload{
		EntityType: key.EntityType,
		EntityID:   key.EntityID,
		TxID:       key.TxID,
		Link:       entityLink(key.EntityType, key.EntityID),
		Items:      items,
	}, recipients
}

// entityLink: ссылка для фронтенда, открывающая карточку в стеке модальных окон.
func entityLink(entityType string, id uint64) string {
	switch entityType {
	case entities.ActivityEntityIncident:
		return fmt.Sprintf("/incidents?modal=incident:%d", id)
	default:
		return fmt.Sprintf("/work-orders?modal=work_order:%d", id)
	}
}
