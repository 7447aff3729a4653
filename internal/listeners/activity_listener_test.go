package listeners

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"facility-crm/internal/dto"
	"facility-crm/internal/events"
	"facility-crm/pkg/eventbus"
	"facility-crm/pkg/websocket"
)

type sentMessage struct {
	employeeID  uint64
	payload     *ActivityPayload
	messageType string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeNotifier) SendNotification(employeeID uint64, payload interface{}, messageType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{employeeID: employeeID, payload: payload.(*ActivityPayload), messageType: messageType})
	return nil
}

func (f *fakeNotifier) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func TestActivityListener_GroupsByTransaction(t *testing.T) {
	notifier := &fakeNotifier{}
	listener := NewActivityListener(notifier, time.Hour, zap.NewNop())
	bus := eventbus.New(zap.NewNop())
	listener.Register(bus)

	bus.Publish(context.Background(), events.ActivityCreatedEvent{
		EntityType: "work_order", EntityID: 12, TxID: "tx-1",
		Activity:   dto.ActivityDTO{ID: 2, Text: "Назначен исполнитель: Техник Иванов"},
		Recipients: []uint64{5, 7},
	})
	bus.Publish(context.Background(), events.ActivityCreatedEvent{
		EntityType: "work_order", EntityID: 12, TxID: "tx-1",
		Activity:   dto.ActivityDTO{ID: 1, Text: "Статус изменён"},
		Recipients: []uint64{5, 7},
	})
	bus.Publish(context.Background(), events.ActivityCreatedEvent{
		EntityType: "incident", EntityID: 3, TxID: "tx-2",
		Activity:   dto.ActivityDTO{ID: 9, Text: "Добавлен комментарий"},
		Recipients: []uint64{7},
	})
	bus.Wait()
	assert.Empty(t, notifier.messages(), "до истечения задержки ничего не отправляется")

	listener.Flush()

	msgs := notifier.messages()
	require.Len(t, msgs, 3)

	byEntity := map[string][]uint64{}
	for _, m := range msgs {
		assert.Equal(t, websocket.MessageActivityCreated, m.messageType)
		byEntity[m.payload.EntityType] = append(byEntity[m.payload.EntityType], m.employeeID)
		if m.payload.EntityType == "work_order" {
			require.Len(t, m.payload.Items, 2)
			assert.Equal(t, uint64(1), m.payload.Items[0].ID, "записи упорядочены по id")
			assert.Equal(t, "/work-orders?modal=work_order:12", m.payload.Link)
		}
	}
	assert.ElementsMatch(t, []uint64{5, 7}, byEntity["work_order"])
	assert.Equal(t, []uint64{7}, byEntity["incident"])
}

func TestActivityListener_SendsAfterDelay(t *testing.T) {
	notifier := &fakeNotifier{}
	listener := NewActivityListener(notifier, 20*time.Millisecond, zap.NewNop())
	bus := eventbus.New(zap.NewNop())
	listener.Register(bus)

	bus.Publish(context.Background(), events.ActivityCreatedEvent{
		EntityType: "incident", EntityID: 1, TxID: "tx",
		Activity:   dto.ActivityDTO{ID: 1},
		Recipients: []uint64{2},
	})
	bus.Wait()

	assert.Eventually(t, func() bool { return len(notifier.messages()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "/incidents?modal=incident:1", notifier.messages()[0].payload.Link)
}
