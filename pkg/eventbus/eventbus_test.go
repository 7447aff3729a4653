package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestBus_PublishCallsOnlySubscribers(t *testing.T) {
	bus := New(zap.NewNop())

	var hits, other int32
	bus.Subscribe("activity.created", func(_ context.Context, e Event) error {
		atomic.AddInt32(&hits, 1)
		return nil
	})
	bus.Subscribe("activity.created", func(_ context.Context, e Event) error {
		atomic.AddInt32(&hits, 1)
		return errors.New("ошибка обработчика не мешает остальным")
	})
	bus.Subscribe("something.else", func(_ context.Context, e Event) error {
		atomic.AddInt32(&other, 1)
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "activity.created"})
	bus.Publish(context.Background(), testEvent{name: "nobody.listens"})
	bus.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(0), atomic.LoadInt32(&other))
}

func TestBus_ListenerOutlivesRequestContext(t *testing.T) {
	bus := New(zap.NewNop())

	var ctxErr error
	bus.Subscribe("e", func(ctx context.Context, _ Event) error {
		ctxErr = ctx.Err()
		return nil
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(reqCtx, testEvent{name: "e"})
	bus.Wait()

	assert.NoError(t, ctxErr)
}
