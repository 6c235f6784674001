package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/health-graph/pkg/core/probe"
)

func receiveEvent(t *testing.T, messages <-chan *message.Message) *Event {
	t.Helper()
	select {
	case msg, ok := <-messages:
		require.True(t, ok, "订阅通道被提前关闭")
		var event Event
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		msg.Ack()
		return &event
	case <-time.After(2 * time.Second):
		t.Fatal("等待事件超时")
		return nil
	}
}

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	sent := NewEvent(EventEvaluationStarted, "eval-1")
	require.NoError(t, bus.Publish(sent))

	got := receiveEvent(t, messages)
	assert.Equal(t, EventEvaluationStarted, got.Type)
	assert.Equal(t, "eval-1", got.EvaluationID)
	assert.Equal(t, sent.ID, got.ID)
}

func TestSink_ForwardsSchedulerEvents(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	sink := bus.NewSink("eval-2")
	sink.OnComponentStarted("db")
	sink.OnComponentResolved("db", probe.StatusHealthy)

	started := receiveEvent(t, messages)
	assert.Equal(t, EventComponentStarted, started.Type)
	assert.Equal(t, "db", started.ComponentID)

	resolved := receiveEvent(t, messages)
	assert.Equal(t, EventComponentResolved, resolved.Type)
	assert.Equal(t, "eval-2", resolved.EvaluationID)
	assert.Equal(t, probe.StatusHealthy, resolved.Status)
}

func TestBus_PreservesPublishOrder(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	// 逐组件先started后resolved地连续发布，
	// 订阅方收到的顺序必须与发布顺序一致
	sink := bus.NewSink("eval-3")
	components := []string{"db", "cache", "api", "gateway", "web"}
	for _, id := range components {
		sink.OnComponentStarted(id)
		sink.OnComponentResolved(id, probe.StatusHealthy)
	}

	for _, id := range components {
		started := receiveEvent(t, messages)
		require.Equal(t, EventComponentStarted, started.Type, "组件 %s 的started事件未先到达", id)
		require.Equal(t, id, started.ComponentID)

		resolved := receiveEvent(t, messages)
		require.Equal(t, EventComponentResolved, resolved.Type)
		require.Equal(t, id, resolved.ComponentID)
		require.Equal(t, probe.StatusHealthy, resolved.Status)
	}
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := NewBus(false)
	require.NoError(t, bus.Close())

	err := bus.Publish(NewEvent(EventEvaluationStarted, "eval-4"))
	require.Error(t, err, "关闭后的发布应返回错误而非panic")
}

func TestBus_SubscribeCancelClosesChannel(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok, "取消订阅后通道应关闭")
	case <-time.After(2 * time.Second):
		t.Fatal("取消订阅后通道未关闭")
	}
}
