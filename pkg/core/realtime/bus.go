package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/LENAX/health-graph/pkg/core/probe"
)

// TopicEvents 评估事件统一主题
const TopicEvents = "healthgraph.events"

// busQueueSize 待投递事件队列容量
const busQueueSize = 256

// Bus 评估事件总线（对外导出）
// 基于 Watermill gochannel 的进程内 Pub/Sub，
// 调度器通过 Sink 发布组件事件，WebSocket 处理器订阅后推送给仪表盘。
//
// 顺序保证：Publish 只把事件放入队列，唯一的投递协程按入队顺序逐条发布，
// 每条发布阻塞到订阅方Ack，因此订阅方收到事件的顺序与发布顺序一致
// （例如 component.started 必然先于同组件的 component.resolved 到达）。
type Bus struct {
	pubsub *gochannel.GoChannel
	logger watermill.LoggerAdapter

	mu     sync.Mutex
	closed bool
	queue  chan *message.Message
	done   chan struct{}
}

// NewBus 创建事件总线
func NewBus(debug bool) *Bus {
	logger := watermill.NewStdLogger(debug, false)
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			Persistent: false,
			// 逐条阻塞到Ack，配合单投递协程保证订阅方收到的顺序
			BlockPublishUntilSubscriberAck: true,
		},
		logger,
	)
	b := &Bus{
		pubsub: pubsub,
		logger: logger,
		queue:  make(chan *message.Message, busQueueSize),
		done:   make(chan struct{}),
	}
	go b.dispatch()
	return b
}

// dispatch 唯一的投递协程：按入队顺序逐条发布到底层Pub/Sub
func (b *Bus) dispatch() {
	defer close(b.done)
	for msg := range b.queue {
		if err := b.pubsub.Publish(TopicEvents, msg); err != nil {
			log.Printf("投递事件失败: MessageID=%s, Error=%v", msg.UUID, err)
		}
	}
}

// Publish 发布事件到总线
// 只入队不等待订阅方，调度器的评估不会被慢订阅方拖慢
func (b *Bus) Publish(event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("type", string(event.Type))

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("事件总线已关闭")
	}
	b.queue <- msg
	return nil
}

// Subscribe 订阅评估事件流
// 返回的 channel 在 ctx 取消或总线关闭后关闭
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicEvents)
}

// Close 关闭事件总线：停止接收新事件，排空待投递队列后关闭底层Pub/Sub
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
	return b.pubsub.Close()
}

// Sink 调度器事件接收器（实现 scheduler.EventSink）
// 绑定一次评估运行，把组件生命周期事件转发到总线
type Sink struct {
	bus          *Bus
	evaluationID string
}

// NewSink 创建绑定指定评估运行的接收器
func (b *Bus) NewSink(evaluationID string) *Sink {
	return &Sink{bus: b, evaluationID: evaluationID}
}

// OnComponentStarted 组件开始探测
func (s *Sink) OnComponentStarted(componentID string) {
	event := NewEvent(EventComponentStarted, s.evaluationID).WithComponent(componentID)
	if err := s.bus.Publish(event); err != nil {
		log.Printf("发布组件事件失败: EvaluationID=%s, ComponentID=%s, Error=%v", s.evaluationID, componentID, err)
	}
}

// OnComponentResolved 组件得出终态
func (s *Sink) OnComponentResolved(componentID string, status probe.Status) {
	event := NewEvent(EventComponentResolved, s.evaluationID).WithComponent(componentID).WithStatus(status)
	if err := s.bus.Publish(event); err != nil {
		log.Printf("发布组件事件失败: EvaluationID=%s, ComponentID=%s, Error=%v", s.evaluationID, componentID, err)
	}
}
