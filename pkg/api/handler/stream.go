package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LENAX/health-graph/pkg/core/realtime"
)

// StreamHandler 评估事件WebSocket推送处理器
type StreamHandler struct {
	bus      *realtime.Bus
	upgrader websocket.Upgrader
}

// NewStreamHandler 创建StreamHandler
func NewStreamHandler(bus *realtime.Bus) *StreamHandler {
	return &StreamHandler{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// 仪表盘跨域访问，来源校验交由部署层
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Events 订阅评估事件流
// GET /ws/events
func (h *StreamHandler) Events(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	messages, err := h.bus.Subscribe(ctx)
	if err != nil {
		log.Printf("订阅评估事件失败: %v", err)
		return
	}

	// 读协程：只消费客户端的关闭/Ping帧，收到错误即退出
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				msg.Nack()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
				msg.Nack()
				return
			}
			msg.Ack()
		}
	}
}
