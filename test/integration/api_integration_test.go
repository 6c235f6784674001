package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/health-graph/pkg/api"
	"github.com/LENAX/health-graph/pkg/api/dto"
	"github.com/LENAX/health-graph/pkg/core/engine"
	"github.com/LENAX/health-graph/pkg/core/probe"
	"github.com/LENAX/health-graph/pkg/core/realtime"
	"github.com/LENAX/health-graph/pkg/storage"
	"github.com/LENAX/health-graph/pkg/storage/sqlite"
)

// newTestServer 组装完整服务：静态探测器 + 内存SQLite + 事件总线
func newTestServer(t *testing.T, statuses map[string]probe.Status) *api.Server {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err, "打开内存数据库失败")
	t.Cleanup(func() { db.Close() })

	repo, err := storage.NewReportRepository(db, sqlite.NewSQLiteDialect())
	require.NoError(t, err, "初始化仓储失败")

	bus := realtime.NewBus(false)
	t.Cleanup(func() { bus.Close() })

	eng, err := engine.NewEngine(engine.Options{
		Probe:              &probe.StaticProbe{Statuses: statuses},
		Bus:                bus,
		Repository:         repo,
		DefaultConcurrency: 4,
	})
	require.NoError(t, err, "创建引擎失败")

	return api.NewAPIServer(eng, bus, repo, api.DefaultServerConfig(), "test")
}

func postEvaluation(t *testing.T, server *api.Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decodeEvaluation(t *testing.T, w *httptest.ResponseRecorder) dto.EvaluationResponse {
	t.Helper()
	var resp dto.APIResponse[dto.EvaluationResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code, "响应码应为成功: %s", w.Body.String())
	return resp.Data
}

func TestAPI_EvaluateAndFetch(t *testing.T) {
	server := newTestServer(t, nil)

	w := postEvaluation(t, server, `{"graph":{"api":["db","cache"],"db":[],"cache":["db"]}}`)
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	created := decodeEvaluation(t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Healthy", created.Overall)
	require.Len(t, created.Components, 3)
	// 条目顺序确定：拓扑层级序，层内升序
	assert.Equal(t, "db", created.Components[0].ComponentID)
	assert.Equal(t, "cache", created.Components[1].ComponentID)
	assert.Equal(t, "api", created.Components[2].ComponentID)
	assert.Equal(t, fmt.Sprintf("/api/v1/evaluations/%s/image", created.ID), created.ImageURL)

	// 历史查询应能取回同一份结果
	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.ID, nil)
	w2 := httptest.NewRecorder()
	server.Router().ServeHTTP(w2, req)
	require.Equal(t, http.StatusOK, w2.Code)

	fetched := decodeEvaluation(t, w2)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Overall, fetched.Overall)
	assert.Len(t, fetched.Components, 3)
}

func TestAPI_EvaluateUnhealthy(t *testing.T) {
	server := newTestServer(t, map[string]probe.Status{"db": probe.StatusFailed})

	w := postEvaluation(t, server, `{"graph":{"api":["db"],"db":[]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeEvaluation(t, w)
	assert.Equal(t, "Unhealthy", result.Overall)
	// 依赖失败不阻断依赖方：api仍有自己的状态
	assert.Equal(t, probe.StatusFailed, result.Components[0].Status)
	assert.Equal(t, probe.StatusHealthy, result.Components[1].Status)
}

func TestAPI_CycleRejected(t *testing.T) {
	server := newTestServer(t, nil)

	w := postEvaluation(t, server, `{"graph":{"a":["b"],"b":["a"]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, 0, resp.Code)
}

func TestAPI_UnknownDependencyRejected(t *testing.T) {
	server := newTestServer(t, nil)

	w := postEvaluation(t, server, `{"graph":{"api":["ghost"]}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_MalformedRequest(t *testing.T) {
	server := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, postEvaluation(t, server, `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, postEvaluation(t, server, `{}`).Code, "缺少graph字段应拒绝")
}

func TestAPI_History(t *testing.T) {
	server := newTestServer(t, nil)

	for i := 0; i < 3; i++ {
		w := postEvaluation(t, server, `{"graph":{"db":[]}}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations?limit=2", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.APIResponse[dto.HistoryResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Total)
	assert.Len(t, resp.Data.Items, 2)
	assert.True(t, resp.Data.HasMore)
}

func TestAPI_ImageAndTable(t *testing.T) {
	server := newTestServer(t, nil)

	created := decodeEvaluation(t, postEvaluation(t, server, `{"graph":{"api":["db"],"db":[]}}`))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.ID+"/image", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "<svg "))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+created.ID+"/table", nil)
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<table")
}

func TestAPI_GetMissingEvaluation(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/no-such-id", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_EventStream(t *testing.T) {
	server := newTestServer(t, nil)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "WebSocket握手失败")
	defer conn.Close()

	// 等待服务端完成订阅，保证评估事件不会在订阅建立前发布
	time.Sleep(100 * time.Millisecond)

	w := postEvaluation(t, server, `{"graph":{"api":["db"],"db":[]}}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 事件按生命周期顺序推送：评估开始 -> 各组件started/resolved -> 评估完成
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	types := make([]string, 0, 6)
	for {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err, "读取事件失败")

		var event struct {
			Type        string `json:"type"`
			ComponentID string `json:"component_id"`
			Status      string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(payload, &event))
		types = append(types, event.Type)
		if event.Type == "evaluation.completed" {
			break
		}
	}

	require.Len(t, types, 6, "事件序列: %v", types)
	assert.Equal(t, "evaluation.started", types[0])
	assert.Equal(t, "component.started", types[1], "组件事件应先started后resolved")
	assert.Equal(t, "component.resolved", types[2])
	assert.Equal(t, "component.started", types[3])
	assert.Equal(t, "component.resolved", types[4])
	assert.Equal(t, "evaluation.completed", types[5])
}

func TestAPI_ServiceHealth(t *testing.T) {
	server := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.APIResponse[dto.HealthResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.Equal(t, "test", resp.Data.Version)
}
