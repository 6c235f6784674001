package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPProbe_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/db" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := NewHTTPProbe(server.URL, time.Second)

	assert.Equal(t, StatusHealthy, p.Check(context.Background(), "db"))
	assert.Equal(t, StatusFailed, p.Check(context.Background(), "cache"))
}

func TestHTTPProbe_TransportErrorIsFailed(t *testing.T) {
	// 不可达的地址：传输错误折算为Failed，不抛出错误
	p := NewHTTPProbe("http://127.0.0.1:1", 200*time.Millisecond)
	assert.Equal(t, StatusFailed, p.Check(context.Background(), "db"))
}

func TestHTTPProbe_CancelledIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer server.Close()

	p := NewHTTPProbe(server.URL, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Equal(t, StatusUnknown, p.Check(ctx, "db"))
}

func TestHTTPProbe_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewHTTPProbe("http://example.invalid", time.Second)
	assert.Equal(t, StatusUnknown, p.Check(ctx, "db"))
}

func TestHTMLProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status/db":
			fmt.Fprint(w, `<html><body><div class="status"> OK </div></body></html>`)
		case "/status/cache":
			fmt.Fprint(w, `<html><body><div class="status">DOWN</div></body></html>`)
		default:
			// 页面没有状态元素
			fmt.Fprint(w, `<html><body><p>nothing here</p></body></html>`)
		}
	}))
	defer server.Close()

	p := NewHTMLProbe(server.URL, ".status", "ok", time.Second)

	assert.Equal(t, StatusHealthy, p.Check(context.Background(), "db"), "状态文本匹配应判定为健康（忽略大小写与空白）")
	assert.Equal(t, StatusFailed, p.Check(context.Background(), "cache"))
	assert.Equal(t, StatusFailed, p.Check(context.Background(), "queue"), "选择器未命中应判定为失败")
}

func TestStaticProbe(t *testing.T) {
	p := &StaticProbe{Statuses: map[string]Status{"db": StatusFailed}}

	assert.Equal(t, StatusFailed, p.Check(context.Background(), "db"))
	assert.Equal(t, StatusHealthy, p.Check(context.Background(), "api"), "未列出的组件默认Healthy")
}
