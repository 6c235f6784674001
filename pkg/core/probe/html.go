package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// HTMLProbe 状态页探测器（对外导出）
// 抓取组件的状态页面，通过CSS选择器提取状态文本进行判定，
// 适用于只提供人读状态页、没有健康检查API的组件
type HTMLProbe struct {
	BaseURL  string        // 状态页基础地址，页面路径为 <BaseURL>/status/<componentID>
	Selector string        // CSS选择器，定位状态文本元素
	Healthy  string        // 判定为健康的状态文本（忽略大小写和首尾空白）
	Timeout  time.Duration // 单次抓取超时
	client   *http.Client
}

// NewHTMLProbe 创建状态页探测器
func NewHTMLProbe(baseURL, selector, healthyText string, timeout time.Duration) *HTMLProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second // 默认值
	}
	if selector == "" {
		selector = ".status" // 默认选择器
	}
	if healthyText == "" {
		healthyText = "ok"
	}
	return &HTMLProbe{
		BaseURL:  baseURL,
		Selector: selector,
		Healthy:  healthyText,
		Timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// Check 实现 Probe 接口
// 页面不可达、选择器未命中、状态文本不匹配均判定为 Failed
func (p *HTMLProbe) Check(ctx context.Context, componentID string) Status {
	if ctx.Err() != nil {
		return StatusUnknown
	}

	url := fmt.Sprintf("%s/status/%s", p.BaseURL, componentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return StatusFailed
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return StatusUnknown
		}
		return StatusFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusFailed
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return StatusFailed
	}

	selection := doc.Find(p.Selector).First()
	if selection.Length() == 0 {
		return StatusFailed
	}

	text := strings.TrimSpace(selection.Text())
	if strings.EqualFold(text, p.Healthy) {
		return StatusHealthy
	}
	return StatusFailed
}
