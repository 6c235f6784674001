package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/health-graph/pkg/api/dto"
	"github.com/LENAX/health-graph/pkg/core/engine"
	"github.com/LENAX/health-graph/pkg/core/graph"
	"github.com/LENAX/health-graph/pkg/render"
	"github.com/LENAX/health-graph/pkg/storage"
)

// EvaluationHandler 评估API处理器
type EvaluationHandler struct {
	engine *engine.Engine
	repo   storage.ReportRepository // 可为nil（未配置存储时历史接口返回503）
}

// NewEvaluationHandler 创建EvaluationHandler
func NewEvaluationHandler(eng *engine.Engine, repo storage.ReportRepository) *EvaluationHandler {
	return &EvaluationHandler{engine: eng, repo: repo}
}

// Create 提交依赖描述并执行评估
// POST /api/v1/evaluations
func (h *EvaluationHandler) Create(c *gin.Context) {
	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("请求体格式错误: %v", err)))
		return
	}

	ctx := c.Request.Context()
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	result, err := h.engine.Evaluate(ctx, req.Graph, req.Concurrency)
	if err != nil {
		// 结构性错误在任何探测开始前被拒绝
		if errors.Is(err, graph.ErrCycle) || errors.Is(err, graph.ErrUnknownDependency) {
			c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(422, err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("评估失败: %v", err)))
		return
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(toEvaluationResponse(result)))
}

// List 查询评估历史
// GET /api/v1/evaluations
func (h *EvaluationHandler) List(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "评估历史存储未配置"))
		return
	}

	var query dto.ListQueryRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("查询参数错误: %v", err)))
		return
	}

	ctx := c.Request.Context()
	limit := query.GetDefaultLimit()

	rows, err := h.repo.List(ctx, limit, query.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询评估历史失败: %v", err)))
		return
	}
	total, err := h.repo.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("统计评估历史失败: %v", err)))
		return
	}

	items := make([]dto.EvaluationSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.EvaluationSummary{
			ID:             row.ID,
			RequestedAt:    row.RequestedAt,
			DurationMs:     row.DurationMs,
			Overall:        row.Overall,
			ComponentCount: row.ComponentCount,
		})
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HistoryResponse{
		Total:   total,
		Items:   items,
		HasMore: query.Offset+len(items) < total,
	}))
}

// Get 查询单次评估报告
// GET /api/v1/evaluations/:id
func (h *EvaluationHandler) Get(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(toEvaluationResponse(result)))
}

// Image 渲染评估结果的SVG图
// GET /api/v1/evaluations/:id/image
// 渲染失败不影响已持久化的报告本身
func (h *EvaluationHandler) Image(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}

	svg, err := render.SVG(result.Graph, result.Report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("渲染失败: %v", err)))
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", svg)
}

// Table 渲染评估结果的HTML表格
// GET /api/v1/evaluations/:id/table
func (h *EvaluationHandler) Table(c *gin.Context) {
	result, ok := h.loadResult(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(render.HTMLTable(result.Report)))
}

// loadResult 从历史仓储加载并重建评估结果
// 失败时负责写响应并返回 ok=false
func (h *EvaluationHandler) loadResult(c *gin.Context) (*engine.EvaluationResult, bool) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, "评估历史存储未配置"))
		return nil, false
	}

	id := c.Param("id")
	row, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("评估记录不存在: %s", id)))
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("查询评估记录失败: %v", err)))
		return nil, false
	}

	result, err := engine.ResultFromRow(row)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, fmt.Sprintf("恢复评估结果失败: %v", err)))
		return nil, false
	}
	return result, true
}

// toEvaluationResponse 转换为响应DTO
func toEvaluationResponse(result *engine.EvaluationResult) dto.EvaluationResponse {
	return dto.EvaluationResponse{
		ID:          result.ID,
		RequestedAt: result.RequestedAt,
		DurationMs:  result.Duration.Milliseconds(),
		Overall:     string(result.Report.Overall),
		Components:  result.Report.Entries,
		ImageURL:    fmt.Sprintf("/api/v1/evaluations/%s/image", result.ID),
		TableURL:    fmt.Sprintf("/api/v1/evaluations/%s/table", result.ID),
	}
}
