package dto

// EvaluateRequest 评估请求
// Graph: 组件ID -> 该组件依赖的组件ID列表
type EvaluateRequest struct {
	Graph       map[string][]string `json:"graph" binding:"required"`
	Concurrency int                 `json:"concurrency" binding:"omitempty,min=1,max=1000"`
	TimeoutMs   int                 `json:"timeout_ms" binding:"omitempty,min=1"`
}

// ListQueryRequest 通用列表查询请求
type ListQueryRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// GetDefaultLimit 获取默认limit
func (r *ListQueryRequest) GetDefaultLimit() int {
	if r.Limit <= 0 {
		return 20
	}
	return r.Limit
}
