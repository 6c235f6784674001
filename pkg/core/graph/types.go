package graph

// Component 组件节点（实现 go-dag 的 Identifiable 接口）
type Component struct {
	ComponentID string // 组件唯一ID（图内唯一）
}

// ID 实现 Identifiable 接口
func (c *Component) ID() string {
	return c.ComponentID
}

// TopologicalOrder 拓扑排序结果（对外导出）
type TopologicalOrder struct {
	Levels [][]string // 每一层的组件ID列表，层内组件相互独立，可并发评估
}

// Flatten 按层级展开为一维有序列表（层内按ID升序，保证确定性）
func (o *TopologicalOrder) Flatten() []string {
	total := 0
	for _, level := range o.Levels {
		total += len(level)
	}
	flat := make([]string, 0, total)
	for _, level := range o.Levels {
		flat = append(flat, level...)
	}
	return flat
}
