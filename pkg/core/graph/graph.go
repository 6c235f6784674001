// Package graph 负责把依赖描述解析为校验过的有向无环图
//
// 方向约定（全仓库统一）：description[x] 表示 x 所依赖的组件列表，
// 即依赖先于依赖方被评估；图内存储的边方向为 依赖 -> 依赖方。
package graph

import (
	"fmt"
	"sort"

	dag "github.com/begmaroman/go-dag"
)

// Graph 校验过的组件依赖图（对外导出）
// 由 Build 构造，构造完成后只读；每次评估请求构建一个新实例
type Graph struct {
	dag  *dag.DAG[*Component] // go-dag 邻接结构（边：依赖 -> 依赖方）
	ids  []string             // 全部组件ID（升序，保证遍历确定性）
	deps map[string][]string  // 组件ID -> 依赖ID列表（升序去重）
}

// Build 从依赖描述构建依赖图（对外导出）
// description: 组件ID -> 该组件依赖的组件ID列表
// 校验：引用的依赖必须已定义（ErrUnknownDependency）、依赖关系无环（ErrCycle）
// 纯函数，除构造图外无任何副作用
func Build(description map[string][]string) (*Graph, error) {
	if len(description) == 0 {
		return nil, fmt.Errorf("依赖描述为空")
	}

	// 1. 收集全部组件ID并排序（map 遍历无序，排序保证确定性）
	ids := make([]string, 0, len(description))
	for id := range description {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// 2. 校验依赖引用，同时去重并排序每个组件的依赖列表
	deps := make(map[string][]string, len(description))
	for _, id := range ids {
		seen := make(map[string]struct{}, len(description[id]))
		list := make([]string, 0, len(description[id]))
		for _, depID := range description[id] {
			if _, defined := description[depID]; !defined {
				return nil, fmt.Errorf("%w: 组件 %s 依赖了未定义的组件 %s", ErrUnknownDependency, id, depID)
			}
			if _, dup := seen[depID]; dup {
				continue
			}
			seen[depID] = struct{}{}
			list = append(list, depID)
		}
		sort.Strings(list)
		deps[id] = list
	}

	// 3. 先在临时邻接表上做一次性循环检测（三色标记法），
	//    再写入 go-dag，避免每次 AddEdge 都触发库内部的递归检查
	if cyclePath := detectCycle(ids, deps); cyclePath != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, cyclePath)
	}

	// 4. 构建 go-dag 实例（库本身线程安全）
	d := dag.NewDAG[*Component]()
	for _, id := range ids {
		if _, err := d.AddVertex(&Component{ComponentID: id}); err != nil {
			return nil, fmt.Errorf("添加节点失败: 组件ID=%s, Error=%w", id, err)
		}
	}
	for _, id := range ids {
		for _, depID := range deps[id] {
			// 边方向：依赖 -> 依赖方
			if err := d.AddEdge(depID, id); err != nil {
				return nil, fmt.Errorf("添加边失败: %s -> %s, Error=%w", depID, id, err)
			}
		}
	}

	return &Graph{dag: d, ids: ids, deps: deps}, nil
}

// detectCycle 使用显式栈的DFS三色标记法检测循环
// 0=白色（未访问），1=灰色（正在访问），2=黑色（已访问）
// 存在后向边（指向灰色节点）即存在循环，返回循环路径；无环返回 nil
// 自环（组件依赖自身）是最小的循环，同样在此处被捕获
// 与调度器一致采用迭代式遍历，病态深度的图不会耗尽调用栈
func detectCycle(ids []string, deps map[string][]string) []string {
	color := make(map[string]int, len(ids))
	parent := make(map[string]string, len(ids))

	// frame 记录当前节点及下一条待检查的出边下标
	type frame struct {
		id   string
		next int
	}

	for _, root := range ids {
		if color[root] != 0 {
			continue
		}
		color[root] = 1
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(deps[top.id]) {
				depID := deps[top.id][top.next]
				top.next++

				switch color[depID] {
				case 0:
					color[depID] = 1
					parent[depID] = top.id
					stack = append(stack, frame{id: depID})
				case 1:
					// 灰色节点，存在后向边，沿parent链构建循环路径
					cyclePath := []string{depID}
					cur := top.id
					for cur != depID && cur != "" {
						cyclePath = append(cyclePath, cur)
						cur = parent[cur]
					}
					cyclePath = append(cyclePath, depID) // 闭合循环
					return cyclePath
				}
				// 黑色节点跳过
				continue
			}

			color[top.id] = 2
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// Components 返回全部组件ID（升序）
func (g *Graph) Components() []string {
	return g.ids
}

// Size 返回组件数量
func (g *Graph) Size() int {
	return len(g.ids)
}

// Dependencies 返回指定组件直接依赖的组件ID列表（升序）
func (g *Graph) Dependencies(id string) []string {
	return g.deps[id]
}

// Dependents 返回直接依赖指定组件的组件ID列表（升序）
func (g *Graph) Dependents(id string) []string {
	children, err := g.dag.GetChildren(id)
	if err != nil {
		return nil
	}
	result := make([]string, 0, len(children))
	for childID := range children {
		result = append(result, childID)
	}
	sort.Strings(result)
	return result
}

// TopologicalSort 执行拓扑排序（对外导出）
// 使用 Kahn 算法按层级输出：每一层的组件相互独立，层内按ID升序
// 排序逻辑独立于调度器的并发机制，可单独测试
func (g *Graph) TopologicalSort() (*TopologicalOrder, error) {
	// 1. 计算每个节点的入度（即依赖数量）
	inDegree := make(map[string]int, len(g.ids))
	for _, id := range g.ids {
		inDegree[id] = len(g.deps[id])
	}

	// 2. 找出所有入度为0的节点（无依赖的根）
	queue := make([]string, 0)
	for _, id := range g.ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	// 3. 逐层移除入度为0的节点，并更新其依赖方的入度
	result := &TopologicalOrder{Levels: make([][]string, 0)}
	processed := 0
	for len(queue) > 0 {
		sort.Strings(queue)
		currentLevel := queue
		nextQueue := make([]string, 0)

		for _, id := range currentLevel {
			processed++
			for _, dependentID := range g.Dependents(id) {
				inDegree[dependentID]--
				if inDegree[dependentID] == 0 {
					nextQueue = append(nextQueue, dependentID)
				}
			}
		}

		result.Levels = append(result.Levels, currentLevel)
		queue = nextQueue
	}

	// 4. 检查是否所有节点都被处理（Build 已拒绝循环，此处为保底校验）
	if processed != len(g.ids) {
		return nil, fmt.Errorf("%w: 拓扑排序存在未处理的节点", ErrCycle)
	}

	return result, nil
}
