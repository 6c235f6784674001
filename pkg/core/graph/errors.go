package graph

import "errors"

// 结构性错误哨兵（对外导出，调用方通过 errors.Is 判断错误类别）
var (
	// ErrUnknownDependency 依赖了未定义的组件
	ErrUnknownDependency = errors.New("未知依赖")
	// ErrCycle 依赖关系存在循环
	ErrCycle = errors.New("检测到循环依赖")
)
