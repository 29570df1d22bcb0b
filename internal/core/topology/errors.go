package topology

import "errors"

var (
	// ErrPoisoned 临界区内发生 panic 后拓扑不再可用
	ErrPoisoned = errors.New("topology: poisoned by panic in critical section")

	// ErrNilLayer 注册了 nil 选择层
	ErrNilLayer = errors.New("topology: nil layer")

	// ErrDuplicateLayer 选择层别名重复
	ErrDuplicateLayer = errors.New("topology: duplicate layer alias")

	// ErrNoPolicy 策略工厂没有返回策略
	ErrNoPolicy = errors.New("topology: no policy")

	// ErrEmptySelf 本地节点 ID 为空
	ErrEmptySelf = errors.New("topology: empty local node id")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("topology: invalid configuration")
)
