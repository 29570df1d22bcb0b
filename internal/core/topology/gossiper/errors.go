package gossiper

import "errors"

var (
	// ErrRateLimited 发送方超过入站速率限制
	ErrRateLimited = errors.New("gossiper: inbound gossip rate limited")

	// ErrUnreachable 内存网络中目标不存在或已下线
	ErrUnreachable = errors.New("gossiper: peer unreachable")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("gossiper: already started")

	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("gossiper: invalid configuration")
)
