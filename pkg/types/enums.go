package types

import (
	"fmt"
	"strings"
)

// ============================================================================
//                              Classification - 节点分类
// ============================================================================

// Classification 节点可达性分类
//
// 状态机：
//
//	Unknown → Unreachable（首次在 gossip 中出现）
//	Unreachable ⇄ Available（直接联系成功 / 失去联系）
//	Available|Unreachable → Quarantined（策略根据累计惩罚决定）
//	Quarantined → Unreachable（仅通过策略的恢复路径）
type Classification int

const (
	// ClassUnknown 未知（不在存储中，或尚未分类）
	ClassUnknown Classification = iota
	// ClassUnreachable 已知但当前不可联系
	ClassUnreachable
	// ClassAvailable 可用
	ClassAvailable
	// ClassQuarantined 隔离中
	ClassQuarantined
)

// String 返回分类的字符串表示
func (c Classification) String() string {
	switch c {
	case ClassUnreachable:
		return "unreachable"
	case ClassAvailable:
		return "available"
	case ClassQuarantined:
		return "quarantined"
	default:
		return "unknown"
	}
}

// ParseClassification 解析分类名称
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown":
		return ClassUnknown, nil
	case "unreachable":
		return ClassUnreachable, nil
	case "available":
		return ClassAvailable, nil
	case "quarantined":
		return ClassQuarantined, nil
	default:
		return ClassUnknown, fmt.Errorf("%w: %q", ErrUnknownClassification, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Contactable 是否可以被选入视图
func (c Classification) Contactable() bool {
	return c != ClassQuarantined
}

// ============================================================================
//                              StrikeReason - 惩罚原因
// ============================================================================

// StrikeReason 惩罚原因
type StrikeReason int

const (
	// StrikeTimeout 请求超时
	StrikeTimeout StrikeReason = iota + 1
	// StrikeConnectionFailed 连接失败
	StrikeConnectionFailed
	// StrikeProtocolViolation 协议违规
	StrikeProtocolViolation
	// StrikeInvalidGossip gossip 负载无法解析或不合法
	StrikeInvalidGossip
)

// String 返回原因的字符串表示
func (r StrikeReason) String() string {
	switch r {
	case StrikeTimeout:
		return "timeout"
	case StrikeConnectionFailed:
		return "connection_failed"
	case StrikeProtocolViolation:
		return "protocol_violation"
	case StrikeInvalidGossip:
		return "invalid_gossip"
	default:
		return "unknown"
	}
}

// ParseStrikeReason 解析惩罚原因名称
func ParseStrikeReason(s string) (StrikeReason, error) {
	for _, r := range []StrikeReason{StrikeTimeout, StrikeConnectionFailed, StrikeProtocolViolation, StrikeInvalidGossip} {
		if r.String() == strings.ToLower(strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrikeReason, s)
}

// ============================================================================
//                              SelectionKind - 视图选择语义
// ============================================================================

// SelectionKind 视图选择语义
type SelectionKind int

const (
	// SelectAny 任意邻居（事件传播）
	SelectAny SelectionKind = iota
	// SelectTopic 订阅了指定主题（能力）的邻居
	SelectTopic
)

// String 返回选择语义的字符串表示
func (k SelectionKind) String() string {
	switch k {
	case SelectTopic:
		return "topic"
	default:
		return "any"
	}
}
