package types

import (
	"fmt"
	"time"
)

// Strike 一次惩罚记录
type Strike struct {
	Reason StrikeReason `json:"reason"`
	At     time.Time    `json:"at"`
}

// PolicyReport 策略评估结果
//
// 仅在分类发生转换时产生，不可变，返回给调用方后不在内部保留。
type PolicyReport struct {
	// ID 节点标识
	ID NodeID
	// From 转换前分类
	From Classification
	// To 转换后分类
	To Classification
	// Reason 触发原因（人类可读）
	Reason string
	// Strikes 转换时的累计惩罚数
	Strikes int
	// At 转换时间
	At time.Time
}

// String 返回报告的简短描述
func (r PolicyReport) String() string {
	return fmt.Sprintf("%s: %s -> %s (%s, strikes=%d)", r.ID.ShortString(), r.From, r.To, r.Reason, r.Strikes)
}

// NodeCount 节点计数快照
type NodeCount struct {
	Available   int `json:"available"`
	Unreachable int `json:"unreachable"`
	Quarantined int `json:"quarantined"`
}

// Total 三类节点总数
func (c NodeCount) Total() int {
	return c.Available + c.Unreachable + c.Quarantined
}

// Selection 视图请求
type Selection struct {
	// Kind 选择语义
	Kind SelectionKind
	// Topic 主题（仅 SelectTopic 使用）
	Topic string
	// Max 最大返回数量（0 表示不限制）
	Max int
}

// SelectAnyPeers 返回任意邻居的选择请求
func SelectAnyPeers() Selection {
	return Selection{Kind: SelectAny}
}

// SelectTopicPeers 返回指定主题的选择请求
func SelectTopicPeers(topic string) Selection {
	return Selection{Kind: SelectTopic, Topic: topic}
}

// Gossips gossip 负载
//
// 出站负载是生成时刻的存储快照，入站负载在合并后即被丢弃。
type Gossips struct {
	Profiles []PeerProfile
}

// Len 返回负载中的档案数量
func (g *Gossips) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Profiles)
}

// IDs 返回负载中的全部节点 ID
func (g *Gossips) IDs() []NodeID {
	if g == nil {
		return nil
	}
	ids := make([]NodeID, 0, len(g.Profiles))
	for _, p := range g.Profiles {
		ids = append(ids, p.ID)
	}
	return ids
}
