package interfaces

import "github.com/dep2p/go-p2ptopology/pkg/types"

// Topology 拓扑协调器
//
// 所有操作在单个读写锁下串行执行。内部状态因先前的 panic
// 损坏后，所有操作都返回不可恢复的内部错误。
type Topology interface {
	// Node 本地节点档案
	Node() types.PeerProfile

	// RegisterLayer 追加一个选择层
	RegisterLayer(layer Layer) error

	// View 合并所有选择层的结果，返回本轮邻居
	View(sel types.Selection) ([]types.PeerProfile, error)

	// InitiateGossip 为目标节点生成出站 gossip
	InitiateGossip(to types.NodeID) (*types.Gossips, error)

	// AcceptGossip 合并来自某节点的 gossip
	AcceptGossip(from types.NodeID, gossips *types.Gossips) error

	// ExchangeGossip 原子地合并入站 gossip 并生成回复
	ExchangeGossip(with types.NodeID, gossips *types.Gossips) (*types.Gossips, error)

	// ReportStrike 记录一次惩罚；节点未知时返回 nil, nil
	ReportStrike(id types.NodeID, reason types.StrikeReason) (*types.PolicyReport, error)

	// NodeCounts 节点计数快照
	NodeCounts() (types.NodeCount, error)

	// ListAvailable 可用节点快照
	ListAvailable() ([]types.PeerProfile, error)

	// ListUnreachable 不可达节点快照
	ListUnreachable() ([]types.PeerProfile, error)

	// ListQuarantined 隔离节点快照
	ListQuarantined() ([]types.PeerProfile, error)

	// ForceResetLayers 让所有选择层丢弃缓存状态
	ForceResetLayers() error
}
