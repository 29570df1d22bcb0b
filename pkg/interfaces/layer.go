package interfaces

import "github.com/dep2p/go-p2ptopology/pkg/types"

// StoreView 节点存储的只读视图
//
// 仅在 Layer 方法调用期间有效。返回的切片都是副本，按 NodeID 排序。
type StoreView interface {
	// Self 本地节点档案
	Self() types.PeerProfile

	// Profile 查询节点档案
	Profile(id types.NodeID) (types.PeerProfile, bool)

	// Classify 查询节点分类，不存在时返回 ClassUnknown
	Classify(id types.NodeID) types.Classification

	// Contactable 返回所有非隔离节点
	Contactable() []types.PeerProfile

	// Available 返回所有可用节点
	Available() []types.PeerProfile

	// Unreachable 返回所有不可达节点
	Unreachable() []types.PeerProfile

	// Len 返回存储中的记录数
	Len() int
}

// Layer 选择层
//
// 每个选择层独立维护自己对"感兴趣节点"的判断，协调器合并所有层的输出。
// 选择层可以维护私有状态（例如环上的位置），但不得修改节点分类。
type Layer interface {
	// Alias 选择层名称（用于日志）
	Alias() string

	// Select 选出本层认为相关的节点
	//
	// 只要存储中存在可联系的节点，结果就不应为空。
	Select(view StoreView, sel types.Selection) []types.NodeID

	// Reset 丢弃缓存状态，下次调用时从存储重建
	Reset()
}

// LayerPopulator 在存储更新后接收通知的选择层
type LayerPopulator interface {
	Layer

	// Populate 存储因 gossip 新增或更新了节点
	Populate(view StoreView, updated []types.NodeID)
}

// LayerGossiper 参与塑造出站 gossip 负载的选择层
type LayerGossiper interface {
	Layer

	// Gossip 返回本层希望告知目标节点的节点
	Gossip(view StoreView, to types.NodeID) []types.NodeID
}
