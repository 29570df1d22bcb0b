package types

import "slices"

// PeerProfile 节点公开档案
//
// 按 ID 判等。Sequence 标识档案版本：合并时只有更大的 Sequence
// 才能覆盖 Address 与 Capabilities，过期的 gossip 永远不会覆盖新数据。
type PeerProfile struct {
	// ID 节点标识
	ID NodeID `json:"id"`

	// Address 节点对外地址（格式由网络层决定）
	Address string `json:"address"`

	// Capabilities 能力/主题声明
	Capabilities []string `json:"capabilities,omitempty"`

	// Sequence 档案版本号
	Sequence uint64 `json:"sequence"`
}

// Clone 深拷贝档案
func (p PeerProfile) Clone() PeerProfile {
	c := p
	if p.Capabilities != nil {
		c.Capabilities = slices.Clone(p.Capabilities)
	}
	return c
}

// HasCapability 检查是否声明了指定能力
func (p PeerProfile) HasCapability(capability string) bool {
	return slices.Contains(p.Capabilities, capability)
}

// SharedCapabilities 返回两份档案共同声明的能力数量
func (p PeerProfile) SharedCapabilities(other PeerProfile) int {
	n := 0
	for _, c := range p.Capabilities {
		if other.HasCapability(c) {
			n++
		}
	}
	return n
}

// NewerThan 是否比另一份档案更新
func (p PeerProfile) NewerThan(other PeerProfile) bool {
	return p.Sequence > other.Sequence
}
