package interfaces

import (
	"context"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// GossipTransport 网络层 gossip 交换能力
//
// 拓扑模块不决定传输协议，也不做重试；调用方负责在调用
// AcceptGossip 之前为远程交换设置超时。
type GossipTransport interface {
	// Exchange 向目标节点发送编码后的 gossip 并返回对方的回复
	Exchange(ctx context.Context, to types.PeerProfile, payload []byte) ([]byte, error)
}
