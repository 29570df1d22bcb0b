// Package gossiper 驱动周期性的 gossip 轮次
//
// 每一轮从拓扑视图中选出 Fanout 个目标，并行地与它们交换 gossip：
//
//	InitiateGossip → Encode → Transport.Exchange → Decode → AcceptGossip
//
// 交换失败会作为惩罚报告给拓扑：超时记为 Timeout，其他错误记为
// ConnectionFailed，无法解码的回复记为 InvalidGossip。
//
// 入站交换由 HandleExchange 处理，按发送方限流。
//
// 传输层由调用方提供（interfaces.GossipTransport），MemoryNetwork
// 是用于测试和模拟的进程内实现。本包不做重试与退避。
package gossiper

//go:generate mockgen -destination=mock_transport_test.go -package=gossiper github.com/dep2p/go-p2ptopology/pkg/interfaces GossipTransport
