// Package topology 实现 P2P 覆盖网络的拓扑协调器
//
// Topology 持有节点记录存储、已注册的选择层和策略引擎，
// 所有操作都经由同一把锁：
//
//	┌──────────────────────────────────────────────┐
//	│                  Topology                    │
//	│  View / Gossip / ReportStrike / 查询          │
//	├───────────────┬───────────────┬──────────────┤
//	│ store         │ layers        │ policy       │
//	│ 节点记录与索引 │ rings ...     │ 惩罚与隔离    │
//	└───────────────┴───────────────┴──────────────┘
//
// # 节点分类
//
//	Unknown → Unreachable   首次在 gossip 中出现（可配置）
//	Unreachable → Available 收到该节点的 gossip（直接联系）
//	Available → Unreachable 超过 AvailabilityTimeout 未联系
//	* → Quarantined         累计惩罚达到 MaxStrikes
//	Quarantined → Unreachable 隔离到期
//
// 分类只能由策略引擎修改。档案刷新不会降低分类。
//
// # 使用示例
//
//	t, err := topology.New(self, topology.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	_ = t.RegisterDefaultLayers()
//
//	g, _ := t.InitiateGossip(peer)
//	// 发送 g，收到回复后
//	_ = t.AcceptGossip(peer, reply)
//
//	view, _ := t.View(types.SelectAnyPeers())
package topology
