// Package interfaces 定义拓扑模块的公共接口
//
// 协调器只通过这些接口与外部协作者交互：
//   - topology.go  - Topology 协调器对外操作面
//   - layer.go     - Layer 选择层能力（以及可选的 Populator/Gossiper 扩展）
//   - policy.go    - Policy 策略引擎能力与 PeerRecord 记录视图
//   - transport.go - GossipTransport 网络层能力
//
// 选择层和策略引擎都在协调器的写锁内被调用，实现无需自行加锁，
// 但也不得保留 StoreView / PeerRecord 的引用到调用之外。
package interfaces
