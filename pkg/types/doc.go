// Package types 定义拓扑模块的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他内部包。
// 所有类型都是纯值类型，用于在协调器、选择层、策略引擎与
// 网络层之间传递数据。
//
// # 文件组织
//
//   - ids.go      - NodeID 节点标识（Base58 外部表示）
//   - enums.go    - Classification, StrikeReason, SelectionKind
//   - profile.go  - PeerProfile 节点公开档案
//   - topology.go - Strike, PolicyReport, NodeCount, Selection, Gossips
//   - errors.go   - 公共错误定义
//
// # 值语义
//
// 跨组件传递的切片字段（例如 PeerProfile.Capabilities）在离开
// 存储之前都会被深拷贝，调用方拿到的永远是快照而不是存储内部的引用。
package types
