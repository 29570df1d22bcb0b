// Package policy 实现默认的惩罚/隔离策略引擎
//
// 策略是唯一可以修改节点分类的组件：
//
//	Strike   - 累计惩罚达到 MaxStrikes 时进入隔离
//	Contact  - 直接联系成功，Unknown/Unreachable 提升为 Available
//	Check    - 隔离到期恢复为 Unreachable，长期失联的 Available 降为 Unreachable
//
// 惩罚按 DecayMode 随时间衰减：
//
//	none        不衰减
//	linear      每经过一个 DecayInterval 免除一次惩罚
//	exponential 每经过一个 DecayInterval 惩罚数减半
//
// 时间来自 clock.Clock，测试中使用 clock.NewMock() 驱动。
package policy
