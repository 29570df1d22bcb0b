// Package layers 汇总默认选择层
//
//	rings    - 按 ID 排成环，选择本地节点的前驱与后继
//	vicinity - 按能力重叠度选择邻近节点
//	cyclon   - 维护随节点老化的随机缓存
//
// 各层只保存私有状态，不修改节点分类。
package layers
