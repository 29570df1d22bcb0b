package interfaces

import (
	"time"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// PeerRecord 节点记录的可变视图
//
// 只有策略引擎会拿到这个视图，分类只能经由策略修改。
type PeerRecord interface {
	// Profile 节点档案（副本）
	Profile() types.PeerProfile

	// Classification 当前分类
	Classification() types.Classification

	// SetClassification 修改分类
	SetClassification(c types.Classification, at time.Time)

	// Strikes 惩罚历史（副本）
	Strikes() []types.Strike

	// StrikeCount 当前有效惩罚数
	StrikeCount() int

	// AddStrike 记录一次惩罚
	AddStrike(s types.Strike)

	// ForgiveStrikes 移除最早的 n 次惩罚，并把衰减锚点设为 anchor
	ForgiveStrikes(n int, anchor time.Time)

	// DecayAnchor 衰减计时起点（最近一次惩罚或最近一次衰减）
	DecayAnchor() time.Time

	// ClearStrikes 清空惩罚
	ClearStrikes()

	// LastSeen 最近一次在 gossip 中出现或直接联系的时间
	LastSeen() time.Time

	// LastContact 最近一次直接联系的时间
	LastContact() time.Time

	// MarkContact 记录一次直接联系
	MarkContact(at time.Time)

	// QuarantinedAt 最近一次进入隔离的时间
	QuarantinedAt() time.Time

	// QuarantineCount 累计隔离次数
	QuarantineCount() int
}

// Policy 策略引擎
//
// 所有方法仅在分类发生转换时返回报告，否则返回 nil。
// 衰减与恢复也必须经由本接口完成。
type Policy interface {
	// Strike 记录一次惩罚并评估是否转换分类
	Strike(rec PeerRecord, reason types.StrikeReason) *types.PolicyReport

	// Contact 记录一次成功的直接联系
	Contact(rec PeerRecord) *types.PolicyReport

	// Check 评估与时间相关的衰减和恢复
	Check(rec PeerRecord) *types.PolicyReport
}
