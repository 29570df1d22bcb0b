package topology

import (
	"time"

	"github.com/dep2p/go-p2ptopology/internal/core/topology/peercache"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var _ interfaces.PeerRecord = (*PeerRecord)(nil)

// PeerRecord 节点记录
//
// 只属于 store，除策略引擎外不会交给其他组件。
type PeerRecord struct {
	profile types.PeerProfile
	class   types.Classification

	strikes []types.Strike
	anchor  time.Time

	lastSeen      time.Time
	lastContact   time.Time
	quarantinedAt time.Time
	quarantines   int
}

func newPeerRecord(profile types.PeerProfile, class types.Classification, now time.Time) *PeerRecord {
	r := &PeerRecord{
		profile:  profile.Clone(),
		class:    class,
		lastSeen: now,
	}
	if class == types.ClassQuarantined {
		r.quarantinedAt = now
	}
	return r
}

func recordFromEntry(e peercache.Entry, now time.Time) *PeerRecord {
	r := &PeerRecord{
		profile:       e.Profile.Clone(),
		class:         e.Classification,
		strikes:       append([]types.Strike(nil), e.Strikes...),
		lastSeen:      e.LastSeen,
		quarantinedAt: e.QuarantinedAt,
		quarantines:   e.QuarantineCount,
	}
	if r.lastSeen.IsZero() {
		r.lastSeen = now
	}
	if n := len(r.strikes); n > 0 {
		r.anchor = r.strikes[n-1].At
	}
	if r.class == types.ClassQuarantined && r.quarantinedAt.IsZero() {
		r.quarantinedAt = now
	}
	return r
}

func (r *PeerRecord) entry() peercache.Entry {
	return peercache.Entry{
		Profile:         r.profile.Clone(),
		Classification:  r.class,
		Strikes:         r.Strikes(),
		LastSeen:        r.lastSeen,
		QuarantinedAt:   r.quarantinedAt,
		QuarantineCount: r.quarantines,
	}
}

// Profile 节点档案（副本）
func (r *PeerRecord) Profile() types.PeerProfile { return r.profile.Clone() }

// Classification 当前分类
func (r *PeerRecord) Classification() types.Classification { return r.class }

// SetClassification 修改分类
func (r *PeerRecord) SetClassification(c types.Classification, at time.Time) {
	if c == types.ClassQuarantined && r.class != types.ClassQuarantined {
		r.quarantinedAt = at
		r.quarantines++
	}
	r.class = c
}

// Strikes 惩罚历史（副本）
func (r *PeerRecord) Strikes() []types.Strike {
	if len(r.strikes) == 0 {
		return nil
	}
	return append([]types.Strike(nil), r.strikes...)
}

// StrikeCount 当前有效惩罚数
func (r *PeerRecord) StrikeCount() int { return len(r.strikes) }

// AddStrike 记录一次惩罚
func (r *PeerRecord) AddStrike(s types.Strike) {
	r.strikes = append(r.strikes, s)
	r.anchor = s.At
}

// ForgiveStrikes 移除最早的 n 次惩罚
func (r *PeerRecord) ForgiveStrikes(n int, anchor time.Time) {
	if n > len(r.strikes) {
		n = len(r.strikes)
	}
	if n > 0 {
		r.strikes = append(r.strikes[:0:0], r.strikes[n:]...)
	}
	r.anchor = anchor
}

// ClearStrikes 清空惩罚
func (r *PeerRecord) ClearStrikes() { r.strikes = nil }

// DecayAnchor 衰减计时起点
func (r *PeerRecord) DecayAnchor() time.Time { return r.anchor }

// LastSeen 最近一次出现的时间
func (r *PeerRecord) LastSeen() time.Time { return r.lastSeen }

// LastContact 最近一次直接联系的时间
func (r *PeerRecord) LastContact() time.Time { return r.lastContact }

// MarkContact 记录一次直接联系
func (r *PeerRecord) MarkContact(at time.Time) {
	r.lastContact = at
	r.lastSeen = at
}

// QuarantinedAt 最近一次进入隔离的时间
func (r *PeerRecord) QuarantinedAt() time.Time { return r.quarantinedAt }

// QuarantineCount 累计隔离次数
func (r *PeerRecord) QuarantineCount() int { return r.quarantines }
