package policy

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var logger = log.Logger("topology/policy")

// 报告原因（惩罚类报告使用 StrikeReason.String()）
const (
	ReasonContact           = "contact"
	ReasonContactLost       = "contact_lost"
	ReasonQuarantineExpired = "quarantine_expired"
)

var _ interfaces.Policy = (*Policy)(nil)

// Policy 默认策略引擎
//
// Policy 自身无状态，全部状态保存在 PeerRecord 中，
// 调用方负责对记录加锁。
type Policy struct {
	cfg   config.PolicyConfig
	clock clock.Clock
}

// New 创建策略引擎
//
// clk 为 nil 时使用系统时钟。
func New(cfg config.PolicyConfig, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.New()
	}
	return &Policy{cfg: cfg, clock: clk}
}

// Factory 适配 topology.WithPolicyFactory
func Factory(cfg config.PolicyConfig, clk clock.Clock) interfaces.Policy {
	return New(cfg, clk)
}

// Config 返回当前配置
func (p *Policy) Config() config.PolicyConfig {
	return p.cfg
}

// Strike 记录一次惩罚
//
// 先衰减旧惩罚再计数。已隔离的节点只记录不报告。
func (p *Policy) Strike(rec interfaces.PeerRecord, reason types.StrikeReason) *types.PolicyReport {
	now := p.clock.Now()
	p.decay(rec, now)
	rec.AddStrike(types.Strike{Reason: reason, At: now})

	from := rec.Classification()
	if from == types.ClassQuarantined {
		return nil
	}
	if rec.StrikeCount() < p.cfg.MaxStrikes {
		logger.Debug("记录惩罚", "peer", rec.Profile().ID.ShortString(), "reason", reason.String(), "strikes", rec.StrikeCount())
		return nil
	}

	rec.SetClassification(types.ClassQuarantined, now)
	return report(rec, from, reason.String(), now)
}

// Contact 记录一次成功的直接联系
func (p *Policy) Contact(rec interfaces.PeerRecord) *types.PolicyReport {
	now := p.clock.Now()
	from := rec.Classification()
	if from == types.ClassQuarantined {
		return nil
	}

	rec.MarkContact(now)
	if p.cfg.DecayMode != config.DecayNone && rec.StrikeCount() > 0 {
		rec.ForgiveStrikes(1, now)
	}

	if from == types.ClassAvailable {
		return nil
	}
	rec.SetClassification(types.ClassAvailable, now)
	return report(rec, from, ReasonContact, now)
}

// Check 评估衰减、隔离到期与失联
func (p *Policy) Check(rec interfaces.PeerRecord) *types.PolicyReport {
	now := p.clock.Now()
	p.decay(rec, now)

	switch rec.Classification() {
	case types.ClassQuarantined:
		d := p.cfg.QuarantineDuration.Duration()
		if d <= 0 || now.Sub(rec.QuarantinedAt()) < d {
			return nil
		}
		rec.ClearStrikes()
		rec.SetClassification(types.ClassUnreachable, now)
		return report(rec, types.ClassQuarantined, ReasonQuarantineExpired, now)

	case types.ClassAvailable:
		timeout := p.cfg.AvailabilityTimeout.Duration()
		if timeout <= 0 || now.Sub(rec.LastContact()) < timeout {
			return nil
		}
		rec.SetClassification(types.ClassUnreachable, now)
		return report(rec, types.ClassAvailable, ReasonContactLost, now)
	}
	return nil
}

// decay 按配置的衰减模式免除惩罚
//
// 锚点按整数个周期前移，重复调用不会重复免除。
func (p *Policy) decay(rec interfaces.PeerRecord, now time.Time) {
	n := rec.StrikeCount()
	interval := p.cfg.DecayInterval.Duration()
	if n == 0 || interval <= 0 || p.cfg.DecayMode == config.DecayNone {
		return
	}

	anchor := rec.DecayAnchor()
	elapsed := now.Sub(anchor)
	if elapsed < interval {
		return
	}
	periods := int(elapsed / interval)
	next := anchor.Add(time.Duration(periods) * interval)

	var forgive int
	switch p.cfg.DecayMode {
	case config.DecayLinear:
		forgive = min(periods, n)
	case config.DecayExponential:
		remaining := 0
		if periods < 63 {
			remaining = n >> periods
		}
		forgive = n - remaining
	}
	rec.ForgiveStrikes(forgive, next)
}

func report(rec interfaces.PeerRecord, from types.Classification, reason string, at time.Time) *types.PolicyReport {
	return &types.PolicyReport{
		ID:      rec.Profile().ID,
		From:    from,
		To:      rec.Classification(),
		Reason:  reason,
		Strikes: rec.StrikeCount(),
		At:      at,
	}
}
