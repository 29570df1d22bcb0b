package topology

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Metrics 拓扑指标
//
// nil *Metrics 是合法的，所有记录方法都是空操作。
type Metrics struct {
	Transitions    *prometheus.CounterVec
	Strikes        *prometheus.CounterVec
	GossipAccepted prometheus.Counter
	GossipDropped  prometheus.Counter
}

// NewMetrics 创建拓扑指标（未注册）
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "topology",
			Name:      "policy_transitions_total",
			Help:      "Classification transitions decided by the policy, by target classification.",
		}, []string{"to"}),
		Strikes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "topology",
			Name:      "strikes_total",
			Help:      "Strikes reported against known peers, by reason.",
		}, []string{"reason"}),
		GossipAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "topology",
			Name:      "gossip_profiles_accepted_total",
			Help:      "Peer profiles folded into the store from gossip.",
		}),
		GossipDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "topology",
			Name:      "gossip_dropped_total",
			Help:      "Gossip payloads dropped because the sender is quarantined.",
		}),
	}
}

// Register 注册到 reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs error
	for _, c := range []prometheus.Collector{m.Transitions, m.Strikes, m.GossipAccepted, m.GossipDropped} {
		errs = multierr.Append(errs, reg.Register(c))
	}
	return errs
}

func (m *Metrics) observeReport(r *types.PolicyReport) {
	if m == nil || r == nil {
		return
	}
	m.Transitions.WithLabelValues(r.To.String()).Inc()
}

func (m *Metrics) observeStrike(reason types.StrikeReason) {
	if m == nil {
		return
	}
	m.Strikes.WithLabelValues(reason.String()).Inc()
}

func (m *Metrics) observeAccepted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.GossipAccepted.Add(float64(n))
}

func (m *Metrics) observeDropped() {
	if m == nil {
		return
	}
	m.GossipDropped.Inc()
}

// Collector 导出节点计数的 prometheus.Collector
type Collector struct {
	topology *Topology
	nodes    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector 创建节点计数采集器
func NewCollector(t *Topology, namespace string) *Collector {
	return &Collector{
		topology: t,
		nodes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "topology", "nodes"),
			"Known peers by classification.",
			[]string{"class"}, nil,
		),
	}
}

// Describe 实现 prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
}

// Collect 实现 prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	counts, err := c.topology.NodeCounts()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.nodes, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(counts.Available), types.ClassAvailable.String())
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(counts.Unreachable), types.ClassUnreachable.String())
	ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(counts.Quarantined), types.ClassQuarantined.String())
}
