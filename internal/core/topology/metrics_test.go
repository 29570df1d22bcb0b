package topology

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test")
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))

	topo, _ := newTestTopology(t, DefaultConfig(), WithMetrics(m))
	p1, p2 := peer("p1"), peer("p2")
	require.NoError(t, topo.AcceptGossip(p1.ID, gossipFrom(p1, p2)))
	quarantine(t, topo, p2.ID)
	require.NoError(t, topo.AcceptGossip(p2.ID, gossipFrom(p2)))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.GossipAccepted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GossipDropped))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Strikes.WithLabelValues(types.StrikeProtocolViolation.String())))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("available")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Transitions.WithLabelValues("quarantined")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.observeAccepted(3)
	m.observeDropped()
	m.observeStrike(types.StrikeTimeout)
	m.observeReport(&types.PolicyReport{})
}

func TestCollector(t *testing.T) {
	topo, _ := newTestTopology(t, DefaultConfig())
	p1, p2, p3 := peer("p1"), peer("p2"), peer("p3")
	require.NoError(t, topo.AcceptGossip(p1.ID, gossipFrom(p1, p2, p3)))
	quarantine(t, topo, p2.ID)

	c := NewCollector(topo, "test")
	assert.Equal(t, 3, testutil.CollectAndCount(c))

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "test_topology_nodes", families[0].GetName())
	for _, metric := range families[0].GetMetric() {
		assert.Equal(t, float64(1), metric.GetGauge().GetValue())
	}
}
