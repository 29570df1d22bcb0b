// Package main 提供进程内多节点拓扑模拟
//
// 所有节点通过 gossiper.MemoryNetwork 相互交换 gossip，
// 启动时每个节点只知道环上的下一个节点，运行结束后输出各节点的分类统计。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dep2p/go-p2ptopology/config"
	"github.com/dep2p/go-p2ptopology/internal/core/storage"
	"github.com/dep2p/go-p2ptopology/internal/core/topology"
	"github.com/dep2p/go-p2ptopology/internal/core/topology/gossiper"
	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/lib/log"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

var logger = log.Logger("topology/sim")

var (
	nodes      = flag.Int("nodes", 16, "节点数量")
	down       = flag.Int("down", 2, "启动后下线的节点数量")
	duration   = flag.Duration("duration", 10*time.Second, "模拟时长")
	interval   = flag.Duration("interval", 250*time.Millisecond, "gossip 轮次间隔")
	configFile = flag.String("config", "", "配置文件路径（JSON）")
	logLevel   = flag.String("log-level", "", "日志级别（覆盖配置文件）")
	logJSON    = flag.Bool("log-json", false, "输出 JSON 格式日志")
)

// simNode 模拟节点
type simNode struct {
	self types.PeerProfile
	app  *fx.App
	topo *topology.Topology
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	base, err := loadConfig()
	if err != nil {
		return err
	}
	if *nodes < 2 {
		return errors.New("至少需要 2 个节点")
	}
	if *down >= *nodes {
		return errors.New("下线节点数必须小于节点总数")
	}

	profiles := make([]types.PeerProfile, *nodes)
	for i := range profiles {
		name := fmt.Sprintf("node-%02d", i)
		profiles[i] = types.PeerProfile{
			ID:           types.DeriveNodeID([]byte(name)),
			Address:      name + ".sim:4001",
			Capabilities: []string{fmt.Sprintf("shard-%d", i%4)},
			Sequence:     1,
		}
	}

	net := gossiper.NewMemoryNetwork()
	registry := prometheus.NewRegistry()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sim := make([]*simNode, 0, len(profiles))
	for i, self := range profiles {
		next := profiles[(i+1)%len(profiles)]
		cfg := config.CloneConfig(base)
		cfg.KnownPeers = []config.KnownPeer{{PeerID: next.ID.String(), Address: next.Address}}

		n, err := newSimNode(cfg, self, net, registry)
		if err != nil {
			return err
		}
		if err := n.app.Start(ctx); err != nil {
			return fmt.Errorf("启动 %s 失败: %w", self.ID.ShortString(), err)
		}
		sim = append(sim, n)
	}
	logger.Info("模拟已启动", "nodes", len(sim), "down", *down, "duration", *duration)

	for _, n := range sim[len(sim)-*down:] {
		net.SetDown(n.self.ID, true)
		logger.Info("节点下线", "peer", n.self.ID.ShortString())
	}

	select {
	case <-ctx.Done():
	case <-time.After(*duration):
	}

	report(sim)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	var errs error
	for _, n := range sim {
		errs = multierr.Append(errs, n.app.Stop(stopCtx))
	}
	return errs
}

func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Gossip.Interval = config.Duration(*interval)
	cfg.Storage.InMemory = true
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.JSON = true
	}

	cfg, err := config.ValidateAndFix(cfg)
	if err != nil {
		return nil, err
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log.SetOutputWithLevel(os.Stderr, level, cfg.Log.JSON)
	return cfg, nil
}

func newSimNode(cfg *config.Config, self types.PeerProfile, net *gossiper.MemoryNetwork, registry *prometheus.Registry) (*simNode, error) {
	n := &simNode{self: self}
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"node": self.ID.ShortString()}, registry)

	n.app = fx.New(
		fx.Supply(cfg, self),
		fx.Provide(
			func() prometheus.Registerer { return reg },
			func() interfaces.GossipTransport { return net.Transport(self.ID) },
		),
		storage.Module(),
		topology.Module(),
		gossiper.Module(),
		fx.Invoke(func(h gossiper.Handler) { net.Register(self.ID, h) }),
		fx.Populate(&n.topo),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)
	if err := n.app.Err(); err != nil {
		return nil, fmt.Errorf("构建 %s 失败: %w", self.ID.ShortString(), err)
	}
	return n, nil
}

func report(sim []*simNode) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tAVAILABLE\tUNREACHABLE\tQUARANTINED")
	for _, n := range sim {
		counts, err := n.topo.NodeCounts()
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t(%v)\n", n.self.ID.ShortString(), err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", n.self.ID.ShortString(), counts.Available, counts.Unreachable, counts.Quarantined)
	}
	_ = w.Flush()
}
