// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义，带默认值与校验
//   - 支持从 JSON 加载和保存配置
//
// 使用示例：
//
//	cfg := config.NewConfig()
//	cfg.Policy.MaxStrikes = 5
//	cfg.Topology.NewPeerClass = "unknown"
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
package config

// KnownPeer 已知节点配置
//
// 启动时作为种子插入存储（分类为 unreachable），直到被直接联系。
type KnownPeer struct {
	// PeerID 节点 ID（Base58）
	PeerID string `json:"peer_id"`

	// Address 节点地址
	Address string `json:"address"`

	// Capabilities 节点能力声明（可选）
	Capabilities []string `json:"capabilities,omitempty"`
}

// Config 拓扑模块的完整配置结构
//
// 配置按照功能模块组织：
//   - Topology: 节点存储与选择层
//   - Policy: 惩罚与隔离策略
//   - Gossip: gossip 轮次驱动
//   - Storage: 持久化存储
//   - Metrics: 指标导出
//   - Log: 日志输出
type Config struct {
	// Topology 拓扑存储配置
	Topology TopologyConfig `json:"topology"`

	// Policy 策略配置
	Policy PolicyConfig `json:"policy"`

	// Gossip gossip 配置
	Gossip GossipConfig `json:"gossip"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`

	// Log 日志配置
	Log LogConfig `json:"log"`

	// KnownPeers 已知节点列表
	KnownPeers []KnownPeer `json:"known_peers,omitempty"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Topology: DefaultTopologyConfig(),
		Policy:   DefaultPolicyConfig(),
		Gossip:   DefaultGossipConfig(),
		Storage:  DefaultStorageConfig(),
		Metrics:  DefaultMetricsConfig(),
		Log:      DefaultLogConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Topology.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if err := c.Gossip.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return validateKnownPeers(c.KnownPeers)
}
