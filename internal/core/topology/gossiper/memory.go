package gossiper

import (
	"context"
	"fmt"
	"sync"

	"github.com/dep2p/go-p2ptopology/pkg/interfaces"
	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// Handler 入站 gossip 处理器
//
// *Gossiper 实现此接口。
type Handler interface {
	HandleExchange(ctx context.Context, from types.NodeID, payload []byte) ([]byte, error)
}

// MemoryNetwork 进程内 gossip 网络
//
// 用于测试和模拟，支持让节点下线或吞掉请求（直到超时）。
type MemoryNetwork struct {
	mu        sync.RWMutex
	handlers  map[types.NodeID]Handler
	down      map[types.NodeID]bool
	blackhole map[types.NodeID]bool
}

// NewMemoryNetwork 创建进程内网络
func NewMemoryNetwork() *MemoryNetwork {
	return &MemoryNetwork{
		handlers:  make(map[types.NodeID]Handler),
		down:      make(map[types.NodeID]bool),
		blackhole: make(map[types.NodeID]bool),
	}
}

// Register 注册节点的入站处理器
func (n *MemoryNetwork) Register(id types.NodeID, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[id] = h
}

// Unregister 移除节点
func (n *MemoryNetwork) Unregister(id types.NodeID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.handlers, id)
	delete(n.down, id)
	delete(n.blackhole, id)
}

// SetDown 设置节点是否下线（请求立即失败）
func (n *MemoryNetwork) SetDown(id types.NodeID, down bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down[id] = down
}

// SetBlackhole 设置节点是否吞掉请求（请求一直阻塞到超时）
func (n *MemoryNetwork) SetBlackhole(id types.NodeID, on bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.blackhole[id] = on
}

// Transport 返回以 self 身份发送的传输
func (n *MemoryNetwork) Transport(self types.NodeID) interfaces.GossipTransport {
	return &memoryTransport{net: n, self: self}
}

func (n *MemoryNetwork) lookup(id types.NodeID) (Handler, bool, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	h, ok := n.handlers[id]
	if !ok || n.down[id] {
		return nil, false, false
	}
	return h, true, n.blackhole[id]
}

type memoryTransport struct {
	net  *MemoryNetwork
	self types.NodeID
}

func (t *memoryTransport) Exchange(ctx context.Context, to types.PeerProfile, payload []byte) ([]byte, error) {
	h, ok, blackhole := t.net.lookup(to.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, to.ID.ShortString())
	}
	if blackhole {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.HandleExchange(ctx, t.self, append([]byte(nil), payload...))
}
