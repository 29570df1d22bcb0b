// Package wire 实现 gossip 载荷的线格式
//
// 使用 protobuf 线格式（见 gossip.proto），通过 protowire 直接编解码。
// Decode 在载荷进入协调器之前拒绝结构无效的数据，未知字段被跳过。
package wire

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dep2p/go-p2ptopology/pkg/types"
)

// ErrMalformed 载荷结构无效
var ErrMalformed = errors.New("wire: malformed gossip payload")

// 字段编号
const (
	fieldProfiles = 1

	fieldID           = 1
	fieldAddress      = 2
	fieldCapabilities = 3
	fieldSequence     = 4
)

// 默认限制
const (
	DefaultMaxProfiles      = 256
	DefaultMaxAddressLen    = 256
	DefaultMaxCapabilities  = 32
	DefaultMaxCapabilityLen = 64
)

// Codec gossip 编解码器
type Codec struct {
	MaxProfiles      int
	MaxAddressLen    int
	MaxCapabilities  int
	MaxCapabilityLen int
}

// NewCodec 创建编解码器，maxProfiles <= 0 时使用默认值
func NewCodec(maxProfiles int) *Codec {
	if maxProfiles <= 0 {
		maxProfiles = DefaultMaxProfiles
	}
	return &Codec{
		MaxProfiles:      maxProfiles,
		MaxAddressLen:    DefaultMaxAddressLen,
		MaxCapabilities:  DefaultMaxCapabilities,
		MaxCapabilityLen: DefaultMaxCapabilityLen,
	}
}

// Encode 编码 gossip
func (c *Codec) Encode(g *types.Gossips) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	var out []byte
	for i, p := range g.Profiles {
		if err := c.checkProfile(p); err != nil {
			return nil, fmt.Errorf("profiles[%d]: %w", i, err)
		}
		out = protowire.AppendTag(out, fieldProfiles, protowire.BytesType)
		out = protowire.AppendBytes(out, appendProfile(nil, p))
	}
	return out, nil
}

func appendProfile(b []byte, p types.PeerProfile) []byte {
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, p.ID[:])
	if p.Address != "" {
		b = protowire.AppendTag(b, fieldAddress, protowire.BytesType)
		b = protowire.AppendString(b, p.Address)
	}
	for _, capability := range p.Capabilities {
		b = protowire.AppendTag(b, fieldCapabilities, protowire.BytesType)
		b = protowire.AppendString(b, capability)
	}
	if p.Sequence != 0 {
		b = protowire.AppendTag(b, fieldSequence, protowire.VarintType)
		b = protowire.AppendVarint(b, p.Sequence)
	}
	return b
}

// Decode 解码 gossip，结构无效时返回 ErrMalformed
func (c *Codec) Decode(data []byte) (*types.Gossips, error) {
	g := &types.Gossips{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		data = data[n:]

		if num != fieldProfiles {
			if n = protowire.ConsumeFieldValue(num, typ, data); n < 0 {
				return nil, malformed(protowire.ParseError(n))
			}
			data = data[n:]
			continue
		}
		if typ != protowire.BytesType {
			return nil, malformed(fmt.Errorf("profiles: wire type %d", typ))
		}
		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, malformed(protowire.ParseError(n))
		}
		data = data[n:]

		if len(g.Profiles) >= c.MaxProfiles {
			return nil, malformed(fmt.Errorf("more than %d profiles", c.MaxProfiles))
		}
		p, err := c.decodeProfile(raw)
		if err != nil {
			return nil, malformed(fmt.Errorf("profiles[%d]: %w", len(g.Profiles), err))
		}
		g.Profiles = append(g.Profiles, p)
	}
	return g, nil
}

func (c *Codec) decodeProfile(b []byte) (types.PeerProfile, error) {
	var (
		p     types.PeerProfile
		hasID bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldID, fieldAddress, fieldCapabilities:
			if typ != protowire.BytesType {
				return p, fmt.Errorf("field %d: wire type %d", num, typ)
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
			if err := c.setBytesField(&p, num, v); err != nil {
				return p, err
			}
			if num == fieldID {
				hasID = true
			}
		case fieldSequence:
			if typ != protowire.VarintType {
				return p, fmt.Errorf("sequence: wire type %d", typ)
			}
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
			p.Sequence = v
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return p, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	if !hasID {
		return p, errors.New("missing id")
	}
	return p, nil
}

func (c *Codec) setBytesField(p *types.PeerProfile, num protowire.Number, v []byte) error {
	switch num {
	case fieldID:
		id, err := types.NodeIDFromBytes(v)
		if err != nil {
			return err
		}
		if id.IsEmpty() {
			return types.ErrEmptyNodeID
		}
		p.ID = id
	case fieldAddress:
		if len(v) > c.MaxAddressLen || !utf8.Valid(v) {
			return errors.New("invalid address")
		}
		p.Address = string(v)
	case fieldCapabilities:
		if len(p.Capabilities) >= c.MaxCapabilities {
			return fmt.Errorf("more than %d capabilities", c.MaxCapabilities)
		}
		if len(v) == 0 || len(v) > c.MaxCapabilityLen || !utf8.Valid(v) {
			return errors.New("invalid capability")
		}
		p.Capabilities = append(p.Capabilities, string(v))
	}
	return nil
}

func (c *Codec) checkProfile(p types.PeerProfile) error {
	if p.ID.IsEmpty() {
		return types.ErrEmptyNodeID
	}
	if len(p.Address) > c.MaxAddressLen {
		return errors.New("address too long")
	}
	if !utf8.ValidString(p.Address) {
		return errors.New("address is not valid utf-8")
	}
	if len(p.Capabilities) > c.MaxCapabilities {
		return fmt.Errorf("more than %d capabilities", c.MaxCapabilities)
	}
	for _, capability := range p.Capabilities {
		if capability == "" || len(capability) > c.MaxCapabilityLen || !utf8.ValidString(capability) {
			return errors.New("invalid capability")
		}
	}
	return nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", ErrMalformed, err)
}
