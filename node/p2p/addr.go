package p2p

import (
	"fmt"

	"litepeer.dev/client/consensus"
)

const CmdAddr = "addr"

// addrTimestampMinVersion is the protocol version above which each addr
// entry carries a leading timestamp (spec.md §4.3).
const addrTimestampMinVersion = 31402

// MaxAddrEntries bounds a single addr message; the wire protocol itself
// imposes no limit, but an unbounded count is a memory-exhaustion
// surface during parsing.
const MaxAddrEntries = 1000

type AddrMsg struct {
	ProtocolVersion int32 // not on the wire; controls timestamp-prefix framing
	Addrs           []NetAddress
}

func (m *AddrMsg) Command() string { return CmdAddr }

func (m *AddrMsg) Serialize() []byte {
	withTS := m.ProtocolVersion > addrTimestampMinVersion
	buf := consensus.PutVarInt(nil, uint64(len(m.Addrs)))
	for _, a := range m.Addrs {
		buf = append(buf, EncodeNetAddress(a, withTS)...)
	}
	return buf
}

func ParseAddr(b []byte, protocolVersion int32) (*AddrMsg, error) {
	withTS := protocolVersion > addrTimestampMinVersion
	count, used, err := consensus.ReadVarInt(b)
	if err != nil {
		return nil, err
	}
	if count > MaxAddrEntries {
		return nil, fmt.Errorf("p2p: addr: %d entries exceeds max %d", count, MaxAddrEntries)
	}
	off := used
	out := &AddrMsg{ProtocolVersion: protocolVersion, Addrs: make([]NetAddress, 0, count)}
	for i := uint64(0); i < count; i++ {
		a, n, err := DecodeNetAddress(b[off:], withTS)
		if err != nil {
			return nil, err
		}
		out.Addrs = append(out.Addrs, a)
		off += n
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: addr: %d trailing bytes", len(b)-off)
	}
	return out, nil
}
