package p2p

import (
	"fmt"

	"litepeer.dev/client/consensus"
)

const CmdVersion = "version"

// maxSubVersionBytes bounds the VarStr sub-version field; the wire
// protocol has no hard limit but an unbounded string is a DoS surface.
const maxSubVersionBytes = 256

// VersionMsg is the handshake's opening message (spec.md §4.3).
type VersionMsg struct {
	ProtocolVersion int32
	Services        uint64
	Timestamp       int64
	AddrRecv        NetAddress
	AddrFrom        NetAddress
	Nonce           uint64
	SubVersion      string
	StartHeight     int32
}

func (m *VersionMsg) Command() string { return CmdVersion }

func (m *VersionMsg) Serialize() []byte {
	buf := make([]byte, 0, 86+len(m.SubVersion))
	buf = consensus.PutUint32LE(buf, uint32(m.ProtocolVersion))
	buf = consensus.PutUint64LE(buf, m.Services)
	buf = consensus.PutUint64LE(buf, uint64(m.Timestamp))
	buf = append(buf, EncodeNetAddress(m.AddrRecv, false)...)
	buf = append(buf, EncodeNetAddress(m.AddrFrom, false)...)
	buf = consensus.PutUint64LE(buf, m.Nonce)
	buf = consensus.PutVarString(buf, m.SubVersion)
	buf = consensus.PutUint32LE(buf, uint32(m.StartHeight))
	return buf
}

func ParseVersion(b []byte) (*VersionMsg, error) {
	if len(b) < 4+8+8+26+26+8 {
		return nil, fmt.Errorf("p2p: version: truncated")
	}
	m := &VersionMsg{}
	off := 0
	v, _ := consensus.ReadUint32LE(b[off:])
	m.ProtocolVersion = int32(v)
	off += 4
	services, _ := consensus.ReadUint64LE(b[off:])
	m.Services = services
	off += 8
	ts, _ := consensus.ReadUint64LE(b[off:])
	m.Timestamp = int64(ts)
	off += 8

	recv, n, err := DecodeNetAddress(b[off:], false)
	if err != nil {
		return nil, err
	}
	m.AddrRecv = recv
	off += n

	from, n, err := DecodeNetAddress(b[off:], false)
	if err != nil {
		return nil, err
	}
	m.AddrFrom = from
	off += n

	nonce, _ := consensus.ReadUint64LE(b[off:])
	m.Nonce = nonce
	off += 8

	sub, n, err := consensus.ReadVarString(b[off:], maxSubVersionBytes)
	if err != nil {
		return nil, err
	}
	m.SubVersion = sub
	off += n

	if len(b)-off < 4 {
		return nil, fmt.Errorf("p2p: version: truncated start_height")
	}
	sh, _ := consensus.ReadUint32LE(b[off:])
	m.StartHeight = int32(sh)

	return m, nil
}

// NegotiatedVersion is min(local, peer), per spec.md §4.3.
func NegotiatedVersion(local, peer int32) int32 {
	if local < peer {
		return local
	}
	return peer
}

const CmdVerack = "verack"

// VerackMsg carries no payload.
type VerackMsg struct{}

func (m *VerackMsg) Command() string { return CmdVerack }
func (m *VerackMsg) Serialize() []byte {
	return nil
}
func ParseVerack(b []byte) (*VerackMsg, error) {
	if len(b) != 0 {
		return nil, fmt.Errorf("p2p: verack: expected empty payload, got %d bytes", len(b))
	}
	return &VerackMsg{}, nil
}
