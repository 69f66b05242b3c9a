package p2p

import (
	"fmt"

	"litepeer.dev/client/consensus"
)

const CmdGetBlocks = "getblocks"

// MaxLocatorHashes bounds a getblocks locator; unbounded input is a
// memory-exhaustion surface during parsing.
const MaxLocatorHashes = 500

type GetBlocksMsg struct {
	Version   uint32
	Locator   []consensus.Hash
	StopHash  consensus.Hash
}

func (m *GetBlocksMsg) Command() string { return CmdGetBlocks }

func (m *GetBlocksMsg) Serialize() []byte {
	buf := consensus.PutUint32LE(nil, m.Version)
	buf = consensus.PutVarInt(buf, uint64(len(m.Locator)))
	for _, h := range m.Locator {
		buf = append(buf, h[:]...)
	}
	buf = append(buf, m.StopHash[:]...)
	return buf
}

func ParseGetBlocks(b []byte) (*GetBlocksMsg, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("p2p: getblocks: truncated version")
	}
	m := &GetBlocksMsg{}
	v, _ := consensus.ReadUint32LE(b)
	m.Version = v
	off := 4

	count, used, err := consensus.ReadVarInt(b[off:])
	if err != nil {
		return nil, err
	}
	if count > MaxLocatorHashes {
		return nil, fmt.Errorf("p2p: getblocks: %d locator hashes exceeds max %d", count, MaxLocatorHashes)
	}
	off += used
	m.Locator = make([]consensus.Hash, count)
	for i := range m.Locator {
		if len(b)-off < 32 {
			return nil, fmt.Errorf("p2p: getblocks: truncated locator hash %d", i)
		}
		copy(m.Locator[i][:], b[off:off+32])
		off += 32
	}

	if len(b)-off != 32 {
		return nil, fmt.Errorf("p2p: getblocks: bad stop hash length")
	}
	copy(m.StopHash[:], b[off:])
	return m, nil
}
