package p2p

import (
	"fmt"

	"litepeer.dev/client/consensus"
)

const (
	CmdInv     = "inv"
	CmdGetData = "getdata"
)

// Inventory item types (spec.md §4.3).
const (
	InvError uint32 = 0
	InvTx    uint32 = 1
	InvBlock uint32 = 2
)

// MaxInvEntries caps a single inv/getdata message (spec.md §4.3).
const MaxInvEntries = 50_000

type InvVector struct {
	Type uint32
	Hash consensus.Hash
}

// InvMsg backs both `inv` and `getdata`, which share an identical wire
// layout distinguished only by command string.
type InvMsg struct {
	Command_ string
	Items    []InvVector
}

func (m *InvMsg) Command() string { return m.Command_ }

func NewInv(items []InvVector) *InvMsg     { return &InvMsg{Command_: CmdInv, Items: items} }
func NewGetData(items []InvVector) *InvMsg { return &InvMsg{Command_: CmdGetData, Items: items} }

func (m *InvMsg) Serialize() []byte {
	buf := consensus.PutVarInt(nil, uint64(len(m.Items)))
	for _, it := range m.Items {
		buf = consensus.PutUint32LE(buf, it.Type)
		buf = append(buf, it.Hash[:]...)
	}
	return buf
}

func parseInv(command string, b []byte) (*InvMsg, error) {
	count, used, err := consensus.ReadVarInt(b)
	if err != nil {
		return nil, err
	}
	if count > MaxInvEntries {
		return nil, fmt.Errorf("p2p: %s: %d entries exceeds max %d", command, count, MaxInvEntries)
	}
	off := used
	items := make([]InvVector, 0, count)
	for i := uint64(0); i < count; i++ {
		if len(b)-off < 36 {
			return nil, fmt.Errorf("p2p: %s: truncated entry %d", command, i)
		}
		t, _ := consensus.ReadUint32LE(b[off:])
		off += 4
		var h consensus.Hash
		copy(h[:], b[off:off+32])
		off += 32
		items = append(items, InvVector{Type: t, Hash: h})
	}
	if off != len(b) {
		return nil, fmt.Errorf("p2p: %s: %d trailing bytes", command, len(b)-off)
	}
	return &InvMsg{Command_: command, Items: items}, nil
}

func ParseInv(b []byte) (*InvMsg, error)     { return parseInv(CmdInv, b) }
func ParseGetData(b []byte) (*InvMsg, error) { return parseInv(CmdGetData, b) }
