package p2p

import (
	"fmt"
	"io"
)

// TypedMessage is any parsed protocol message.
type TypedMessage interface {
	Command() string
	Serialize() []byte
}

// UnknownMsg carries the raw payload of a command this peer doesn't
// recognize. Per spec.md §4.2 step 4, unknown commands are not errors.
type UnknownMsg struct {
	Command_ string
	Payload  []byte
}

func (m *UnknownMsg) Command() string  { return m.Command_ }
func (m *UnknownMsg) Serialize() []byte { return m.Payload }

// Decode dispatches a raw Message to its typed parser by command
// string. protocolVersion is needed by `addr`'s timestamp-prefix
// framing and is otherwise ignored.
func Decode(raw *Message, protocolVersion int32) (TypedMessage, error) {
	switch raw.Command {
	case CmdVersion:
		return ParseVersion(raw.Payload)
	case CmdVerack:
		return ParseVerack(raw.Payload)
	case CmdAddr:
		return ParseAddr(raw.Payload, protocolVersion)
	case CmdInv:
		return ParseInv(raw.Payload)
	case CmdGetData:
		return ParseGetData(raw.Payload)
	case CmdGetBlocks:
		return ParseGetBlocks(raw.Payload)
	case CmdBlock:
		return ParseBlockMsg(raw.Payload)
	case CmdTx:
		return ParseTxMsg(raw.Payload)
	default:
		return &UnknownMsg{Command_: raw.Command, Payload: raw.Payload}, nil
	}
}

// Send frames and writes a typed message.
func Send(w io.Writer, magic uint32, useChecksum bool, msg TypedMessage) error {
	if len(msg.Command()) == 0 {
		return fmt.Errorf("p2p: empty command")
	}
	return WriteMessage(w, magic, useChecksum, msg.Command(), msg.Serialize())
}
