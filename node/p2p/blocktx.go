package p2p

import (
	"fmt"

	"litepeer.dev/client/consensus"
)

const (
	CmdBlock = "block"
	CmdTx    = "tx"
)

// BlockMsg and TxMsg are thin wire wrappers around the consensus types;
// the parsing itself lives in consensus.ParseBlock/ParseTransaction
// since it's shared with the block store and the block-chain engine.

type BlockMsg struct {
	Block *consensus.Block
}

func (m *BlockMsg) Command() string  { return CmdBlock }
func (m *BlockMsg) Serialize() []byte { return m.Block.Serialize() }

func ParseBlockMsg(b []byte) (*BlockMsg, error) {
	blk, err := consensus.ParseBlock(b)
	if err != nil {
		return nil, err
	}
	return &BlockMsg{Block: blk}, nil
}

type TxMsg struct {
	Tx *consensus.Transaction
}

func (m *TxMsg) Command() string  { return CmdTx }
func (m *TxMsg) Serialize() []byte { return m.Tx.Serialize() }

func ParseTxMsg(b []byte) (*TxMsg, error) {
	tx, n, err := consensus.ParseTransaction(b)
	if err != nil {
		return nil, err
	}
	if n != len(b) {
		return nil, &FramingError{Err: fmt.Errorf("tx: %d trailing bytes after transaction", len(b)-n)}
	}
	return &TxMsg{Tx: tx}, nil
}
