package node

import (
	"testing"

	"litepeer.dev/client/consensus"
	"litepeer.dev/client/node/store"
)

// mineChild builds and solves a block extending prev, with an explicit
// difficulty and timestamp rather than CreateNextBlock's
// inherit-from-parent defaults, so retarget tests can set up exact
// fixtures.
func mineChild(prev *consensus.BlockHeader, bits uint32, timestamp uint32) *consensus.Block {
	coinbase := &consensus.Transaction{
		Version: 1,
		TxIn: []consensus.TxIn{{
			PrevOut:  consensus.OutPoint{Hash: consensus.ZeroHash, Index: 0xffffffff},
			Sequence: 0xffffffff,
		}},
		TxOut: []consensus.TxOut{{
			Value:        consensus.NewAmount(consensus.StandardSubsidy),
			ScriptPubKey: consensus.PayToAddressScript([20]byte{}),
		}},
	}
	blk := &consensus.Block{
		Header: consensus.BlockHeader{
			Version:        1,
			PrevBlockHash:  prev.Hash(),
			Timestamp:      timestamp,
			DifficultyBits: bits,
		},
		Txs: []*consensus.Transaction{coinbase},
	}
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()
	consensus.SolveHeader(&blk.Header)
	return blk
}

func newTestChain(t *testing.T) *BlockChain {
	t.Helper()
	bc, err := NewBlockChain(store.NewMemStore(), UnitTestParams, nil)
	if err != nil {
		t.Fatal(err)
	}
	return bc
}

// TestChainRejectsUnconnectedThenConnectsOnArrival is fixture #6.
func TestChainRejectsUnconnectedThenConnectsOnArrival(t *testing.T) {
	bc := newTestChain(t)
	genesis := UnitTestParams.Genesis

	b1 := mineChild(&genesis.Header, genesis.Header.DifficultyBits, genesis.Header.Timestamp+1)
	if ok, err := bc.Add(b1); err != nil || !ok {
		t.Fatalf("add(b1) = %v, %v; want true, nil", ok, err)
	}

	b2 := mineChild(&b1.Header, genesis.Header.DifficultyBits, genesis.Header.Timestamp+2)
	b3 := mineChild(&b2.Header, genesis.Header.DifficultyBits, genesis.Header.Timestamp+3)

	if ok, err := bc.Add(b3); err != nil || ok {
		t.Fatalf("add(b3) before b2 = %v, %v; want false, nil", ok, err)
	}
	head, err := bc.ChainHead()
	if err != nil {
		t.Fatal(err)
	}
	if head.Hash() != b1.Hash() {
		t.Fatalf("head = %s, want b1 (%s)", head.Hash(), b1.Hash())
	}

	if ok, err := bc.Add(b2); err != nil || !ok {
		t.Fatalf("add(b2) = %v, %v; want true, nil", ok, err)
	}
	head, err = bc.ChainHead()
	if err != nil {
		t.Fatal(err)
	}
	if head.Hash() != b3.Hash() {
		t.Fatalf("head = %s, want b3 (%s); connecting b2 should pull in the orphaned b3", head.Hash(), b3.Hash())
	}
}

// TestChainDifficultyRetarget is fixture #7.
func TestChainDifficultyRetarget(t *testing.T) {
	bc := newTestChain(t)
	genesis := UnitTestParams.Genesis
	bits := genesis.Header.DifficultyBits

	interval := uint32(UnitTestParams.Interval)
	prevHeader := &genesis.Header
	for i := uint32(1); i <= interval-1; i++ {
		blk := mineChild(prevHeader, bits, genesis.Header.Timestamp+2*i)
		if ok, err := bc.Add(blk); err != nil || !ok {
			t.Fatalf("add(height %d) = %v, %v; want true, nil", i, ok, err)
		}
		prevHeader = &blk.Header
	}

	retargetTimestamp := genesis.Header.Timestamp + 2*interval

	unchanged := mineChild(prevHeader, bits, retargetTimestamp)
	if ok, err := bc.Add(unchanged); err == nil || ok {
		t.Fatalf("add(retarget height, unchanged bits) = %v, %v; want a rejection", ok, err)
	} else if ve, ok := err.(*consensus.VerifyError); !ok || ve.Msg != "Unexpected change in difficulty" {
		t.Fatalf("got error %v, want \"Unexpected change in difficulty\"", err)
	}

	const wantRetargetBits = 0x201fffff
	retargeted := mineChild(prevHeader, wantRetargetBits, retargetTimestamp)
	if ok, err := bc.Add(retargeted); err != nil || !ok {
		t.Fatalf("add(retarget height, correct bits) = %v, %v; want true, nil", ok, err)
	}
}
