package p2p

import (
	"testing"

	"litepeer.dev/client/consensus"
)

func TestGetBlocksRoundTrip(t *testing.T) {
	m := &GetBlocksMsg{
		Version: 70001,
		Locator: []consensus.Hash{
			consensus.DoubleSHA256([]byte("tip")),
			consensus.DoubleSHA256([]byte("genesis")),
		},
		StopHash: consensus.ZeroHash,
	}
	got, err := ParseGetBlocks(m.Serialize())
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != m.Version || len(got.Locator) != 2 ||
		got.Locator[0] != m.Locator[0] || got.Locator[1] != m.Locator[1] ||
		got.StopHash != m.StopHash {
		t.Fatalf("got=%+v want=%+v", got, m)
	}
}

func TestParseGetBlocksRejectsOverMaxLocator(t *testing.T) {
	raw := consensus.PutUint32LE(nil, 1)
	raw = consensus.PutVarInt(raw, MaxLocatorHashes+1)
	if _, err := ParseGetBlocks(raw); err == nil {
		t.Fatalf("expected an over-max-locator error")
	}
}

func TestParseGetBlocksRejectsBadStopHashLength(t *testing.T) {
	m := &GetBlocksMsg{Version: 1, Locator: nil, StopHash: consensus.ZeroHash}
	raw := m.Serialize()
	if _, err := ParseGetBlocks(raw[:len(raw)-1]); err == nil {
		t.Fatalf("expected a bad stop hash length error")
	}
}
