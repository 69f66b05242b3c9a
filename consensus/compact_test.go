package consensus

import (
	"math/big"
	"testing"
)

func TestExpandCompactGenesisDifficulty(t *testing.T) {
	got := ExpandCompact(0x1d00ffff)
	want, _ := new(big.Int).SetString("00000000ffff0000000000000000000000000000000000000000000000000000", 16)
	if got.Cmp(want) != 0 {
		t.Fatalf("got=%x want=%x", got, want)
	}
}

func TestCompactRoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1d0fffff, 0x207fffff, 0x1b0404cb, 0x00000000} {
		target := ExpandCompact(bits)
		got := EncodeCompact(target, false)
		if got != bits {
			t.Fatalf("bits=%#x round-tripped to %#x", bits, got)
		}
	}
}

func TestDecodeCompactSignBit(t *testing.T) {
	_, neg := DecodeCompact(0x01800001)
	if !neg {
		t.Fatalf("expected sign bit set")
	}
	_, neg = DecodeCompact(0x01000001)
	if neg {
		t.Fatalf("expected sign bit clear")
	}
}
