package consensus

import "testing"

func TestHashDisplayIsReversedHex(t *testing.T) {
	var h Hash
	for i := range h {
		h[i] = byte(i)
	}
	got := h.String()
	want := "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100"
	if got != want {
		t.Fatalf("got=%s want=%s", got, want)
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatalf("zero-value Hash should report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Fatalf("non-zero Hash should not report IsZero")
	}
}

func TestDoubleSHA256IsDeterministicAndInputSensitive(t *testing.T) {
	a := DoubleSHA256([]byte("one"))
	b := DoubleSHA256([]byte("one"))
	c := DoubleSHA256([]byte("two"))
	if a != b {
		t.Fatalf("same input produced different hashes")
	}
	if a == c {
		t.Fatalf("different input produced the same hash")
	}
}

func TestHash160Length(t *testing.T) {
	out := Hash160([]byte("a public key"))
	if len(out) != 20 {
		t.Fatalf("len=%d want 20", len(out))
	}
}
