package p2p

import (
	"net"
	"testing"

	"litepeer.dev/client/consensus"
)

func TestAddrRoundTripWithoutTimestamp(t *testing.T) {
	m := &AddrMsg{
		ProtocolVersion: 0,
		Addrs: []NetAddress{
			{Services: 1, IP: net.IPv4(1, 2, 3, 4), Port: 8333},
			{Services: 3, IP: net.IPv4(5, 6, 7, 8), Port: 18333},
		},
	}
	raw := m.Serialize()
	got, err := ParseAddr(raw, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Addrs) != 2 {
		t.Fatalf("got %d addrs, want 2", len(got.Addrs))
	}
	for i, a := range got.Addrs {
		if !a.IP.Equal(m.Addrs[i].IP) || a.Port != m.Addrs[i].Port || a.Services != m.Addrs[i].Services {
			t.Fatalf("addr %d mismatch: got=%+v want=%+v", i, a, m.Addrs[i])
		}
	}
}

func TestAddrRoundTripWithTimestamp(t *testing.T) {
	m := &AddrMsg{
		ProtocolVersion: addrTimestampMinVersion + 1,
		Addrs: []NetAddress{
			{Timestamp: 1231006505, Services: 1, IP: net.IPv4(9, 9, 9, 9), Port: 8333},
		},
	}
	raw := m.Serialize()
	got, err := ParseAddr(raw, addrTimestampMinVersion+1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Addrs[0].Timestamp != 1231006505 {
		t.Fatalf("timestamp = %d, want 1231006505", got.Addrs[0].Timestamp)
	}
}

func TestParseAddrRejectsOverMaxEntries(t *testing.T) {
	// A VarInt count on its own, declaring more entries than
	// MaxAddrEntries, should be rejected before any per-entry parsing
	// is attempted.
	raw := consensus.PutVarInt(nil, MaxAddrEntries+1)
	if _, err := ParseAddr(raw, 0); err == nil {
		t.Fatalf("expected an over-max-entries error")
	}
}
