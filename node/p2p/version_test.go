package p2p

import (
	"net"
	"testing"
)

func TestVersionRoundTrip(t *testing.T) {
	m := &VersionMsg{
		ProtocolVersion: 70001,
		Services:        1,
		Timestamp:       1231006505,
		AddrRecv:        NetAddress{Services: 1, IP: net.IPv4(1, 2, 3, 4), Port: 8333},
		AddrFrom:        NetAddress{Services: 1, IP: net.IPv4(5, 6, 7, 8), Port: 8333},
		Nonce:           0xdeadbeefcafebabe,
		SubVersion:      "/litepeer:0.1/",
		StartHeight:     123,
	}
	raw := m.Serialize()
	got, err := ParseVersion(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.ProtocolVersion != m.ProtocolVersion || got.Services != m.Services ||
		got.Timestamp != m.Timestamp || got.Nonce != m.Nonce ||
		got.SubVersion != m.SubVersion || got.StartHeight != m.StartHeight {
		t.Fatalf("got=%+v want=%+v", got, m)
	}
	if !got.AddrRecv.IP.Equal(m.AddrRecv.IP) || got.AddrRecv.Port != m.AddrRecv.Port {
		t.Fatalf("addr_recv mismatch: got=%+v want=%+v", got.AddrRecv, m.AddrRecv)
	}
}

func TestParseVersionRejectsTruncated(t *testing.T) {
	m := &VersionMsg{ProtocolVersion: 1, SubVersion: "/x/"}
	raw := m.Serialize()
	if _, err := ParseVersion(raw[:len(raw)-5]); err == nil {
		t.Fatalf("expected a truncation error")
	}
}

func TestVerackRoundTrip(t *testing.T) {
	m := &VerackMsg{}
	if len(m.Serialize()) != 0 {
		t.Fatalf("verack payload should be empty")
	}
	got, err := ParseVerack(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatalf("expected a non-nil verack")
	}
}

func TestParseVerackRejectsNonEmptyPayload(t *testing.T) {
	if _, err := ParseVerack([]byte{0x01}); err == nil {
		t.Fatalf("expected an error for a non-empty verack payload")
	}
}

func TestNegotiatedVersionIsMinimum(t *testing.T) {
	if got := NegotiatedVersion(70001, 60002); got != 60002 {
		t.Fatalf("negotiated = %d, want 60002", got)
	}
	if got := NegotiatedVersion(60002, 70001); got != 60002 {
		t.Fatalf("negotiated = %d, want 60002", got)
	}
}
