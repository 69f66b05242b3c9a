package p2p

import (
	"bytes"
	"testing"
)

func TestWriteReadMessageRoundTripChecksummed(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello")
	if err := WriteMessage(&buf, 0xd9b4bef9, true, "version", payload); err != nil {
		t.Fatal(err)
	}
	msg, err := ReadMessage(&buf, 0xd9b4bef9, true)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Command != "version" {
		t.Fatalf("command = %q, want \"version\"", msg.Command)
	}
	if !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("payload = %x, want %x", msg.Payload, payload)
	}
}

func TestWriteReadMessageRoundTripUnchecksummed(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0x01, 0x02, 0x03}
	if err := WriteMessage(&buf, 0x0709110b, false, "verack", payload); err != nil {
		t.Fatal(err)
	}
	msg, err := ReadMessage(&buf, 0x0709110b, false)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Command != "verack" || !bytes.Equal(msg.Payload, payload) {
		t.Fatalf("got %+v", msg)
	}
}

func TestCommandIsNULPaddedOnWire(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, 1, false, "tx", nil); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// magic(4) + command(12) + length(4), no checksum
	cmdField := raw[4:16]
	want := make([]byte, CommandSize)
	copy(want, "tx")
	if !bytes.Equal(cmdField, want) {
		t.Fatalf("command field = %x, want %x", cmdField, want)
	}
}

func TestReadMessageResyncsPastGarbage(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x11})
	if err := WriteMessage(&buf, 0xd9b4bef9, true, "ping", []byte{0x42}); err != nil {
		t.Fatal(err)
	}
	msg, err := ReadMessage(&buf, 0xd9b4bef9, true)
	if err != nil {
		t.Fatalf("expected resync to succeed past leading garbage: %v", err)
	}
	if msg.Command != "ping" || !bytes.Equal(msg.Payload, []byte{0x42}) {
		t.Fatalf("got %+v", msg)
	}
}

func TestReadMessageRejectsBadChecksum(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, 1, true, "tx", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Flip a payload byte so the checksum no longer matches.
	raw[len(raw)-1] ^= 0xff
	if _, err := ReadMessage(bytes.NewReader(raw), 1, true); err == nil {
		t.Fatalf("expected a checksum mismatch error")
	}
}

func TestReadMessageRejectsOversizePayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 1}) // magic
	var cmd [CommandSize]byte
	copy(cmd[:], "tx")
	buf.Write(cmd[:])
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff}) // length: way over MaxPayloadBytes
	if _, err := ReadMessage(&buf, 1, false); err == nil {
		t.Fatalf("expected an oversize payload error")
	}
}

func TestWriteMessageRejectsOverlongCommand(t *testing.T) {
	if err := WriteMessage(&bytes.Buffer{}, 1, false, "this-command-name-is-too-long", nil); err == nil {
		t.Fatalf("expected an overlong command error")
	}
}
