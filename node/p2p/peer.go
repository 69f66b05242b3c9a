package p2p

import (
	"fmt"
	"net"
	"sync"
	"time"

	"litepeer.dev/client/consensus"
)

// Conn wraps a net.Conn with the write serialization spec.md §5
// requires: a composed header+payload pair must never be interleaved
// with another message's bytes. Reads are single-threaded by
// convention (one reader goroutine per connection) and so need no
// lock, matching the teacher's node/p2p/peer.go connection model.
type Conn struct {
	net.Conn
	magic       uint32
	useChecksum bool

	writeMu sync.Mutex
}

func NewConn(c net.Conn, magic uint32, useChecksum bool) *Conn {
	return &Conn{Conn: c, magic: magic, useChecksum: useChecksum}
}

// SetChecksum flips checksumming on once the handshake has negotiated
// a protocol version >= 209 (spec.md §4.2).
func (c *Conn) SetChecksum(on bool) {
	c.useChecksum = on
}

func (c *Conn) SendMessage(msg TypedMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return Send(c.Conn, c.magic, c.useChecksum, msg)
}

func (c *Conn) ReadMessage() (*Message, error) {
	return ReadMessage(c.Conn, c.magic, c.useChecksum)
}

// Broadcast relays a transaction to this peer. It satisfies
// node.Broadcaster by structural typing, keeping node/p2p free of a
// dependency back on the node package.
func (c *Conn) Broadcast(tx *consensus.Transaction) error {
	return c.SendMessage(&TxMsg{Tx: tx})
}

// HandshakeTimeout bounds the initial connect/version/verack exchange
// (spec.md §5: "a connect timeout governs the initial handshake").
const HandshakeTimeout = 30 * time.Second

// HandshakeResult carries what the local side learned about the peer.
type HandshakeResult struct {
	PeerVersion     *VersionMsg
	NegotiatedVer   int32
	ChecksumEnabled bool
}

// Handshake performs the version/verack exchange described in
// spec.md §4.3, grounded on the teacher's node/p2p/handshake.go
// control flow (send version, wait for peer version, send verack, wait
// for peer verack) adapted to Bitcoin's unconditional handshake (no
// chain-id check — that concept doesn't exist in this protocol).
func Handshake(conn *Conn, ours VersionMsg) (*HandshakeResult, error) {
	deadline := time.Now().Add(HandshakeTimeout)
	_ = conn.Conn.SetDeadline(deadline)
	defer conn.Conn.SetDeadline(time.Time{})

	if err := conn.SendMessage(&ours); err != nil {
		return nil, fmt.Errorf("p2p: handshake: send version: %w", err)
	}

	var peerVersion *VersionMsg
	gotVerack := false
	sentVerack := false

	for !gotVerack || peerVersion == nil {
		raw, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("p2p: handshake: %w", err)
		}
		msg, err := Decode(raw, ours.ProtocolVersion)
		if err != nil {
			return nil, fmt.Errorf("p2p: handshake: decode %q: %w", raw.Command, err)
		}
		switch m := msg.(type) {
		case *VersionMsg:
			if peerVersion != nil {
				return nil, fmt.Errorf("p2p: handshake: duplicate version message")
			}
			peerVersion = m
			if !sentVerack {
				if err := conn.SendMessage(&VerackMsg{}); err != nil {
					return nil, fmt.Errorf("p2p: handshake: send verack: %w", err)
				}
				sentVerack = true
			}
		case *VerackMsg:
			gotVerack = true
		default:
			// Ignore anything else during the handshake window.
		}
	}

	negotiated := NegotiatedVersion(ours.ProtocolVersion, peerVersion.ProtocolVersion)
	checksumOn := negotiated >= ChecksumMinVersion
	conn.SetChecksum(checksumOn)

	return &HandshakeResult{
		PeerVersion:     peerVersion,
		NegotiatedVer:   negotiated,
		ChecksumEnabled: checksumOn,
	}, nil
}
