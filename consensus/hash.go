package consensus

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // address hashing requires RIPEMD-160, not a choice we get to make.
)

// Hash is 32 raw bytes in on-wire (little-endian-of-display) order.
// Display order is the reverse: hex(reverse(bytes(h))).
type Hash [32]byte

var ZeroHash Hash

func (h Hash) String() string {
	rev := make([]byte, 32)
	for i := range h {
		rev[i] = h[32-1-i]
	}
	return hex.EncodeToString(rev)
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// DoubleSHA256 is SHA-256(SHA-256(b)), the hash used for block and
// transaction identity throughout the wire protocol.
func DoubleSHA256(b []byte) Hash {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Hash160 is RIPEMD-160(SHA-256(b)), used to derive addresses from
// public keys.
func Hash160(b []byte) [20]byte {
	sh := sha256.Sum256(b)
	r := ripemd160.New()
	_, _ = r.Write(sh[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// First4 returns the leading 4 bytes of a doubleDigest, used as the
// message-framing checksum.
func First4(h Hash) [4]byte {
	var out [4]byte
	copy(out[:], h[:4])
	return out
}
