package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"

	"litepeer.dev/client/consensus"
)

// Address is 20 bytes — RIPEMD-160(SHA-256(public key)) — rendered as
// Base58Check with a network-specific version byte (spec.md §3/§4.4).
type Address struct {
	Hash160 [20]byte
	Version byte
}

// ToAddress derives the Address paying this key under the given
// network version byte.
func (k *Key) ToAddress(version byte) Address {
	return Address{
		Hash160: consensus.Hash160(k.PublicKeyUncompressed()),
		Version: version,
	}
}

// String renders the Base58Check form.
func (a Address) String() string {
	return base58.CheckEncode(a.Hash160[:], a.Version)
}

// ParseAddress decodes a Base58Check address string, rejecting payloads
// whose checksum doesn't match (spec.md §4.4).
func ParseAddress(s string) (Address, error) {
	decoded, version, err := base58.CheckDecode(s)
	if err != nil {
		return Address{}, fmt.Errorf("crypto: parse address: %w", err)
	}
	if len(decoded) != 20 {
		return Address{}, fmt.Errorf("crypto: parse address: expected 20 bytes, got %d", len(decoded))
	}
	var a Address
	a.Version = version
	copy(a.Hash160[:], decoded)
	return a, nil
}
