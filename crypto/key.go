// Package crypto wraps the secp256k1/ECDSA primitives the spec treats as
// an opaque external collaborator (spec.md §1) behind the narrow
// surface the rest of the module actually needs: key generation,
// signing, verification, and address derivation.
package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// Key is an ECDSA key pair on secp256k1.
type Key struct {
	priv *btcec.PrivateKey
}

// GenerateKey creates a new random key pair.
func GenerateKey() (*Key, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("crypto: generate key: %w", err)
	}
	return &Key{priv: priv}, nil
}

// KeyFromPrivateBytes reconstructs a Key from a raw 32-byte scalar,
// used when loading a wallet file.
func KeyFromPrivateBytes(b []byte) (*Key, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("crypto: private key must be 32 bytes, got %d", len(b))
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return &Key{priv: priv}, nil
}

// PrivateBytes returns the raw 32-byte scalar.
func (k *Key) PrivateBytes() []byte {
	return k.priv.Serialize()
}

// PublicKeyUncompressed returns the 65-byte uncompressed public key
// (leading 0x04), as spec.md §3 requires.
func (k *Key) PublicKeyUncompressed() []byte {
	return k.priv.PubKey().SerializeUncompressed()
}

// Sign produces a DER-encoded signature over a 32-byte digest. The
// nonce is derived per RFC 6979, so signing the same digest with the
// same key returns the same bytes.
func (k *Key) Sign(digest [32]byte) ([]byte, error) {
	sig := ecdsa.Sign(k.priv, digest[:])
	return sig.Serialize(), nil
}

// Verify checks a DER signature over a 32-byte digest against an
// uncompressed public key.
func Verify(digest [32]byte, derSig, uncompressedPubKey []byte) bool {
	pub, err := btcec.ParsePubKey(uncompressedPubKey)
	if err != nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(derSig)
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], pub)
}
