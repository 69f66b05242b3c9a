// Package store implements the persistent and in-memory header stores
// of spec.md §4.6: a mapping from block hash to StoredBlock plus an
// atomically-updated chain-head pointer.
package store

import (
	"math/big"

	"litepeer.dev/client/consensus"
)

// StoredBlock is a block header plus cumulative chain work and height
// from genesis (spec.md §3).
type StoredBlock struct {
	Header    consensus.BlockHeader
	ChainWork *big.Int
	Height    uint64
}

func (sb StoredBlock) Hash() consensus.Hash {
	return sb.Header.Hash()
}

// twoTo256 / (target+1) is the chainwork contributed by one block,
// grounded on the teacher's node/store/work.go WorkFromTarget, adapted
// to spec.md §3's target+1 denominator (avoids a divide-by-zero at the
// maximum-difficulty-limit target of all-zero bits... in practice never
// hit, but the +1 makes the formula total).
var twoTo256 = new(big.Int).Lsh(big.NewInt(1), 256)

func BlockWork(target *big.Int) *big.Int {
	denom := new(big.Int).Add(target, big.NewInt(1))
	return new(big.Int).Quo(twoTo256, denom)
}

// Build derives the StoredBlock for a child header extending sb.
func (sb StoredBlock) Build(child consensus.BlockHeader) StoredBlock {
	work := BlockWork(consensus.ExpandCompact(child.DifficultyBits))
	return StoredBlock{
		Header:    child,
		Height:    sb.Height + 1,
		ChainWork: new(big.Int).Add(sb.ChainWork, work),
	}
}

// BlockStore is the persistence contract spec.md §4.6 names: put, get,
// and an atomically-updated chain-head pointer.
type BlockStore interface {
	Put(sb StoredBlock) error
	Get(hash consensus.Hash) (StoredBlock, bool, error)
	GetChainHead() (StoredBlock, error)
	SetChainHead(sb StoredBlock) error
	Close() error
}

// ErrNoChainHead is returned by GetChainHead before any block (at least
// a genesis) has been stored.
var ErrNoChainHead = storeError("store: no chain head set")

type storeError string

func (e storeError) Error() string { return string(e) }
