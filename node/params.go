// Package node implements the block-chain engine and wallet of
// spec.md §4.7/§4.8: the pieces that sit above the wire codec and
// header store and actually decide what the wallet believes its
// balance is.
package node

import (
	"math/big"
	"time"

	"litepeer.dev/client/consensus"
)

// Params is the set of network-scoped constants named in spec.md §6.
type Params struct {
	Name             string
	Magic            uint32
	Port             uint16
	AddressHeader    byte
	ProofOfWorkLimit *big.Int
	TargetTimespan   time.Duration
	Interval         uint64
	Genesis          *consensus.Block
}

var genesisMessage = "The Times 03/Jan/2009 Chancellor on brink of second bailout for banks"

func expand(bits uint32) *big.Int {
	return consensus.ExpandCompact(bits)
}

// MainNetParams is the production network.
var MainNetParams = Params{
	Name:             "main",
	Magic:            0xf9beb4d9,
	Port:             8333,
	AddressHeader:    0x00,
	ProofOfWorkLimit: expand(0x1d00ffff),
	TargetTimespan:   14 * 24 * time.Hour,
	Interval:         2016,
	Genesis:          consensus.NewGenesisBlock(genesisMessage, 0x1d00ffff, 1231006505, 2083236893, [20]byte{}),
}

// TestNet3Params is the public test network.
var TestNet3Params = Params{
	Name:             "test",
	Magic:            0xfabfb5da,
	Port:             18333,
	AddressHeader:    0x6f,
	ProofOfWorkLimit: expand(0x1d0fffff),
	TargetTimespan:   14 * 24 * time.Hour,
	Interval:         2016,
	Genesis:          consensus.NewGenesisBlock(genesisMessage, 0x1d0fffff, 1296688602, 414098458, [20]byte{}),
}

// UnitTestParams uses a short retarget interval and easy difficulty so
// tests can mine and retarget chains cheaply (spec.md §6). Its genesis
// is mined for real (rather than pinned to a historical nonce) since
// there is no canonical unit-test genesis to match.
var UnitTestParams = Params{
	Name:             "unittest",
	Magic:            0xfabfb5da,
	Port:             18333,
	AddressHeader:    0x6f,
	ProofOfWorkLimit: expand(0x207fffff),
	TargetTimespan:   200 * time.Second,
	Interval:         10,
	Genesis:          mineUnitTestGenesis(),
}

func mineUnitTestGenesis() *consensus.Block {
	blk := consensus.NewGenesisBlock(genesisMessage, 0x207fffff, 1296688602, 0, [20]byte{})
	consensus.SolveHeader(&blk.Header)
	return blk
}

func (p Params) TargetTimespanSeconds() int64 {
	return int64(p.TargetTimespan / time.Second)
}
