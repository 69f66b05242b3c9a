package store

import (
	"math/big"
	"path/filepath"
	"testing"

	"litepeer.dev/client/consensus"
)

func sampleStoredBlock(t *testing.T, seed byte, height uint64) StoredBlock {
	t.Helper()
	header := consensus.BlockHeader{
		Version:        1,
		PrevBlockHash:  consensus.Hash{seed},
		MerkleRoot:     consensus.Hash{seed, seed},
		Timestamp:      1296688602,
		DifficultyBits: 0x207fffff,
		Nonce:          uint32(seed),
	}
	return StoredBlock{
		Header:    header,
		Height:    height,
		ChainWork: big.NewInt(int64(height) + 1),
	}
}

// testStores builds a fresh MemStore and a fresh BoltStore backed by a
// temp file, so every test below runs against both implementations of
// the BlockStore contract.
func testStores(t *testing.T) map[string]BlockStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "headers.db")
	bolt, err := OpenBoltStore(dbPath)
	if err != nil {
		t.Fatalf("open bbolt store: %v", err)
	}
	t.Cleanup(func() { _ = bolt.Close() })
	return map[string]BlockStore{
		"mem":  NewMemStore(),
		"bolt": bolt,
	}
}

func TestBlockStoreGetChainHeadBeforeAnyBlock(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetChainHead(); err != ErrNoChainHead {
				t.Fatalf("got err=%v, want ErrNoChainHead", err)
			}
		})
	}
}

func TestBlockStorePutGetRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sb := sampleStoredBlock(t, 1, 0)
			if err := s.Put(sb); err != nil {
				t.Fatal(err)
			}
			got, ok, err := s.Get(sb.Hash())
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatalf("expected the block to be found")
			}
			if got.Header != sb.Header || got.Height != sb.Height || got.ChainWork.Cmp(sb.ChainWork) != 0 {
				t.Fatalf("got=%+v want=%+v", got, sb)
			}
		})
	}
}

func TestBlockStoreGetMissingReturnsNotFound(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(consensus.Hash{0xff})
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatalf("expected not found")
			}
		})
	}
}

func TestBlockStoreSetChainHeadPersistsHeaderAndPointer(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			sb := sampleStoredBlock(t, 2, 5)
			if err := s.SetChainHead(sb); err != nil {
				t.Fatal(err)
			}
			head, err := s.GetChainHead()
			if err != nil {
				t.Fatal(err)
			}
			if head.Hash() != sb.Hash() || head.Height != sb.Height {
				t.Fatalf("got=%+v want=%+v", head, sb)
			}
			// SetChainHead also wrote the header itself, reachable by hash.
			_, ok, err := s.Get(sb.Hash())
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatalf("expected SetChainHead to also store the header")
			}
		})
	}
}

func TestBlockStoreSetChainHeadAdvancesPointer(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			first := sampleStoredBlock(t, 3, 0)
			second := sampleStoredBlock(t, 4, 1)
			if err := s.SetChainHead(first); err != nil {
				t.Fatal(err)
			}
			if err := s.SetChainHead(second); err != nil {
				t.Fatal(err)
			}
			head, err := s.GetChainHead()
			if err != nil {
				t.Fatal(err)
			}
			if head.Hash() != second.Hash() {
				t.Fatalf("head = %x, want %x", head.Hash(), second.Hash())
			}
		})
	}
}

func TestBlockWorkIsMonotonicInDifficulty(t *testing.T) {
	easy := BlockWork(consensus.ExpandCompact(0x207fffff))
	hard := BlockWork(consensus.ExpandCompact(0x1d00ffff))
	if hard.Cmp(easy) <= 0 {
		t.Fatalf("a tighter target should contribute more chainwork: hard=%v easy=%v", hard, easy)
	}
}

func TestStoredBlockBuildAccumulatesWork(t *testing.T) {
	genesis := StoredBlock{
		Header:    consensus.BlockHeader{DifficultyBits: 0x207fffff},
		Height:    0,
		ChainWork: BlockWork(consensus.ExpandCompact(0x207fffff)),
	}
	child := consensus.BlockHeader{DifficultyBits: 0x207fffff, PrevBlockHash: genesis.Hash()}
	next := genesis.Build(child)
	if next.Height != 1 {
		t.Fatalf("height = %d, want 1", next.Height)
	}
	wantWork := new(big.Int).Add(genesis.ChainWork, BlockWork(consensus.ExpandCompact(0x207fffff)))
	if next.ChainWork.Cmp(wantWork) != 0 {
		t.Fatalf("chainwork = %v, want %v", next.ChainWork, wantWork)
	}
}
