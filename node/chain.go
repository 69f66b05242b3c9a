package node

import (
	"fmt"
	"math/big"

	"litepeer.dev/client/consensus"
	"litepeer.dev/client/node/store"
)

// NotificationKind distinguishes a block on the best chain from one on
// a side chain (spec.md §4.8).
type NotificationKind int

const (
	BestChain NotificationKind = iota
	SideChain
)

// ChainListener is the wallet's half of the chain/wallet contract
// (spec.md §4.8's Receive/Connect/Disconnect), expressed one level up
// from individual transactions since the chain engine only ever deals
// in whole blocks.
type ChainListener interface {
	Connect(block *consensus.Block, kind NotificationKind)
	Disconnect(block *consensus.Block)
}

// BlockChain is the engine of spec.md §4.7: header verification,
// difficulty retargeting, fork detection, and reorganization, on top of
// a BlockStore and notifying a ChainListener of the result.
//
// It additionally keeps an in-memory cache of full block bodies (not
// just headers) for blocks it has seen, since a reorg needs to replay
// the transactions of both branches through the wallet and the header
// store alone doesn't carry them. The cache has no size bound; entries
// are never evicted.
type BlockChain struct {
	store    store.BlockStore
	params   Params
	listener ChainListener

	bodies  map[consensus.Hash]*consensus.Block
	orphans map[consensus.Hash]*consensus.Block
}

func NewBlockChain(st store.BlockStore, params Params, listener ChainListener) (*BlockChain, error) {
	bc := &BlockChain{
		store:    st,
		params:   params,
		listener: listener,
		bodies:   make(map[consensus.Hash]*consensus.Block),
		orphans:  make(map[consensus.Hash]*consensus.Block),
	}

	if _, err := st.GetChainHead(); err == store.ErrNoChainHead {
		genesis := params.Genesis
		genesisStored := store.StoredBlock{
			Header:    genesis.Header,
			Height:    0,
			ChainWork: store.BlockWork(consensus.ExpandCompact(genesis.Header.DifficultyBits)),
		}
		if err := st.SetChainHead(genesisStored); err != nil {
			return nil, fmt.Errorf("chain: seed genesis: %w", err)
		}
		bc.bodies[genesisStored.Hash()] = genesis
	} else if err != nil {
		return nil, fmt.Errorf("chain: read chain head: %w", err)
	}

	return bc, nil
}

func (bc *BlockChain) ChainHead() (store.StoredBlock, error) {
	return bc.store.GetChainHead()
}

// Add implements spec.md §4.7's algorithm. It returns true if the block
// extended a chain (best or side, or was already known), false if it
// is an unconnected orphan (not an error). A verification failure
// returns false and a *consensus.VerifyError, leaving chain and store
// state unchanged.
func (bc *BlockChain) Add(block *consensus.Block) (bool, error) {
	hash := block.Hash()

	if _, known, err := bc.store.Get(hash); err != nil {
		return false, err
	} else if known {
		return true, nil
	}

	if err := block.Verify(bc.params.ProofOfWorkLimit); err != nil {
		return false, err
	}

	prev, ok, err := bc.store.Get(block.Header.PrevBlockHash)
	if err != nil {
		return false, err
	}
	if !ok {
		bc.orphans[hash] = block
		return false, nil
	}

	newStored := prev.Build(block.Header)

	if err := bc.checkDifficulty(prev, newStored.Height, block.Header); err != nil {
		return false, err
	}

	if err := bc.store.Put(newStored); err != nil {
		return false, err
	}
	bc.bodies[hash] = block

	head, err := bc.store.GetChainHead()
	if err != nil {
		return false, err
	}

	switch {
	case prev.Hash() == head.Hash():
		if err := bc.store.SetChainHead(newStored); err != nil {
			return false, err
		}
		bc.notify(block, BestChain)
	case newStored.ChainWork.Cmp(head.ChainWork) > 0:
		if err := bc.reorganize(head, newStored); err != nil {
			return false, err
		}
	default:
		bc.notify(block, SideChain)
	}

	bc.connectOrphans(hash)
	return true, nil
}

func (bc *BlockChain) notify(block *consensus.Block, kind NotificationKind) {
	if bc.listener != nil {
		bc.listener.Connect(block, kind)
	}
}

// checkDifficulty implements spec.md §4.7 step 5.
func (bc *BlockChain) checkDifficulty(prev store.StoredBlock, newHeight uint64, header consensus.BlockHeader) error {
	if newHeight%bc.params.Interval != 0 {
		if header.DifficultyBits != prev.Header.DifficultyBits {
			return verifyErr(consensus.ErrUnexpectedDifficulty, "Unexpected change in difficulty")
		}
		return nil
	}

	expected, err := bc.expectedRetargetBits(prev, header.Timestamp)
	if err != nil {
		return err
	}
	if header.DifficultyBits != expected {
		return verifyErr(consensus.ErrUnexpectedDifficulty, "Unexpected change in difficulty")
	}
	return nil
}

func (bc *BlockChain) expectedRetargetBits(prev store.StoredBlock, newTimestamp uint32) (uint32, error) {
	start, err := bc.walkBack(prev, bc.params.Interval-1)
	if err != nil {
		return 0, err
	}

	timespan := bc.params.TargetTimespanSeconds()
	elapsed := int64(newTimestamp) - int64(start.Header.Timestamp)
	lower := timespan / 4
	upper := timespan * 4
	if elapsed < lower {
		elapsed = lower
	}
	if elapsed > upper {
		elapsed = upper
	}

	prevTarget := consensus.ExpandCompact(prev.Header.DifficultyBits)
	newTarget := new(big.Int).Mul(prevTarget, big.NewInt(elapsed))
	newTarget.Quo(newTarget, big.NewInt(timespan))
	if newTarget.Cmp(bc.params.ProofOfWorkLimit) > 0 {
		newTarget = bc.params.ProofOfWorkLimit
	}
	return consensus.EncodeCompact(newTarget, false), nil
}

func (bc *BlockChain) walkBack(from store.StoredBlock, steps uint64) (store.StoredBlock, error) {
	cur := from
	for i := uint64(0); i < steps; i++ {
		next, ok, err := bc.store.Get(cur.Header.PrevBlockHash)
		if err != nil {
			return store.StoredBlock{}, err
		}
		if !ok {
			return store.StoredBlock{}, fmt.Errorf("chain: retarget walk-back ran past the known chain at height %d", cur.Height)
		}
		cur = next
	}
	return cur, nil
}

// reorganize implements spec.md §4.7.1. oldHead and newHead's common
// ancestor is found by walking both chains back by height, matching
// the teacher's node/store/reorg.go findForkPoint.
func (bc *BlockChain) reorganize(oldHead, newHead store.StoredBlock) error {
	fork, oldBranch, newBranch, err := bc.findForkAndBranches(oldHead, newHead)
	_ = fork
	if err != nil {
		return err
	}

	for i := len(oldBranch) - 1; i >= 0; i-- {
		if blk, ok := bc.bodies[oldBranch[i].Hash()]; ok && bc.listener != nil {
			bc.listener.Disconnect(blk)
		}
	}
	for _, sb := range newBranch {
		if blk, ok := bc.bodies[sb.Hash()]; ok && bc.listener != nil {
			bc.listener.Connect(blk, BestChain)
		}
	}

	return bc.store.SetChainHead(newHead)
}

// findForkAndBranches returns the common ancestor plus the ordered
// (fork+1 .. tip) branches for each side.
func (bc *BlockChain) findForkAndBranches(oldHead, newHead store.StoredBlock) (fork store.StoredBlock, oldBranch, newBranch []store.StoredBlock, err error) {
	a, b := oldHead, newHead
	var oldDesc, newDesc []store.StoredBlock

	for a.Height > b.Height {
		oldDesc = append(oldDesc, a)
		a, err = bc.mustGet(a.Header.PrevBlockHash)
		if err != nil {
			return
		}
	}
	for b.Height > a.Height {
		newDesc = append(newDesc, b)
		b, err = bc.mustGet(b.Header.PrevBlockHash)
		if err != nil {
			return
		}
	}
	for a.Hash() != b.Hash() {
		oldDesc = append(oldDesc, a)
		newDesc = append(newDesc, b)
		a, err = bc.mustGet(a.Header.PrevBlockHash)
		if err != nil {
			return
		}
		b, err = bc.mustGet(b.Header.PrevBlockHash)
		if err != nil {
			return
		}
	}

	fork = a
	reverseStoredBlocks(oldDesc)
	reverseStoredBlocks(newDesc)
	return fork, oldDesc, newDesc, nil
}

func (bc *BlockChain) mustGet(hash consensus.Hash) (store.StoredBlock, error) {
	sb, ok, err := bc.store.Get(hash)
	if err != nil {
		return store.StoredBlock{}, err
	}
	if !ok {
		return store.StoredBlock{}, fmt.Errorf("chain: missing ancestor %s", hash)
	}
	return sb, nil
}

func reverseStoredBlocks(s []store.StoredBlock) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// connectOrphans attempts to connect any previously-seen orphan whose
// parent is now known, tail-recursively via Add (spec.md §4.7 step 8).
func (bc *BlockChain) connectOrphans(parentHash consensus.Hash) {
	var ready []consensus.Hash
	for h, blk := range bc.orphans {
		if blk.Header.PrevBlockHash == parentHash {
			ready = append(ready, h)
		}
	}
	for _, h := range ready {
		blk, ok := bc.orphans[h]
		if !ok {
			continue
		}
		delete(bc.orphans, h)
		_, _ = bc.Add(blk)
	}
}

func verifyErr(code consensus.ErrorCode, format string, args ...any) error {
	return &consensus.VerifyError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
