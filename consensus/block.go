package consensus

import "math/big"

// HeaderSize is the fixed 80-byte encoding of a block header.
const HeaderSize = 80

// MaxBlockTransactions caps a wire-parsed block's tx-count VarInt
// before any allocation happens, for the same reason MaxTxInputs and
// MaxTxOutputs do: an attacker-chosen count near the VarInt's 64-bit
// ceiling must not reach make().
const MaxBlockTransactions = 1_000_000

// BlockHeader is the fixed-size 80-byte block header.
type BlockHeader struct {
	Version        int32
	PrevBlockHash  Hash
	MerkleRoot     Hash
	Timestamp      uint32
	DifficultyBits uint32
	Nonce          uint32
}

func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, 0, HeaderSize)
	buf = PutUint32LE(buf, uint32(h.Version))
	buf = append(buf, h.PrevBlockHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = PutUint32LE(buf, h.Timestamp)
	buf = PutUint32LE(buf, h.DifficultyBits)
	buf = PutUint32LE(buf, h.Nonce)
	return buf
}

func ParseBlockHeader(b []byte) (*BlockHeader, error) {
	if len(b) < HeaderSize {
		return nil, verifyErr(ErrTruncated, "header: need %d bytes, got %d", HeaderSize, len(b))
	}
	h := &BlockHeader{}
	v, _ := ReadUint32LE(b[0:4])
	h.Version = int32(v)
	copy(h.PrevBlockHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp, _ = ReadUint32LE(b[68:72])
	h.DifficultyBits, _ = ReadUint32LE(b[72:76])
	h.Nonce, _ = ReadUint32LE(b[76:80])
	return h, nil
}

// Hash is the double-SHA-256 of the header bytes.
func (h *BlockHeader) Hash() Hash {
	return DoubleSHA256(h.Serialize())
}

// Block is a header optionally followed by its transaction list.
type Block struct {
	Header BlockHeader
	Txs    []*Transaction // nil when this is a header-only block
}

func (b *Block) Hash() Hash {
	return b.Header.Hash()
}

func (b *Block) Serialize() []byte {
	buf := make([]byte, 0, HeaderSize+len(b.Txs)*256)
	buf = append(buf, b.Header.Serialize()...)
	buf = PutVarInt(buf, uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		buf = append(buf, tx.Serialize()...)
	}
	return buf
}

func ParseBlock(raw []byte) (*Block, error) {
	if len(raw) < HeaderSize {
		return nil, verifyErr(ErrTruncated, "block: need at least %d bytes", HeaderSize)
	}
	header, err := ParseBlockHeader(raw[:HeaderSize])
	if err != nil {
		return nil, err
	}
	blk := &Block{Header: *header}

	off := HeaderSize
	if off == len(raw) {
		return blk, nil
	}
	count, used, err := ReadVarInt(raw[off:])
	if err != nil {
		return nil, err
	}
	off += used
	if count > MaxBlockTransactions {
		return nil, verifyErr(ErrMalformed, "block: tx_count %d exceeds max %d", count, MaxBlockTransactions)
	}
	blk.Txs = make([]*Transaction, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, n, err := ParseTransaction(raw[off:])
		if err != nil {
			return nil, err
		}
		blk.Txs = append(blk.Txs, tx)
		off += n
	}
	return blk, nil
}

// ComputeMerkleRoot recomputes the Merkle root over the attached
// transactions' txids.
func (b *Block) ComputeMerkleRoot() Hash {
	ids := make([]Hash, len(b.Txs))
	for i, tx := range b.Txs {
		ids[i] = tx.Txid()
	}
	return MerkleRoot(ids)
}

// Verify checks, in order: header parses (implied by having a Block at
// all), proof-of-work, the difficulty target against the network's
// ceiling, and — if transactions are attached — the Merkle root.
func (b *Block) Verify(proofOfWorkLimit *big.Int) error {
	target := ExpandCompact(b.Header.DifficultyBits)

	hashInt := new(big.Int).SetBytes(reverseBytes(b.Hash()))
	if hashInt.Cmp(target) > 0 {
		return verifyErr(ErrBadProofOfWork, "proof of work failed")
	}

	if target.Cmp(proofOfWorkLimit) > 0 {
		return verifyErr(ErrBadDifficultyBits, "Difficulty target is bad")
	}

	if b.Txs != nil {
		if b.ComputeMerkleRoot() != b.Header.MerkleRoot {
			return verifyErr(ErrBadMerkleRoot, "merkle root mismatch")
		}
	}
	return nil
}

func reverseBytes(h Hash) []byte {
	out := make([]byte, 32)
	for i := range h {
		out[i] = h[32-1-i]
	}
	return out
}

// SolveHeader increments nonce (and, if it wraps, the timestamp) until
// the header satisfies its own difficulty target. It never touches a
// process-global clock; callers that need deterministic tests pass a
// fixed timestamp up front via the header they hand in.
func SolveHeader(h *BlockHeader) {
	target := ExpandCompact(h.DifficultyBits)
	for {
		hashInt := new(big.Int).SetBytes(reverseBytes(h.Hash()))
		if hashInt.Cmp(target) <= 0 {
			return
		}
		h.Nonce++
		if h.Nonce == 0 {
			h.Timestamp++
		}
	}
}

// StandardSubsidy is the fixed per-block coinbase reward. The spec
// explicitly leaves subsidy-schedule enforcement to a layer above this
// one (spec.md §3: "this layer does not enforce the schedule"), so a
// single constant is sufficient for createNextBlock.
const StandardSubsidy = 50 * NanocoinsPerCoin

// CreateNextBlock builds a successor to prev with a single coinbase
// output paying toAddressHash the standard subsidy. It re-derives
// prevBlockHash, inherits prev's difficulty target, and solves the
// header. now is an injected time source (spec.md §9's fake-clock
// design note) rather than a call to time.Now.
func CreateNextBlock(prev *BlockHeader, toAddressHash [20]byte, now uint32) *Block {
	coinbaseIn := TxIn{
		PrevOut:  OutPoint{Hash: ZeroHash, Index: 0xffffffff},
		Sequence: 0xffffffff,
	}
	coinbaseOut := TxOut{
		Value:        NewAmount(StandardSubsidy),
		ScriptPubKey: PayToAddressScript(toAddressHash),
	}
	coinbase := &Transaction{
		Version: 1,
		TxIn:    []TxIn{coinbaseIn},
		TxOut:   []TxOut{coinbaseOut},
	}

	blk := &Block{
		Header: BlockHeader{
			Version:        1,
			PrevBlockHash:  prev.Hash(),
			Timestamp:      now,
			DifficultyBits: prev.DifficultyBits,
		},
		Txs: []*Transaction{coinbase},
	}
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()
	SolveHeader(&blk.Header)
	return blk
}

// NewGenesisBlock builds the canonical genesis block for a network:
// a single coinbase carrying the given message, with the header set to
// the given difficultyBits, timestamp and nonce. The header is not
// solved here; callers that need valid proof-of-work run SolveHeader.
func NewGenesisBlock(message string, difficultyBits uint32, timestamp, nonce uint32, toAddressHash [20]byte) *Block {
	coinbase := &Transaction{
		Version: 1,
		TxIn: []TxIn{{
			PrevOut:   OutPoint{Hash: ZeroHash, Index: 0xffffffff},
			ScriptSig: []byte(message),
			Sequence:  0xffffffff,
		}},
		TxOut: []TxOut{{
			Value:        NewAmount(StandardSubsidy),
			ScriptPubKey: PayToAddressScript(toAddressHash),
		}},
	}
	blk := &Block{
		Header: BlockHeader{
			Version:        1,
			PrevBlockHash:  ZeroHash,
			Timestamp:      timestamp,
			DifficultyBits: difficultyBits,
			Nonce:          nonce,
		},
		Txs: []*Transaction{coinbase},
	}
	blk.Header.MerkleRoot = blk.ComputeMerkleRoot()
	return blk
}
