package consensus

// SighashAll is the only signature-hash type this peer ever produces or
// accepts; fee policy and other sighash flags are out of scope.
const SighashAll uint32 = 1

// MaxTxInputs and MaxTxOutputs cap the input/output VarInt counts a
// wire-parsed transaction may declare, before any allocation happens.
// Without this, a crafted count near the VarInt's 64-bit ceiling makes
// make() panic or OOM the process on a message nowhere near
// MaxPayloadBytes in length.
const (
	MaxTxInputs  = 1_024
	MaxTxOutputs = 1_024
)

// OutPoint identifies a previous transaction output by (txid, index).
type OutPoint struct {
	Hash  Hash
	Index uint32
}

// IsNull reports whether this is the coinbase sentinel outpoint: all
// zero hash, index 0xffffffff.
func (o OutPoint) IsNull() bool {
	return o.Hash.IsZero() && o.Index == 0xffffffff
}

// TxIn is one input of a transaction.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
}

// TxOut is one output of a transaction.
type TxOut struct {
	Value        Amount
	ScriptPubKey []byte
}

// Transaction is an ordered list of inputs and outputs plus version and
// lock-time.
type Transaction struct {
	Version  int32
	TxIn     []TxIn
	TxOut    []TxOut
	LockTime uint32
}

// IsCoinBase reports whether tx has exactly one input whose previous
// output reference is the null outpoint (all-zero hash, index
// 0xffffffff).
func (tx *Transaction) IsCoinBase() bool {
	return len(tx.TxIn) == 1 && tx.TxIn[0].PrevOut.IsNull()
}

// Serialize writes the wire-format encoding of tx.
func (tx *Transaction) Serialize() []byte {
	buf := make([]byte, 0, 256)
	buf = PutUint32LE(buf, uint32(tx.Version))
	buf = PutVarInt(buf, uint64(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		buf = append(buf, in.PrevOut.Hash[:]...)
		buf = PutUint32LE(buf, in.PrevOut.Index)
		buf = PutVarInt(buf, uint64(len(in.ScriptSig)))
		buf = append(buf, in.ScriptSig...)
		buf = PutUint32LE(buf, in.Sequence)
	}
	buf = PutVarInt(buf, uint64(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		buf = PutUint64LE(buf, uint64(out.Value.Int64()))
		buf = PutVarInt(buf, uint64(len(out.ScriptPubKey)))
		buf = append(buf, out.ScriptPubKey...)
	}
	buf = PutUint32LE(buf, tx.LockTime)
	return buf
}

// ParseTransaction decodes a Transaction from the front of b, returning
// the transaction and the number of bytes consumed.
func ParseTransaction(b []byte) (*Transaction, int, error) {
	tx := &Transaction{}
	off := 0

	v, err := ReadUint32LE(b[off:])
	if err != nil {
		return nil, 0, verifyErr(ErrTruncated, "tx: version: %v", err)
	}
	tx.Version = int32(v)
	off += 4

	inCount, used, err := ReadVarInt(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += used
	if inCount > MaxTxInputs {
		return nil, 0, verifyErr(ErrMalformed, "tx: input_count %d exceeds max %d", inCount, MaxTxInputs)
	}
	tx.TxIn = make([]TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		var in TxIn
		if len(b)-off < 36 {
			return nil, 0, verifyErr(ErrTruncated, "tx: input %d prevout", i)
		}
		copy(in.PrevOut.Hash[:], b[off:off+32])
		off += 32
		idx, err := ReadUint32LE(b[off:])
		if err != nil {
			return nil, 0, err
		}
		in.PrevOut.Index = idx
		off += 4

		sigLen, used, err := ReadVarInt(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += used
		if uint64(len(b)-off) < sigLen {
			return nil, 0, verifyErr(ErrTruncated, "tx: input %d scriptSig", i)
		}
		in.ScriptSig = append([]byte(nil), b[off:off+int(sigLen)]...)
		off += int(sigLen)

		seq, err := ReadUint32LE(b[off:])
		if err != nil {
			return nil, 0, verifyErr(ErrTruncated, "tx: input %d sequence", i)
		}
		in.Sequence = seq
		off += 4

		tx.TxIn = append(tx.TxIn, in)
	}

	outCount, used, err := ReadVarInt(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += used
	if outCount > MaxTxOutputs {
		return nil, 0, verifyErr(ErrMalformed, "tx: output_count %d exceeds max %d", outCount, MaxTxOutputs)
	}
	tx.TxOut = make([]TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		var out TxOut
		val, err := ReadUint64LE(b[off:])
		if err != nil {
			return nil, 0, verifyErr(ErrTruncated, "tx: output %d value", i)
		}
		out.Value = NewAmount(int64(val))
		off += 8

		scriptLen, used, err := ReadVarInt(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += used
		if uint64(len(b)-off) < scriptLen {
			return nil, 0, verifyErr(ErrTruncated, "tx: output %d scriptPubKey", i)
		}
		out.ScriptPubKey = append([]byte(nil), b[off:off+int(scriptLen)]...)
		off += int(scriptLen)

		tx.TxOut = append(tx.TxOut, out)
	}

	if len(b)-off < 4 {
		return nil, 0, verifyErr(ErrTruncated, "tx: lock_time")
	}
	lt, _ := ReadUint32LE(b[off:])
	tx.LockTime = lt
	off += 4

	return tx, off, nil
}

// Txid is the double-SHA-256 of the transaction's serialization.
func (tx *Transaction) Txid() Hash {
	return DoubleSHA256(tx.Serialize())
}
