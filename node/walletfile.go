package node

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"litepeer.dev/client/consensus"
	"litepeer.dev/client/crypto"
)

// Wallet file persistence, grounded on the teacher's node/chainstate.go
// disk-record shape and its writeFileAtomic helper: a versioned JSON
// document holding the keychain and the four transaction pools. The
// format is not part of the wire contract (spec.md §6) so any stable
// encoding is allowed; JSON matches what the rest of the pack reaches
// for when persisting structured state to disk.
const walletFileVersion = 1

type walletFileDisk struct {
	Version int             `json:"version"`
	Keys    []string        `json:"keys"` // hex-encoded 32-byte private scalars
	Pools   walletPoolsDisk `json:"pools"`
	Order   []string        `json:"unspent_order"`
}

type walletPoolsDisk struct {
	Unspent []walletTxDisk `json:"unspent"`
	Spent   []walletTxDisk `json:"spent"`
	Pending []walletTxDisk `json:"pending"`
	Dead    []walletTxDisk `json:"dead"`
}

type walletTxDisk struct {
	Raw              string       `json:"raw"` // hex-encoded tx.Serialize()
	PayingOutputs    []int        `json:"paying_outputs"`
	SpentByConfirmed []int        `json:"spent_by_confirmed"`
	SpentByPending   []int        `json:"spent_by_pending"`
}

func intSetToSlice(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func intSliceToSet(s []int) map[int]bool {
	m := make(map[int]bool, len(s))
	for _, v := range s {
		m[v] = true
	}
	return m
}

func walletTxToDisk(wt *walletTx) walletTxDisk {
	return walletTxDisk{
		Raw:              hex.EncodeToString(wt.tx.Serialize()),
		PayingOutputs:    append([]int(nil), wt.payingOutputs...),
		SpentByConfirmed: intSetToSlice(wt.spentByConfirmed),
		SpentByPending:   intSetToSlice(wt.spentByPending),
	}
}

func walletTxFromDisk(d walletTxDisk) (*walletTx, error) {
	raw, err := hex.DecodeString(d.Raw)
	if err != nil {
		return nil, fmt.Errorf("walletfile: decode tx hex: %w", err)
	}
	tx, _, err := consensus.ParseTransaction(raw)
	if err != nil {
		return nil, fmt.Errorf("walletfile: parse tx: %w", err)
	}
	return &walletTx{
		tx:               tx,
		payingOutputs:    append([]int(nil), d.PayingOutputs...),
		spentByConfirmed: intSliceToSet(d.SpentByConfirmed),
		spentByPending:   intSliceToSet(d.SpentByPending),
	}, nil
}

func poolToDisk(m map[consensus.Hash]*walletTx) []walletTxDisk {
	out := make([]walletTxDisk, 0, len(m))
	for _, wt := range m {
		out = append(out, walletTxToDisk(wt))
	}
	return out
}

func poolFromDisk(entries []walletTxDisk) (map[consensus.Hash]*walletTx, error) {
	out := make(map[consensus.Hash]*walletTx, len(entries))
	for _, e := range entries {
		wt, err := walletTxFromDisk(e)
		if err != nil {
			return nil, err
		}
		out[wt.tx.Txid()] = wt
	}
	return out, nil
}

// SaveToFile implements spec.md §4.8's LoadFromFile/SaveToFile contract:
// a self-describing encoding of keys and the four pools that round
// trips losslessly, including txids, scripts, and pool membership.
func (w *Wallet) SaveToFile(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	disk := walletFileDisk{
		Version: walletFileVersion,
		Keys:    make([]string, len(w.keys)),
		Pools: walletPoolsDisk{
			Unspent: poolToDisk(w.unspent),
			Spent:   poolToDisk(w.spent),
			Pending: poolToDisk(w.pending),
			Dead:    poolToDisk(w.dead),
		},
		Order: make([]string, len(w.unspentOrder)),
	}
	for i, k := range w.keys {
		disk.Keys[i] = hex.EncodeToString(k.PrivateBytes())
	}
	for i, h := range w.unspentOrder {
		disk.Order[i] = h.String()
	}

	raw, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return fmt.Errorf("walletfile: encode: %w", err)
	}
	raw = append(raw, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("walletfile: mkdir: %w", err)
	}
	return writeFileAtomic(path, raw, 0o600)
}

// LoadFromFile reads a wallet previously written by SaveToFile. A
// missing file is not an error: it yields a fresh, empty wallet, the
// same convenience the teacher's chain-state loader offers.
func LoadFromFile(path string, params Params) (*Wallet, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewWallet(params), nil
	}
	if err != nil {
		return nil, fmt.Errorf("walletfile: read: %w", err)
	}

	var disk walletFileDisk
	if err := json.Unmarshal(raw, &disk); err != nil {
		return nil, fmt.Errorf("walletfile: decode: %w", err)
	}

	w := NewWallet(params)
	for _, kh := range disk.Keys {
		kb, err := hex.DecodeString(kh)
		if err != nil {
			return nil, fmt.Errorf("walletfile: decode key hex: %w", err)
		}
		k, err := crypto.KeyFromPrivateBytes(kb)
		if err != nil {
			return nil, err
		}
		w.keys = append(w.keys, k)
	}

	unspent, err := poolFromDisk(disk.Pools.Unspent)
	if err != nil {
		return nil, err
	}
	spent, err := poolFromDisk(disk.Pools.Spent)
	if err != nil {
		return nil, err
	}
	pending, err := poolFromDisk(disk.Pools.Pending)
	if err != nil {
		return nil, err
	}
	dead, err := poolFromDisk(disk.Pools.Dead)
	if err != nil {
		return nil, err
	}
	w.unspent, w.spent, w.pending, w.dead = unspent, spent, pending, dead

	w.unspentOrder = make([]consensus.Hash, 0, len(disk.Order))
	for _, hs := range disk.Order {
		var h consensus.Hash
		b, err := hex.DecodeString(hs)
		if err != nil || len(b) != 32 {
			continue // stale/foreign entry; unspent map is authoritative
		}
		for i := range h {
			h[i] = b[31-i] // disk order is display order; reverse to wire order
		}
		if _, ok := w.unspent[h]; ok {
			w.unspentOrder = append(w.unspentOrder, h)
		}
	}

	return w, nil
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmpPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tmpPath, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
