package node

import (
	"fmt"
	"sync"

	"litepeer.dev/client/consensus"
	"litepeer.dev/client/crypto"
)

// BalanceType selects which of spec.md §3's two balance definitions
// GetBalance reports.
type BalanceType int

const (
	BalanceAvailable BalanceType = iota
	BalanceEstimated
)

// walletTx is the wallet's view of one transaction: which of its
// outputs pay us, and which of those have since been consumed by a
// confirmed spend or reserved by a pending one. It is shared by
// reference across pool transitions (spec.md §9's "ownership of
// transactions" note) rather than copied.
type walletTx struct {
	tx               *consensus.Transaction
	block            *consensus.Block
	payingOutputs    []int
	spentByConfirmed map[int]bool
	spentByPending   map[int]bool
}

func newWalletTx(tx *consensus.Transaction, block *consensus.Block, payingOutputs []int) *walletTx {
	return &walletTx{
		tx:               tx,
		block:            block,
		payingOutputs:    payingOutputs,
		spentByConfirmed: make(map[int]bool),
		spentByPending:   make(map[int]bool),
	}
}

func (wt *walletTx) allConfirmedSpent() bool {
	if len(wt.payingOutputs) == 0 {
		return false
	}
	for _, idx := range wt.payingOutputs {
		if !wt.spentByConfirmed[idx] {
			return false
		}
	}
	return true
}

// rawUnspentValue sums paying outputs not yet consumed by a confirmed
// spend, ignoring any pending reservation against them.
func (wt *walletTx) rawUnspentValue() consensus.Amount {
	total := consensus.NewAmount(0)
	for _, idx := range wt.payingOutputs {
		if wt.spentByConfirmed[idx] {
			continue
		}
		total = total.Add(wt.tx.TxOut[idx].Value)
	}
	return total
}

func (wt *walletTx) availableValue() consensus.Amount {
	total := consensus.NewAmount(0)
	for _, idx := range wt.payingOutputs {
		if wt.spentByConfirmed[idx] || wt.spentByPending[idx] {
			continue
		}
		total = total.Add(wt.tx.TxOut[idx].Value)
	}
	return total
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

// Wallet is spec.md §4.8's four-pool transaction tracker plus keychain,
// coin selection, and send construction. All mutation goes through a
// single mutex (spec.md §5): the chain-notification callbacks and the
// application's CreateSend/ConfirmSend calls never interleave.
type Wallet struct {
	mu     sync.Mutex
	params Params

	keys []*crypto.Key

	unspent map[consensus.Hash]*walletTx
	spent   map[consensus.Hash]*walletTx
	pending map[consensus.Hash]*walletTx
	dead    map[consensus.Hash]*walletTx

	// unspentOrder records insertion order into unspent for
	// deterministic coin selection (spec.md §9: unspecified in source,
	// fixed here to insertion order).
	unspentOrder []consensus.Hash

	listeners []WalletListener
}

func NewWallet(params Params) *Wallet {
	return &Wallet{
		params:  params,
		unspent: make(map[consensus.Hash]*walletTx),
		spent:   make(map[consensus.Hash]*walletTx),
		pending: make(map[consensus.Hash]*walletTx),
		dead:    make(map[consensus.Hash]*walletTx),
	}
}

func (w *Wallet) AddKey(k *crypto.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys = append(w.keys, k)
}

func (w *Wallet) AddListener(l WalletListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

func (w *Wallet) ownerIndex(script []byte) (int, bool) {
	hash160, ok := consensus.ExtractPayToAddress(script)
	if !ok {
		return -1, false
	}
	for i, k := range w.keys {
		if k.ToAddress(w.params.AddressHeader).Hash160 == hash160 {
			return i, true
		}
	}
	return -1, false
}

func (w *Wallet) payingOutputIndexes(tx *consensus.Transaction) []int {
	var idxs []int
	for i, out := range tx.TxOut {
		if _, ok := w.ownerIndex(out.ScriptPubKey); ok {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func sumOutputs(tx *consensus.Transaction, idxs []int) consensus.Amount {
	total := consensus.NewAmount(0)
	for _, idx := range idxs {
		total = total.Add(tx.TxOut[idx].Value)
	}
	return total
}

// findConfirmed looks up a transaction in the unspent or spent pools —
// the two pools that represent outputs we can spend from.
func (w *Wallet) findConfirmed(hash consensus.Hash) (*walletTx, bool) {
	if wt, ok := w.unspent[hash]; ok {
		return wt, true
	}
	if wt, ok := w.spent[hash]; ok {
		return wt, true
	}
	return nil, false
}

func (w *Wallet) valueSentFromMeConfirmed(tx *consensus.Transaction) consensus.Amount {
	total := consensus.NewAmount(0)
	for _, in := range tx.TxIn {
		wt, ok := w.findConfirmed(in.PrevOut.Hash)
		if !ok || !containsInt(wt.payingOutputs, int(in.PrevOut.Index)) {
			continue
		}
		total = total.Add(wt.tx.TxOut[in.PrevOut.Index].Value)
	}
	return total
}

func (w *Wallet) removeFromOrder(hash consensus.Hash) {
	for i, h := range w.unspentOrder {
		if h == hash {
			w.unspentOrder = append(w.unspentOrder[:i], w.unspentOrder[i+1:]...)
			return
		}
	}
}

// popAny removes a transaction from whichever of pending/unspent/spent
// it currently lives in, returning it (nil if not found in any).
func (w *Wallet) popAny(hash consensus.Hash) *walletTx {
	if wt, ok := w.pending[hash]; ok {
		delete(w.pending, hash)
		return wt
	}
	if wt, ok := w.unspent[hash]; ok {
		delete(w.unspent, hash)
		w.removeFromOrder(hash)
		return wt
	}
	if wt, ok := w.spent[hash]; ok {
		delete(w.spent, hash)
		return wt
	}
	return nil
}

// findConflicts returns the txids (other than excludeHash) of known
// pending/unspent/spent transactions that also spend outpoint.
func (w *Wallet) findConflicts(outpoint consensus.OutPoint, excludeHash consensus.Hash) []consensus.Hash {
	var conflicts []consensus.Hash
	scan := func(m map[consensus.Hash]*walletTx) {
		for h, wt := range m {
			if h == excludeHash {
				continue
			}
			for _, in := range wt.tx.TxIn {
				if in.PrevOut == outpoint {
					conflicts = append(conflicts, h)
					break
				}
			}
		}
	}
	scan(w.pending)
	scan(w.unspent)
	scan(w.spent)
	return conflicts
}

func (w *Wallet) availableLocked() consensus.Amount {
	total := consensus.NewAmount(0)
	for _, wt := range w.unspent {
		total = total.Add(wt.availableValue())
	}
	return total
}

func (w *Wallet) estimatedLocked() consensus.Amount {
	raw := consensus.NewAmount(0)
	for _, wt := range w.unspent {
		raw = raw.Add(wt.rawUnspentValue())
	}
	spentByPendingValue := consensus.NewAmount(0)
	receivedByPending := consensus.NewAmount(0)
	for _, wt := range w.pending {
		spentByPendingValue = spentByPendingValue.Add(w.valueSentFromMeConfirmed(wt.tx))
		receivedByPending = receivedByPending.Add(sumOutputs(wt.tx, wt.payingOutputs))
	}
	return raw.Sub(spentByPendingValue).Add(receivedByPending)
}

// GetBalance implements spec.md §3's two balance definitions.
func (w *Wallet) GetBalance(t BalanceType) consensus.Amount {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t == BalanceEstimated {
		return w.estimatedLocked()
	}
	return w.availableLocked()
}

func (w *Wallet) notifyCoinsReceived(tx *consensus.Transaction, before, after consensus.Amount) {
	for _, l := range w.listeners {
		l.OnCoinsReceived(CoinsReceivedEvent{Tx: tx, BalanceBefore: before, BalanceAfter: after})
	}
}

func (w *Wallet) notifyDead(deadTx, replacementTx *consensus.Transaction) {
	for _, l := range w.listeners {
		l.OnDeadTransaction(DeadTransactionEvent{DeadTx: deadTx, ReplacementTx: replacementTx})
	}
}

// Receive implements spec.md §4.8's per-transaction transitions. block
// is nil for loose (unconfirmed, directly-relayed) transactions.
func (w *Wallet) Receive(tx *consensus.Transaction, block *consensus.Block, kind NotificationKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.receiveLocked(tx, block, kind)
}

func (w *Wallet) receiveLocked(tx *consensus.Transaction, block *consensus.Block, kind NotificationKind) {
	if kind == SideChain {
		// Balances and pools are untouched; the block itself is kept
		// by the chain engine's body cache for a future reorg replay.
		return
	}

	before := w.availableLocked()
	hash := tx.Txid()

	delete(w.pending, hash)

	for _, in := range tx.TxIn {
		wt, ok := w.unspent[in.PrevOut.Hash]
		if !ok || !containsInt(wt.payingOutputs, int(in.PrevOut.Index)) {
			continue
		}
		wt.spentByConfirmed[int(in.PrevOut.Index)] = true
		if wt.allConfirmedSpent() {
			w.spent[in.PrevOut.Hash] = wt
			delete(w.unspent, in.PrevOut.Hash)
			w.removeFromOrder(in.PrevOut.Hash)
		}
	}

	for _, in := range tx.TxIn {
		for _, conflictHash := range w.findConflicts(in.PrevOut, hash) {
			dead := w.popAny(conflictHash)
			if dead == nil {
				continue
			}
			w.dead[conflictHash] = dead
			w.notifyDead(dead.tx, tx)
		}
	}

	payingIdx := w.payingOutputIndexes(tx)
	valueToMe := sumOutputs(tx, payingIdx)
	if valueToMe.Sign() > 0 {
		w.unspent[hash] = newWalletTx(tx, block, payingIdx)
		w.unspentOrder = append(w.unspentOrder, hash)
		after := w.availableLocked()
		w.notifyCoinsReceived(tx, before, after)
	}
}

// Connect implements the ChainListener half of the chain/wallet
// contract for a best-chain or side-chain block.
func (w *Wallet) Connect(block *consensus.Block, kind NotificationKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, tx := range block.Txs {
		w.receiveLocked(tx, block, kind)
	}
}

// Disconnect reverses Connect's best-chain transitions for every
// transaction in block, in reverse order, as part of a reorg
// (spec.md §4.7.1).
func (w *Wallet) Disconnect(block *consensus.Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := len(block.Txs) - 1; i >= 0; i-- {
		w.disconnectLocked(block.Txs[i])
	}
}

func (w *Wallet) disconnectLocked(tx *consensus.Transaction) {
	hash := tx.Txid()

	// Un-confirm this transaction itself: a tx we originated goes back
	// to pending; a tx we only received has no further lifecycle here
	// and is simply dropped from the confirmed pools.
	if wt := w.popAny(hash); wt != nil {
		if w.valueSentFromMeConfirmed(tx).Sign() > 0 {
			w.pending[hash] = wt
		}
	}

	// Reverse the spent-marking this tx's inputs caused.
	for _, in := range tx.TxIn {
		if wt, ok := w.spent[in.PrevOut.Hash]; ok {
			delete(wt.spentByConfirmed, int(in.PrevOut.Index))
			if !wt.allConfirmedSpent() {
				w.unspent[in.PrevOut.Hash] = wt
				delete(w.spent, in.PrevOut.Hash)
				w.unspentOrder = append(w.unspentOrder, in.PrevOut.Hash)
			}
		} else if wt, ok := w.unspent[in.PrevOut.Hash]; ok {
			delete(wt.spentByConfirmed, int(in.PrevOut.Index))
		}
	}
}

// signatureHash implements spec.md §4.8 step 3: doubleDigest of the
// transaction serialized with all scriptSigs blanked except the input
// being signed (set to the previous output's scriptPubKey), followed
// by SIGHASH_ALL as a little-endian u32.
func signatureHash(tx *consensus.Transaction, inputIndex int, prevScript []byte) [32]byte {
	clone := &consensus.Transaction{Version: tx.Version, LockTime: tx.LockTime}
	for i, in := range tx.TxIn {
		script := []byte(nil)
		if i == inputIndex {
			script = prevScript
		}
		clone.TxIn = append(clone.TxIn, consensus.TxIn{
			PrevOut:   in.PrevOut,
			ScriptSig: script,
			Sequence:  in.Sequence,
		})
	}
	clone.TxOut = append(clone.TxOut, tx.TxOut...)

	ser := clone.Serialize()
	ser = consensus.PutUint32LE(ser, consensus.SighashAll)
	digest := consensus.DoubleSHA256(ser)
	return [32]byte(digest)
}

// CreateSend implements spec.md §4.8's CreateSend: stateless coin
// selection, construction, and signing. Wallet pools are not mutated;
// call ConfirmSend to commit the result.
func (w *Wallet) CreateSend(to crypto.Address, value consensus.Amount, changeAddress *crypto.Address) (*consensus.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.keys) == 0 {
		return nil, fmt.Errorf("wallet: no keys to sign with")
	}

	type selectedOutput struct {
		hash consensus.Hash
		idx  int
	}
	var selected []selectedOutput
	total := consensus.NewAmount(0)

outer:
	for _, h := range w.unspentOrder {
		wt, ok := w.unspent[h]
		if !ok {
			continue
		}
		for _, idx := range wt.payingOutputs {
			if wt.spentByConfirmed[idx] || wt.spentByPending[idx] {
				continue
			}
			selected = append(selected, selectedOutput{hash: h, idx: idx})
			total = total.Add(wt.tx.TxOut[idx].Value)
			if total.Cmp(value) >= 0 {
				break outer
			}
		}
	}
	if total.Cmp(value) < 0 {
		return nil, fmt.Errorf("wallet: insufficient funds: have %s, need %s", total.FriendlyString(), value.FriendlyString())
	}

	tx := &consensus.Transaction{Version: 1}
	for _, sel := range selected {
		tx.TxIn = append(tx.TxIn, consensus.TxIn{
			PrevOut:  consensus.OutPoint{Hash: sel.hash, Index: uint32(sel.idx)},
			Sequence: 0xffffffff,
		})
	}

	tx.TxOut = append(tx.TxOut, consensus.TxOut{
		Value:        value,
		ScriptPubKey: consensus.PayToAddressScript(to.Hash160),
	})

	change := total.Sub(value)
	if change.Sign() > 0 {
		addr := changeAddress
		if addr == nil {
			first := w.keys[0].ToAddress(w.params.AddressHeader)
			addr = &first
		}
		tx.TxOut = append(tx.TxOut, consensus.TxOut{
			Value:        change,
			ScriptPubKey: consensus.PayToAddressScript(addr.Hash160),
		})
	}

	for i, sel := range selected {
		wt := w.unspent[sel.hash]
		prevScript := wt.tx.TxOut[sel.idx].ScriptPubKey
		keyIdx, ok := w.ownerIndex(prevScript)
		if !ok {
			return nil, fmt.Errorf("wallet: no key owns selected output %s:%d", sel.hash, sel.idx)
		}
		digest := signatureHash(tx, i, prevScript)
		der, err := w.keys[keyIdx].Sign(digest)
		if err != nil {
			return nil, fmt.Errorf("wallet: sign input %d: %w", i, err)
		}
		tx.TxIn[i].ScriptSig = consensus.SignatureScript(der, consensus.SighashAll, w.keys[keyIdx].PublicKeyUncompressed())
	}

	return tx, nil
}

// ConfirmSend moves tx into pending, reserving its confirmed inputs
// against the available balance, without requiring it to have come
// from CreateSend.
func (w *Wallet) ConfirmSend(tx *consensus.Transaction) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, in := range tx.TxIn {
		if wt, ok := w.findConfirmed(in.PrevOut.Hash); ok && containsInt(wt.payingOutputs, int(in.PrevOut.Index)) {
			wt.spentByPending[int(in.PrevOut.Index)] = true
		}
	}
	w.pending[tx.Txid()] = newWalletTx(tx, nil, w.payingOutputIndexes(tx))
}

// Broadcaster is the narrow surface SendCoins needs from a connected
// peer; node/p2p.Conn satisfies it by wrapping SendMessage with a tx
// message.
type Broadcaster interface {
	Broadcast(tx *consensus.Transaction) error
}

// SendCoins implements spec.md §4.8: CreateSend, ConfirmSend, broadcast.
func (w *Wallet) SendCoins(peer Broadcaster, to crypto.Address, value consensus.Amount) (*consensus.Transaction, error) {
	tx, err := w.CreateSend(to, value, nil)
	if err != nil {
		return nil, err
	}
	w.ConfirmSend(tx)
	if err := peer.Broadcast(tx); err != nil {
		return tx, fmt.Errorf("wallet: broadcast: %w", err)
	}
	return tx, nil
}
