package node

import "litepeer.dev/client/consensus"

// TxConfidence is how sure the wallet is that a transaction will stay
// in the best chain (spec.md §4.8's four pools, collapsed to the
// subset an external listener cares about).
type TxConfidence int

const (
	ConfidencePending TxConfidence = iota
	ConfidenceBuilding
	ConfidenceDead
)

// CoinsReceivedEvent is delivered once per transaction that moves coins
// into the wallet, whether newly broadcast or freshly confirmed.
type CoinsReceivedEvent struct {
	Tx            *consensus.Transaction
	BalanceBefore consensus.Amount
	BalanceAfter  consensus.Amount
}

// DeadTransactionEvent is delivered when a transaction in the pending,
// unspent or spent pool is double-spent out from under the wallet by a
// transaction that made it into the best chain instead (spec.md §4.8's
// Finney-attack case).
type DeadTransactionEvent struct {
	DeadTx        *consensus.Transaction
	ReplacementTx *consensus.Transaction
}

// WalletListener is the narrow observer interface spec.md §9 asks for:
// callers subscribe to exactly the notifications they need, and
// listeners are invoked synchronously and in subscription order from
// inside the wallet's locked section, so a listener must not call back
// into the wallet.
type WalletListener interface {
	OnCoinsReceived(event CoinsReceivedEvent)
	OnDeadTransaction(event DeadTransactionEvent)
}

// DownloadListener reports initial block-chain sync progress. It is a
// separate, optional subscription point so a headless node doesn't
// have to implement it.
type DownloadListener interface {
	OnChainDownloadProgress(blocksSoFar, blocksTotal int)
}
