// Package wallet declares the external collaborators the core challenge
// and payout subsystems depend on (spec §4.H, §6): wallet signing,
// broadcast, balance reads, and persistence. Per spec §1, seed persistence
// and wallet construction themselves are out of scope for the core — this
// package specifies the interfaces the core uses and, in the l1/l2
// subpackages, provides concrete adapters thin enough to keep that
// boundary honest.
package wallet

import (
	"context"
	"time"

	"github.com/alpenlabs/faucetd/config"
)

// Recipient is one payout destination: an opaque chain-specific locking
// script (a P2WPKH scriptPubKey for L1, an RLP address for L2) and an
// amount in base units.
type Recipient struct {
	Script []byte
	Amount uint64
}

// ChangeOutput identifies which, if any, of a batch's outputs pays back to
// the wallet itself, so the caller can record its real value as a new
// spendable UTXO instead of guessing. A zero-value ChangeOutput (Amount 0)
// means the batch spent its inputs exactly and left no change.
type ChangeOutput struct {
	Recipient
	Vout uint32
}

// PSBT is the not-yet-signed, not-yet-finalized result of composing a
// batch transaction (spec §4.F step "Finish building"). It is opaque to
// the payout package beyond the fields needed for logging/testing.
type PSBT struct {
	Outputs []Recipient
	FeeRate uint64
	Change  ChangeOutput
}

// FinalTx is a fully signed, broadcast-ready transaction.
type FinalTx struct {
	Raw    []byte
	Txid   [32]byte
	Change ChangeOutput
}

// TxBuilder accumulates recipients for a single batch (spec §4.F steps 2-4).
type TxBuilder interface {
	AddRecipient(script []byte, amount uint64)
	// Finish composes the final transaction at the given fee rate. It can
	// fail (insufficient funds, dust, composition error); the caller must
	// treat the batch as lost on failure, per spec §4.F step 4.
	Finish(feeRate uint64) (PSBT, error)
}

// L1Wallet is the UTXO-chain wallet interface the payout batcher drives.
// Implementations own the write/read-lock discipline described in spec
// §4.F: NewTxBuilder acquires whatever exclusivity is needed to mutate the
// UTXO set, released no later than Finish; Sign only needs read access.
type L1Wallet interface {
	NewTxBuilder() TxBuilder
	// Sign is documented as infallible for wallet-owned inputs (spec §4.H);
	// an error here is treated as a programming error by the caller.
	Sign(psbt PSBT) (FinalTx, error)
	ApplyUnconfirmed(tx FinalTx, seenAt time.Time) error
	Persist() error
}

// Broadcaster submits a finished transaction to the network.
type Broadcaster interface {
	Broadcast(ctx context.Context, tx FinalTx) error
}

// FeeRateSource exposes a live, periodically-updated fee rate in
// satoshis-per-vbyte, fed to BatchBuilder per spec §4.F.
type FeeRateSource interface {
	FeeRate() uint64
}

// L2Signer is the account-chain direct-send path (spec HTTP surface
// /claim_l2): no batching, one signed-and-broadcast transaction per claim.
type L2Signer interface {
	Send(ctx context.Context, to []byte, amount uint64) (txid [32]byte, err error)
}

// BalanceReader has the same method set as challenge.BalanceReader; kept as
// a separate named interface here since wallet adapters are the natural
// place that satisfies it, without creating an import of the challenge
// package from wallet.
type BalanceReader interface {
	Balance(chain config.ChainName) (uint64, error)
}
