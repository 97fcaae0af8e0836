package payout

import (
	"errors"
	"fmt"

	"github.com/alpenlabs/faucetd/log"
	"github.com/alpenlabs/faucetd/wallet"
)

// ErrEmptyBatch is returned by Build when given no requests.
var ErrEmptyBatch = errors.New("payout: cannot build a batch from zero requests")

// Builder composes, signs, and hands off a single batch transaction (spec
// §4.F). It holds no queue state of its own; Batcher owns draining.
type Builder struct {
	wallet  wallet.L1Wallet
	feeRate wallet.FeeRateSource
	log     log.Logger
}

// NewBuilder returns a Builder driving w, quoting fees from feeRate.
func NewBuilder(w wallet.L1Wallet, feeRate wallet.FeeRateSource) *Builder {
	return &Builder{wallet: w, feeRate: feeRate, log: log.New("component", "payout.builder")}
}

// Build composes and signs a transaction paying every request in reqs in a
// single batch (spec §4.F steps 1-4). A composition failure is reported to
// the caller, which treats the batch as lost; a signing failure is a
// programming error for wallet-owned inputs and is logged at Crit.
func (b *Builder) Build(reqs []wallet.Recipient) (wallet.FinalTx, error) {
	if len(reqs) == 0 {
		return wallet.FinalTx{}, ErrEmptyBatch
	}

	tb := b.wallet.NewTxBuilder()
	for _, r := range reqs {
		tb.AddRecipient(r.Script, r.Amount)
	}

	psbt, err := tb.Finish(b.feeRate.FeeRate())
	if err != nil {
		return wallet.FinalTx{}, fmt.Errorf("payout: composing batch of %d outputs: %w", len(reqs), err)
	}

	tx, err := b.wallet.Sign(psbt)
	if err != nil {
		b.log.Crit("signing a wallet-owned batch failed", "outputs", len(reqs), "err", err)
	}
	return tx, nil
}
