package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alpenlabs/faucetd/config"
	"github.com/alpenlabs/faucetd/wallet"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain guards against the batcher's ticker-driven run loop, and the
// broadcast sub-tasks it spawns per tick, outliving a Stop() call.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTxBuilder struct {
	recipients []wallet.Recipient
	finishErr  error
}

func (b *fakeTxBuilder) AddRecipient(script []byte, amount uint64) {
	b.recipients = append(b.recipients, wallet.Recipient{Script: script, Amount: amount})
}

func (b *fakeTxBuilder) Finish(feeRate uint64) (wallet.PSBT, error) {
	if b.finishErr != nil {
		return wallet.PSBT{}, b.finishErr
	}
	return wallet.PSBT{Outputs: b.recipients, FeeRate: feeRate}, nil
}

type fakeWallet struct {
	mu          sync.Mutex
	finishErr   error
	signed      []wallet.PSBT
	unconfirmed []wallet.FinalTx
	persisted   int
}

func (w *fakeWallet) NewTxBuilder() wallet.TxBuilder {
	return &fakeTxBuilder{finishErr: w.finishErr}
}

func (w *fakeWallet) Sign(psbt wallet.PSBT) (wallet.FinalTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signed = append(w.signed, psbt)
	var txid [32]byte
	txid[0] = byte(len(w.signed))
	return wallet.FinalTx{Raw: []byte("tx"), Txid: txid}, nil
}

func (w *fakeWallet) ApplyUnconfirmed(tx wallet.FinalTx, seenAt time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unconfirmed = append(w.unconfirmed, tx)
	return nil
}

func (w *fakeWallet) Persist() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.persisted++
	return nil
}

type fakeFeeRate struct{ rate uint64 }

func (f fakeFeeRate) FeeRate() uint64 { return f.rate }

type fakeBroadcaster struct {
	mu  sync.Mutex
	txs []wallet.FinalTx
	err error
}

func (b *fakeBroadcaster) Broadcast(ctx context.Context, tx wallet.FinalTx) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.txs = append(b.txs, tx)
	return nil
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.txs)
}

func TestBuilderComposesAndSignsBatch(t *testing.T) {
	w := &fakeWallet{}
	b := NewBuilder(w, fakeFeeRate{rate: 5})

	reqs := []wallet.Recipient{{Script: []byte{1}, Amount: 100}, {Script: []byte{2}, Amount: 200}}
	tx, err := b.Build(reqs)
	require.NoError(t, err)
	require.NotZero(t, tx.Txid)
	require.Len(t, w.signed, 1)
	require.Len(t, w.signed[0].Outputs, 2)
}

func TestBuilderRejectsEmptyBatch(t *testing.T) {
	b := NewBuilder(&fakeWallet{}, fakeFeeRate{})
	_, err := b.Build(nil)
	require.ErrorIs(t, err, ErrEmptyBatch)
}

func TestBuilderReportsCompositionFailure(t *testing.T) {
	w := &fakeWallet{finishErr: errors.New("insufficient funds")}
	b := NewBuilder(w, fakeFeeRate{})
	_, err := b.Build([]wallet.Recipient{{Amount: 1}})
	require.Error(t, err)
}

func TestBatcherDrainsAndBroadcastsOnTick(t *testing.T) {
	w := &fakeWallet{}
	bc := &fakeBroadcaster{}
	builder := NewBuilder(w, fakeFeeRate{rate: 1})
	q := NewQueue(100)
	for i := 0; i < 5; i++ {
		q.Push(wallet.Recipient{Amount: uint64(i)})
	}

	cfg := config.BatcherConfig{PeriodSeconds: 0, MaxPerTx: 10, MaxInFlight: 100, MaxInFlightBroadcasts: 4}
	// A zero period makes time.NewTicker panic; use a tiny explicit period
	// instead of the zero-value default for this test's ticker.
	cfg.PeriodSeconds = 0
	batcher := NewBatcher(cfg, q, builder, bc)
	batcher.period = 20 * time.Millisecond

	batcher.Start()
	defer batcher.Stop()

	require.Eventually(t, func() bool {
		return bc.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.persisted == 1 && len(w.unconfirmed) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 0, q.Len())
}

func TestBatcherSkipsTickWhenQueueEmpty(t *testing.T) {
	w := &fakeWallet{}
	bc := &fakeBroadcaster{}
	builder := NewBuilder(w, fakeFeeRate{rate: 1})
	q := NewQueue(10)

	cfg := config.BatcherConfig{MaxPerTx: 10, MaxInFlightBroadcasts: 4}
	batcher := NewBatcher(cfg, q, builder, bc)
	batcher.period = 20 * time.Millisecond

	batcher.Start()
	time.Sleep(100 * time.Millisecond)
	batcher.Stop()

	require.Equal(t, 0, bc.count())
}

func TestBatcherDropsBatchOnCompositionFailure(t *testing.T) {
	w := &fakeWallet{finishErr: errors.New("dust output")}
	bc := &fakeBroadcaster{}
	builder := NewBuilder(w, fakeFeeRate{rate: 1})
	q := NewQueue(10)
	q.Push(wallet.Recipient{Amount: 1})

	cfg := config.BatcherConfig{MaxPerTx: 10, MaxInFlightBroadcasts: 4}
	batcher := NewBatcher(cfg, q, builder, bc)
	batcher.period = 20 * time.Millisecond

	batcher.Start()
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 10*time.Millisecond)
	batcher.Stop()

	require.Equal(t, 0, bc.count())
}
