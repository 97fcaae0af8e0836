// Package payout implements the L1 payout pipeline (spec §4.E-G): a bounded
// request queue fed by verified claims, and a periodic batcher that drains
// it into signed, broadcast transactions via the wallet package's
// interfaces.
package payout

import (
	"sync"
	"sync/atomic"

	"github.com/alpenlabs/faucetd/wallet"
)

// Queue is a bounded, mutex-guarded FIFO of pending L1 payout requests
// (spec §4.E). Push never blocks: once full, new requests are dropped and
// counted rather than applying backpressure to the HTTP handler that
// produced them. A drop is not silent: Push returns false, and the drop is
// added to Dropped and to the queue_dropped_total counter.
type Queue struct {
	mu       sync.Mutex
	items    []wallet.Recipient
	capacity int
	dropped  atomic.Int64
}

// NewQueue returns an empty queue bounded at capacity entries.
func NewQueue(capacity int) *Queue {
	return &Queue{items: make([]wallet.Recipient, 0, capacity), capacity: capacity}
}

// Push enqueues r, returning false if the queue was already at capacity and
// r was dropped instead.
func (q *Queue) Push(r wallet.Recipient) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.dropped.Add(1)
		queueMetrics.dropped.Inc()
		return false
	}
	q.items = append(q.items, r)
	queueMetrics.depth.Set(float64(len(q.items)))
	return true
}

// Drain removes and returns up to n of the oldest entries, fewer if the
// queue holds less than n.
func (q *Queue) Drain(n int) []wallet.Recipient {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n > len(q.items) {
		n = len(q.items)
	}
	out := make([]wallet.Recipient, n)
	copy(out, q.items[:n])
	remaining := len(q.items) - n
	copy(q.items, q.items[n:])
	q.items = q.items[:remaining]
	queueMetrics.depth.Set(float64(len(q.items)))
	return out
}

// Len reports the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped reports the cumulative number of requests dropped for overflow.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }
