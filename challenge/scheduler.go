package challenge

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alpenlabs/faucetd/log"
)

// entry is one pending eviction: the key to remove, the challenge value
// expected to still be stored there (for check-then-remove), and the time
// at which it becomes eligible for eviction.
type entry struct {
	expiresAt time.Time
	key       Key
	expect    *Challenge
}

type entryHeap []entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].expiresAt.Before(h[j].expiresAt) }
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)         { *h = append(*h, x.(entry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler is the single background eviction task of spec §4.C: a min-heap
// of (expires_at, key) ordered by deadline, sleeping until the earliest one
// elapses instead of polling on a fixed interval.
type Scheduler struct {
	store *Store
	log   log.Logger

	mu   sync.Mutex
	heap entryHeap

	// nextWakeup is read by the background loop and written both by it and
	// by Add; the zero Time means "no pending entries, sleep indefinitely".
	nextWakeup atomic.Pointer[time.Time]

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	evicted atomic.Int64
}

// NewScheduler creates a Scheduler over store and starts its background
// task. Call Stop to shut it down.
func NewScheduler(store *Store) *Scheduler {
	s := &Scheduler{
		store:  store,
		log:    log.New("component", "eviction"),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	var zero time.Time
	s.nextWakeup.Store(&zero)
	s.wg.Add(1)
	go s.run()
	return s
}

// farFuture stands in for "no timer needed"; it's small enough not to
// overflow time.Timer's internal runtime representation but large enough
// that no real TTL will ever reach it.
const farFuture = 100 * 365 * 24 * time.Hour

// Add schedules key for eviction at expiresAt, conditional on the stored
// challenge still being identical to expect when the deadline arrives. If
// this deadline is sooner than whatever the background task is currently
// sleeping on, it is woken immediately to reprogram (spec §4.C insertion
// path).
func (s *Scheduler) Add(expiresAt time.Time, key Key, expect *Challenge) {
	s.mu.Lock()
	heap.Push(&s.heap, entry{expiresAt: expiresAt, key: key, expect: expect})
	top := s.heap[0].expiresAt
	s.mu.Unlock()

	cur := s.nextWakeup.Load()
	if cur.IsZero() || expiresAt.Before(*cur) {
		s.nextWakeup.Store(&top)
		select {
		case s.notify <- struct{}{}:
		default:
			// a wakeup is already pending; the consumer re-reads
			// nextWakeup each cycle so coalescing is safe.
		}
	}
}

// Stop terminates the background task.
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
}

// EvictedCount reports the cumulative number of entries this scheduler has
// evicted, for metrics.
func (s *Scheduler) EvictedCount() int64 { return s.evicted.Load() }

func (s *Scheduler) run() {
	defer s.wg.Done()

	timer := time.NewTimer(farFuture)
	defer timer.Stop()

	for {
		wakeup := s.nextWakeup.Load()
		var d time.Duration
		if wakeup.IsZero() {
			d = farFuture
		} else {
			d = time.Until(*wakeup)
			if d < 0 {
				d = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(d)

		select {
		case <-timer.C:
			s.evictExpired()
		case <-s.notify:
			// an earlier deadline was scheduled; loop around and
			// re-read nextWakeup to reprogram the timer.
		case <-s.done:
			return
		}
	}
}

func (s *Scheduler) evictExpired() {
	now := time.Now()

	s.mu.Lock()
	var expired []entry
	for len(s.heap) > 0 && !s.heap[0].expiresAt.After(now) {
		expired = append(expired, heap.Pop(&s.heap).(entry))
	}
	var next time.Time
	if len(s.heap) > 0 {
		next = s.heap[0].expiresAt
	}
	s.mu.Unlock()

	s.nextWakeup.Store(&next)

	for _, e := range expired {
		if s.store.RemoveIfMatch(e.key, e.expect) {
			s.evicted.Add(1)
			s.log.Debug("evicted expired challenge", "chain", e.key.Chain)
		}
	}
}
