// Package challenge implements the proof-of-work challenge lifecycle of
// spec §4.A-D: dynamic difficulty, a concurrent per-(ip,chain) challenge
// store with atomic claim semantics, and TTL-driven eviction.
package challenge

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"net"
	"time"

	"github.com/alpenlabs/faucetd/config"
	"github.com/alpenlabs/faucetd/log"
)

// BalanceReader is the external collaborator the engine reads the current
// faucet balance from (spec §4.H). It is read-only and may be stale.
type BalanceReader interface {
	Balance(chain config.ChainName) (uint64, error)
}

// Engine is the public API of spec §4.D: issue and verify, composing the
// DifficultyCurve, ChallengeStore and EvictionScheduler.
type Engine struct {
	store     *Store
	scheduler *Scheduler
	balance   BalanceReader
	curves    map[config.ChainName]*DifficultyCurve
	durations map[config.ChainName]time.Duration
	log       log.Logger
}

// NewEngine builds an Engine serving both chains, L1 and L2. cfg supplies the
// per-chain difficulty-curve constants and challenge TTL; balance supplies
// the live balance reads the curve is evaluated against.
func NewEngine(cfg config.Config, balance BalanceReader) (*Engine, error) {
	e := &Engine{
		store:     NewStore(),
		balance:   balance,
		curves:    make(map[config.ChainName]*DifficultyCurve),
		durations: make(map[config.ChainName]time.Duration),
		log:       log.New("component", "challenge"),
	}
	e.scheduler = NewScheduler(e.store)

	for _, chain := range []config.ChainName{config.ChainL1, config.ChainL2} {
		cc := cfg.ForChain(chain)
		curve, err := NewDifficultyCurve(cc)
		if err != nil {
			e.scheduler.Stop()
			return nil, fmt.Errorf("challenge: %s: %w", chain, err)
		}
		e.curves[chain] = curve
		e.durations[chain] = cc.ChallengeDuration()
	}
	return e, nil
}

// Close stops the engine's background eviction task.
func (e *Engine) Close() {
	e.scheduler.Stop()
}

// Issue returns the active challenge for (chain, ip), creating one if none
// exists (spec §4.D "issue"). Re-requesting while a challenge is still
// live is idempotent: the same nonce and expiry are returned, which
// prevents a client from cycling challenges to dodge a higher difficulty.
func (e *Engine) Issue(chain config.ChainName, ip net.IP) (*Challenge, error) {
	curve, ok := e.curves[chain]
	if !ok {
		return nil, ErrBadChain
	}
	key, err := KeyFor(ip, chain)
	if err != nil {
		return nil, err
	}

	balance, err := e.balance.Balance(chain)
	if err != nil {
		return nil, fmt.Errorf("challenge: reading balance: %w", err)
	}

	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("challenge: generating nonce: %w", err)
	}

	candidate := &Challenge{
		Nonce:      nonce,
		Difficulty: curve.Diff(balance),
		ExpiresAt:  time.Now().Add(e.durations[chain]),
	}

	actual, swapped := e.store.CAS(key, nil, candidate)
	if swapped {
		e.scheduler.Add(candidate.ExpiresAt, key, candidate)
		challengeMetrics.issued.WithLabelValues(string(chain), "fresh").Inc()
		return candidate, nil
	}
	// actual can't be nil here: a CAS with expected=nil only fails when
	// the key is already occupied.
	challengeMetrics.issued.WithLabelValues(string(chain), "reissued").Inc()
	return actual, nil
}

// Verify checks solution against the active challenge for (chain, ip),
// per spec §4.D "verify". The claimed transition happens before the hash
// is even computed, so a failed proof of work still burns the challenge;
// this rate-limits brute force and closes the race where two requests
// might otherwise both observe an unclaimed challenge.
func (e *Engine) Verify(chain config.ChainName, ip net.IP, solution [8]byte) error {
	if _, ok := e.curves[chain]; !ok {
		return ErrBadChain
	}
	key, err := KeyFor(ip, chain)
	if err != nil {
		return err
	}

	stored, ok := e.store.Get(key)
	if !ok {
		challengeMetrics.verified.WithLabelValues(string(chain), "not_found").Inc()
		return ErrNonceNotFound
	}
	if stored.Claimed {
		challengeMetrics.verified.WithLabelValues(string(chain), "already_claimed").Inc()
		return ErrAlreadyClaimed
	}

	claimed := *stored
	claimed.Claimed = true
	if _, swapped := e.store.CAS(key, stored, &claimed); !swapped {
		challengeMetrics.verified.WithLabelValues(string(chain), "already_claimed").Inc()
		return ErrAlreadyClaimed
	}

	h := sha256.New()
	h.Write(domainTag)
	h.Write(stored.Nonce[:])
	h.Write(solution[:])
	digest := h.Sum(nil)

	if countLeadingZeroBits(digest) < stored.Difficulty {
		challengeMetrics.verified.WithLabelValues(string(chain), "bad_pow").Inc()
		return ErrBadProofOfWork
	}
	challengeMetrics.verified.WithLabelValues(string(chain), "ok").Inc()
	return nil
}
