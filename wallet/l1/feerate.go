package l1

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/alpenlabs/faucetd/log"
)

// defaultFeeRate is the starting sat/vByte quote before the first
// successful poll, matching the original's FEE_RATE initial value of 250
// sat/kwu (≈ 1 sat/vByte at 4 weight units per vByte).
const defaultFeeRate = 1

// FeeRatePoller periodically refreshes a fee-rate quote from an
// Esplora-compatible /fee-estimates endpoint, satisfying
// wallet.FeeRateSource. Grounded on l1.rs's tokio::spawn loop that polls
// ESPLORA_CLIENT.get_fee_estimates every 20 seconds.
type FeeRatePoller struct {
	rate atomic.Uint64

	baseURL string
	client  *http.Client
	period  time.Duration
	log     log.Logger

	stop chan struct{}
	done chan struct{}
}

// NewFeeRatePoller constructs a poller targeting baseURL, not yet started.
func NewFeeRatePoller(baseURL string, period time.Duration) *FeeRatePoller {
	p := &FeeRatePoller{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		period:  period,
		log:     log.New("component", "wallet.l1.feerate"),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	p.rate.Store(defaultFeeRate)
	return p
}

// FeeRate returns the most recently polled fee rate in satoshis per vByte.
func (p *FeeRatePoller) FeeRate() uint64 { return p.rate.Load() }

// Start launches the background polling loop.
func (p *FeeRatePoller) Start() {
	go p.run()
}

// Stop halts the polling loop and waits for it to exit.
func (p *FeeRatePoller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *FeeRatePoller) run() {
	defer close(p.done)
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()

	p.poll()
	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stop:
			return
		}
	}
}

func (p *FeeRatePoller) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/fee-estimates", nil)
	if err != nil {
		p.log.Warn("building fee estimate request", "err", err)
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Error("fetching fee estimates", "err", err)
		return
	}
	defer resp.Body.Close()

	var estimates map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&estimates); err != nil {
		p.log.Error("decoding fee estimates", "err", err)
		return
	}

	next, ok := estimates["1"]
	if !ok || next <= 0 {
		p.log.Error("no usable 1-block fee estimate in response")
		return
	}

	prev := p.rate.Swap(uint64(next))
	p.log.Info("updated fee rate", "from", prev, "to", uint64(next))
}
