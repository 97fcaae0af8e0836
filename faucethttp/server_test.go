package faucethttp

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alpenlabs/faucetd/challenge"
	"github.com/alpenlabs/faucetd/config"
	"github.com/alpenlabs/faucetd/payout"
	"github.com/alpenlabs/faucetd/wallet"
	"github.com/stretchr/testify/require"
)

type fakeBalance struct{ bal uint64 }

func (f fakeBalance) Balance(config.ChainName) (uint64, error) { return f.bal, nil }

type fakeL2 struct {
	lastTo []byte
	txid   [32]byte
}

func (f *fakeL2) Send(ctx context.Context, to []byte, amount uint64) ([32]byte, error) {
	f.lastTo = to
	f.txid[0] = 0x42
	return f.txid, nil
}

func testServer(t *testing.T) (*Server, *payout.Queue, *fakeL2) {
	t.Helper()
	cfg := config.Default()
	cfg.L1.AmountPerClaim = 1000
	cfg.L2.AmountPerClaim = 2000
	cfg.L1.MinDifficulty, cfg.L1.MaxDifficulty = 0, 0
	cfg.L2.MinDifficulty, cfg.L2.MaxDifficulty = 0, 0

	bal := fakeBalance{bal: 1}
	engine, err := challenge.NewEngine(cfg, bal)
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	queue := payout.NewQueue(2)
	l2 := &fakeL2{}

	s := NewServer(cfg, engine, queue, l2, bal, bal)
	return s, queue, l2
}

// solveZero works because the test configs above pin both chains'
// difficulty to zero: any candidate, including the all-zero solution,
// satisfies a zero leading-zero-bit requirement.
func solveZero() [8]byte {
	var sol [8]byte
	binary.BigEndian.PutUint64(sol[:], 0)
	return sol
}

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func mustParseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic("bad test ip: " + s)
	}
	return ip
}

func TestPowChallengeThenClaimL1RoundTrip(t *testing.T) {
	s, queue, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/pow_challenge/l1", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// Re-issue (idempotent) to retrieve the nonce the handler produced.
	issued, err := s.engine.Issue(config.ChainL1, mustParseIP("192.0.2.1"))
	require.NoError(t, err)
	_ = issued
	sol := solveZero()

	claimReq := httptest.NewRequest(http.MethodGet, "/claim_l1/"+hexEncode(sol[:])+"/"+hexEncode([]byte{1, 2, 3}), nil)
	claimReq.RemoteAddr = "192.0.2.1:5555"
	claimRec := httptest.NewRecorder()
	s.Handler().ServeHTTP(claimRec, claimReq)
	require.Equal(t, http.StatusOK, claimRec.Code)
	require.Equal(t, 1, queue.Len())
}

func TestPowChallengeRejectsBadChainPath(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/pow_challenge/l9", nil)
	req.RemoteAddr = "192.0.2.2:1"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPowChallengeRejectsIPv6(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/pow_challenge/l1", nil)
	req.RemoteAddr = "[::1]:5555"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBalanceRoute(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/balance/l1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Body.String())
}

func TestSatsToClaimRoute(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/sats_to_claim/l2", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2000", rec.Body.String())
}

func TestClaimL2SendsAndReturnsTxid(t *testing.T) {
	s, _, l2 := testServer(t)

	issued, err := s.engine.Issue(config.ChainL2, mustParseIP("198.51.100.9"))
	require.NoError(t, err)
	_ = issued
	sol := solveZero()

	addr := make([]byte, 20)
	req := httptest.NewRequest(http.MethodGet, "/claim_l2/"+hexEncode(sol[:])+"/"+hexEncode(addr), nil)
	req.RemoteAddr = "198.51.100.9:1"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "txid_hex")
	require.Equal(t, addr, l2.lastTo)
}

func TestMetricsRouteExposesRegisteredCounters(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "faucetd_payout_queue_depth")
}

func TestClaimL1ReturnsServiceUnavailableWhenQueueFull(t *testing.T) {
	s, queue, _ := testServer(t)
	// Fill the 2-capacity queue directly so the next claim overflows it.
	require.True(t, queue.Push(wallet.Recipient{Amount: 1}))
	require.True(t, queue.Push(wallet.Recipient{Amount: 2}))

	issued, err := s.engine.Issue(config.ChainL1, mustParseIP("203.0.113.9"))
	require.NoError(t, err)
	_ = issued
	sol := solveZero()

	req := httptest.NewRequest(http.MethodGet, "/claim_l1/"+hexEncode(sol[:])+"/"+hexEncode([]byte{9}), nil)
	req.RemoteAddr = "203.0.113.9:1"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
