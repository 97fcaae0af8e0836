package challenge

import (
	"crypto/sha256"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alpenlabs/faucetd/config"
	"github.com/stretchr/testify/require"
)

type fakeBalance struct{ bal uint64 }

func (f fakeBalance) Balance(config.ChainName) (uint64, error) { return f.bal, nil }

func testConfig() config.Config {
	cfg := config.Default()
	cfg.L1 = config.ChainConfig{
		MinDifficulty: 20, MaxDifficulty: 255,
		MinBalance: 0, AmountPerClaim: 10_000_000, DifficultyIncreaseCoeff: 10,
		ChallengeDurationSeconds: 60,
	}
	cfg.L2 = cfg.L1
	return cfg
}

func solve(nonce [16]byte, difficulty uint8) [8]byte {
	var sol [8]byte
	for i := uint64(0); ; i++ {
		binary.BigEndian.PutUint64(sol[:], i)
		h := sha256.New()
		h.Write(domainTag)
		h.Write(nonce[:])
		h.Write(sol[:])
		if countLeadingZeroBits(h.Sum(nil)) >= difficulty {
			return sol
		}
	}
}

func TestIssueIsIdempotent(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()

	ip := net.IPv4(192, 0, 2, 1)
	c1, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)
	c2, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)

	require.Equal(t, c1.Nonce, c2.Nonce)
	require.Equal(t, c1.ExpiresAt, c2.ExpiresAt)
	require.Equal(t, uint8(20), c1.Difficulty)
}

func TestHappyPathVerify(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()

	ip := net.IPv4(192, 0, 2, 1)
	c, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)

	sol := solve(c.Nonce, c.Difficulty)
	require.NoError(t, e.Verify(config.ChainL1, ip, sol))
}

func TestReplayAfterFailedPoWStillBurnsChallenge(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()

	ip := net.IPv4(192, 0, 2, 1)
	c, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)

	good := solve(c.Nonce, c.Difficulty)
	bad := good
	bad[7] ^= 0xFF // corrupt

	require.ErrorIs(t, e.Verify(config.ChainL1, ip, bad), ErrBadProofOfWork)
	require.ErrorIs(t, e.Verify(config.ChainL1, ip, good), ErrAlreadyClaimed)
}

func TestConcurrentClaimRaceExactlyOneWinner(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()

	ip := net.IPv4(192, 0, 2, 1)
	c, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)
	sol := solve(c.Nonce, c.Difficulty)

	const n = 20
	results := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Verify(config.ChainL1, ip, sol)
		}(i)
	}
	wg.Wait()

	oks := 0
	for _, err := range results {
		if err == nil {
			oks++
		} else {
			require.ErrorIs(t, err, ErrAlreadyClaimed)
		}
	}
	require.Equal(t, 1, oks)
}

func TestVerifyNonceNotFound(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()

	var sol [8]byte
	err = e.Verify(config.ChainL1, net.IPv4(203, 0, 113, 5), sol)
	require.ErrorIs(t, err, ErrNonceNotFound)
}

func TestEvictionReclaim(t *testing.T) {
	cfg := testConfig()
	cfg.L1.ChallengeDurationSeconds = 0 // configured in millis below instead
	e, err := NewEngine(cfg, fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()
	e.durations[config.ChainL1] = 200 * time.Millisecond

	ip := net.IPv4(198, 51, 100, 7)
	c1, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)

	time.Sleep(250 * time.Millisecond)

	c2, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)
	require.NotEqual(t, c1.Nonce, c2.Nonce)
}

func TestVerifyAfterEvictionReportsNonceNotFound(t *testing.T) {
	cfg := testConfig()
	e, err := NewEngine(cfg, fakeBalance{bal: 10_000_000_000})
	require.NoError(t, err)
	defer e.Close()
	e.durations[config.ChainL1] = 50 * time.Millisecond

	ip := net.IPv4(198, 51, 100, 8)
	c, err := e.Issue(config.ChainL1, ip)
	require.NoError(t, err)
	sol := solve(c.Nonce, c.Difficulty)

	require.Eventually(t, func() bool {
		_, ok := e.store.Get(mustKey(ip, config.ChainL1))
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	require.ErrorIs(t, e.Verify(config.ChainL1, ip, sol), ErrNonceNotFound)
}

func mustKey(ip net.IP, chain config.ChainName) Key {
	k, err := KeyFor(ip, chain)
	if err != nil {
		panic(err)
	}
	return k
}

func TestIssueRejectsIPv6(t *testing.T) {
	e, err := NewEngine(testConfig(), fakeBalance{bal: 0})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Issue(config.ChainL1, net.ParseIP("::1"))
	require.ErrorIs(t, err, ErrIPv6Unsupported)
}
