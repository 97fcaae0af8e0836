package challenge

import (
	"testing"

	"github.com/alpenlabs/faucetd/config"
	"github.com/stretchr/testify/require"
)

func extremesConfig() config.ChainConfig {
	return config.ChainConfig{
		MaxDifficulty:           255,
		MinDifficulty:           20,
		MinBalance:              0,
		AmountPerClaim:          10_000_000,
		DifficultyIncreaseCoeff: 10,
	}
}

func TestDiffExtremes(t *testing.T) {
	curve, err := NewDifficultyCurve(extremesConfig())
	require.NoError(t, err)

	require.Equal(t, uint8(255), curve.Diff(0))
	require.Equal(t, uint8(20), curve.Diff(10_000_000_000))
}

func TestDiffMonotonicBetweenExtremes(t *testing.T) {
	cc := config.ChainConfig{
		MaxDifficulty:           255,
		MinDifficulty:           20,
		MinBalance:              0,
		AmountPerClaim:          10_000,
		DifficultyIncreaseCoeff: 10,
	}
	curve, err := NewDifficultyCurve(cc)
	require.NoError(t, err)

	d0 := curve.Diff(0)
	d25 := curve.Diff(25_000)
	d50 := curve.Diff(50_000)
	d75 := curve.Diff(75_000)
	d100 := curve.Diff(100_000)

	require.Equal(t, uint8(255), d0)
	require.Equal(t, uint8(20), d100)
	require.Greater(t, int(d50), 20)
	require.Less(t, int(d50), 255)
	require.LessOrEqual(t, d25, d0)
	require.GreaterOrEqual(t, d25, d50)
	require.GreaterOrEqual(t, d75, d100)
	require.LessOrEqual(t, d75, d50)
}

func TestDiffInRangeForAllBalances(t *testing.T) {
	curve, err := NewDifficultyCurve(extremesConfig())
	require.NoError(t, err)

	for _, bal := range []uint64{0, 1, 1000, 5_000_000, 99_999_999, 10_000_000_000, ^uint64(0)} {
		d := curve.Diff(bal)
		require.GreaterOrEqual(t, d, uint8(20))
		require.LessOrEqual(t, d, uint8(255))
	}
}

func TestHappyPathDifficultyScenario(t *testing.T) {
	cc := config.ChainConfig{
		MaxDifficulty:           255,
		MinDifficulty:           20,
		MinBalance:              0,
		AmountPerClaim:          10_000_000,
		DifficultyIncreaseCoeff: 10,
	}
	curve, err := NewDifficultyCurve(cc)
	require.NoError(t, err)
	require.Equal(t, uint8(20), curve.Diff(10_000_000_000))
}

func TestNewDifficultyCurveRejectsInvalidConfig(t *testing.T) {
	cases := map[string]config.ChainConfig{
		"max below min": {MaxDifficulty: 10, MinDifficulty: 20, AmountPerClaim: 1, DifficultyIncreaseCoeff: 1},
		"zero amount":   {MaxDifficulty: 255, MinDifficulty: 20, AmountPerClaim: 0, DifficultyIncreaseCoeff: 1},
		"zero coeff":    {MaxDifficulty: 255, MinDifficulty: 20, AmountPerClaim: 1, DifficultyIncreaseCoeff: 0},
	}
	for name, cc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDifficultyCurve(cc)
			require.Error(t, err)
			var cfgErr *DifficultyConfigError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}
