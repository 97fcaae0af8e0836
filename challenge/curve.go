package challenge

import (
	"errors"
	"fmt"
	"math"

	"github.com/alpenlabs/faucetd/config"
)

// DifficultyConfigErrorKind tags the specific constraint a DifficultyCurve
// configuration violated, mirroring spec's tagged DifficultyConfig{...}
// error kind instead of a bare string.
type DifficultyConfigErrorKind int

const (
	KindMaxBelowMin DifficultyConfigErrorKind = iota
	KindNonPositiveAmount
	KindNonPositiveCoeff
	KindNonFiniteSlope
	KindDegenerateDenominator
)

func (k DifficultyConfigErrorKind) String() string {
	switch k {
	case KindMaxBelowMin:
		return "max_difficulty below min_difficulty"
	case KindNonPositiveAmount:
		return "amount_per_claim must be positive"
	case KindNonPositiveCoeff:
		return "difficulty_increase_coeff must be positive"
	case KindNonFiniteSlope:
		return "computed slope/intercept is not finite"
	case KindDegenerateDenominator:
		return "slope denominator too close to zero"
	default:
		return "unknown difficulty config error"
	}
}

// DifficultyConfigError is returned by NewDifficultyCurve when the supplied
// constants violate one of the construction-time invariants in spec §4.A.
type DifficultyConfigError struct {
	Kind DifficultyConfigErrorKind
}

func (e *DifficultyConfigError) Error() string {
	return fmt.Sprintf("difficulty config: %s", e.Kind)
}

// DifficultyCurve is the pure mapping from faucet balance to required
// leading-zero-bit count described in spec §4.A.
type DifficultyCurve struct {
	max, min uint8
	minBal   uint64
	knee     float64
	slopeA   float64
	interceptB float64
}

// NewDifficultyCurve builds a DifficultyCurve from the per-chain config
// constants: max/min difficulty, min balance (b), amount per claim (q) and
// the slope coefficient (L).
func NewDifficultyCurve(cc config.ChainConfig) (*DifficultyCurve, error) {
	max, min := cc.MaxDifficulty, cc.MinDifficulty
	if max < min {
		return nil, &DifficultyConfigError{Kind: KindMaxBelowMin}
	}
	if cc.AmountPerClaim == 0 {
		return nil, &DifficultyConfigError{Kind: KindNonPositiveAmount}
	}
	if cc.DifficultyIncreaseCoeff == 0 {
		return nil, &DifficultyConfigError{Kind: KindNonPositiveCoeff}
	}

	b := float64(cc.MinBalance)
	q := float64(cc.AmountPerClaim)
	l := float64(cc.DifficultyIncreaseCoeff)

	denom := l * q
	if math.Abs(denom) < 1e-9 {
		return nil, &DifficultyConfigError{Kind: KindDegenerateDenominator}
	}

	knee := b + denom
	slopeA := (float64(min) - float64(max)) / denom
	interceptB := float64(max) - slopeA*b

	if !finite(knee) || !finite(slopeA) || !finite(interceptB) {
		return nil, &DifficultyConfigError{Kind: KindNonFiniteSlope}
	}

	return &DifficultyCurve{
		max: max, min: min, minBal: cc.MinBalance,
		knee: knee, slopeA: slopeA, interceptB: interceptB,
	}, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Diff computes the required leading-zero-bit count for the given balance,
// per spec §4.A: flat at max below the min balance, flat at min at/above
// the knee, and linearly interpolated in between.
func (d *DifficultyCurve) Diff(balance uint64) uint8 {
	bf := float64(balance)
	if bf >= d.knee {
		return d.min
	}
	if bf <= float64(d.minBal) {
		return d.max
	}
	v := math.Round(d.slopeA*bf + d.interceptB)
	return clamp(v, d.min, d.max)
}

func clamp(v float64, min, max uint8) uint8 {
	if v < float64(min) {
		return min
	}
	if v > float64(max) {
		return max
	}
	return uint8(v)
}

// errDegenerate is the sentinel every DifficultyConfigError unwraps to. It
// is unexported, so it can only be matched from inside this package.
var errDegenerate = errors.New("difficulty config invalid")

func (e *DifficultyConfigError) Unwrap() error { return errDegenerate }
