// Package flags holds the urfave/cli flag categories shared across
// cmd/faucetd, mirroring the teacher's internal/flags.RollupCategory
// grouping convention used by cmd/utils/flags_rollup.go.
package flags

const (
	HTTPCategory    = "HTTP"
	ChallengeCategory = "PROOF-OF-WORK"
	BatcherCategory = "PAYOUT BATCHER"
	ChainCategory   = "CHAIN"
	LoggingCategory = "LOGGING"
)
