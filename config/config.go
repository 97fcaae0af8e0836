// Package config loads faucetd's configuration from a TOML file, overridden
// by FAUCETD_-prefixed environment variables, overridden in turn by CLI
// flags. The layering mirrors the teacher's settings.rs InternalSettings ->
// Settings defaulting pattern: every field is optional in the file and
// falls back to an opinionated default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ChainName identifies one of the two target chains.
type ChainName string

const (
	ChainL1 ChainName = "l1"
	ChainL2 ChainName = "l2"
)

// ChainConfig is the per-chain difficulty-curve and payout configuration
// described in spec §3/§6 (l1.*/l2.* blocks).
type ChainConfig struct {
	MinDifficulty           uint8  `toml:"min_difficulty"`
	MaxDifficulty           uint8  `toml:"max_difficulty"`
	MinBalance               uint64 `toml:"min_balance"`
	AmountPerClaim           uint64 `toml:"amount_per_claim"`
	DifficultyIncreaseCoeff  uint64 `toml:"difficulty_increase_coeff"`
	ChallengeDurationSeconds uint64 `toml:"challenge_duration_secs"`
}

// ChallengeDuration returns the configured TTL as a time.Duration.
func (c ChainConfig) ChallengeDuration() time.Duration {
	return time.Duration(c.ChallengeDurationSeconds) * time.Second
}

func defaultChainConfig() ChainConfig {
	return ChainConfig{
		MinDifficulty:            18,
		MaxDifficulty:            64,
		MinBalance:               0,
		AmountPerClaim:           10_000_000,
		DifficultyIncreaseCoeff:  20,
		ChallengeDurationSeconds: 120,
	}
}

// BatcherConfig paces and bounds the payout batcher (spec §4.E-G).
type BatcherConfig struct {
	PeriodSeconds uint64 `toml:"period_secs"`
	MaxPerTx      int    `toml:"max_per_tx"`
	MaxInFlight   int    `toml:"max_in_flight"`
	// MaxInFlightBroadcasts bounds the number of concurrent
	// broadcast/persist sub-tasks (spec §9 "unbounded broadcast
	// sub-tasks" open question).
	MaxInFlightBroadcasts int64 `toml:"max_inflight_broadcasts"`
}

func (b BatcherConfig) Period() time.Duration {
	return time.Duration(b.PeriodSeconds) * time.Second
}

func defaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		PeriodSeconds:         180,
		MaxPerTx:              250,
		MaxInFlight:           2500,
		MaxInFlightBroadcasts: 4,
	}
}

// Config is the fully-resolved faucetd configuration.
type Config struct {
	Host string `toml:"host"`
	Port uint16 `toml:"port"`

	// IPSrc selects how the client IPv4 address is extracted: "conn" uses
	// the TCP peer address, any other value is treated as a trusted
	// request header name (e.g. "X-Forwarded-For").
	IPSrc string `toml:"ip_src"`

	Network        string `toml:"network"`
	Esplora        string `toml:"esplora"`
	L2HTTPEndpoint string `toml:"l2_http_endpoint"`

	SeedFile   string `toml:"seed_file"`
	SQLiteFile string `toml:"sqlite_file"`

	Batcher BatcherConfig `toml:"batcher"`
	L1      ChainConfig   `toml:"l1"`
	L2      ChainConfig   `toml:"l2"`

	LogFormat string `toml:"log_format"`
	LogFile   string `toml:"log_file"`
	Verbosity string `toml:"verbosity"`
}

// Default returns the faucet's opinionated defaults, matching spec §6.
func Default() Config {
	return Config{
		Host:       "0.0.0.0",
		Port:       3000,
		IPSrc:      "conn",
		Network:    "signet",
		Esplora:    "https://explorer.bc-2.jp/api",
		SeedFile:   "faucet.seed",
		SQLiteFile: "faucet.sqlite",
		Batcher:    defaultBatcherConfig(),
		L1:         defaultChainConfig(),
		L2:         defaultChainConfig(),
		LogFormat:  "text",
		Verbosity:  "info",
	}
}

// Load reads path (if non-empty and present) over the defaults, then applies
// FAUCETD_-prefixed environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: decoding %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

const envPrefix = "FAUCETD_"

// applyEnv overrides the handful of top-level scalar fields that make sense
// as environment variables, mirroring settings.rs's
// config::Environment::with_prefix behavior for the common case.
func applyEnv(cfg *Config) {
	if v, ok := lookupEnv("HOST"); ok {
		cfg.Host = v
	}
	if v, ok := lookupEnvUint("PORT"); ok {
		cfg.Port = uint16(v)
	}
	if v, ok := lookupEnv("IP_SRC"); ok {
		cfg.IPSrc = v
	}
	if v, ok := lookupEnv("NETWORK"); ok {
		cfg.Network = v
	}
	if v, ok := lookupEnv("ESPLORA"); ok {
		cfg.Esplora = v
	}
	if v, ok := lookupEnv("L2_HTTP_ENDPOINT"); ok {
		cfg.L2HTTPEndpoint = v
	}
	if v, ok := lookupEnv("SEED_FILE"); ok {
		cfg.SeedFile = v
	}
	if v, ok := lookupEnv("SQLITE_FILE"); ok {
		cfg.SQLiteFile = v
	}
	if v, ok := lookupEnv("VERBOSITY"); ok {
		cfg.Verbosity = v
	}
}

func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(envPrefix + strings.ToUpper(name))
}

func lookupEnvUint(name string) (uint64, bool) {
	s, ok := lookupEnv(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ForChain returns the ChainConfig for the named chain.
func (c Config) ForChain(chain ChainName) ChainConfig {
	if chain == ChainL1 {
		return c.L1
	}
	return c.L2
}
