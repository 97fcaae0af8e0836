package main

import (
	"github.com/alpenlabs/faucetd/internal/flags"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "Path to a TOML configuration file",
		Category: flags.HTTPCategory,
	}
	hostFlag = &cli.StringFlag{
		Name:     "host",
		Usage:    "HTTP bind host",
		Category: flags.HTTPCategory,
	}
	portFlag = &cli.UintFlag{
		Name:     "port",
		Usage:    "HTTP bind port",
		Category: flags.HTTPCategory,
	}
	ipSrcFlag = &cli.StringFlag{
		Name:     "ip-src",
		Usage:    "Client IP extraction source: \"conn\" or a trusted header name",
		Category: flags.HTTPCategory,
	}

	networkFlag = &cli.StringFlag{
		Name:     "network",
		Usage:    "UTXO chain network tag",
		Category: flags.ChainCategory,
	}
	esploraFlag = &cli.StringFlag{
		Name:     "esplora",
		Usage:    "Esplora-compatible HTTP endpoint for the UTXO chain",
		Category: flags.ChainCategory,
	}
	l2EndpointFlag = &cli.StringFlag{
		Name:     "l2-http-endpoint",
		Usage:    "JSON-RPC endpoint for the account chain",
		Category: flags.ChainCategory,
	}
	seedFileFlag = &cli.StringFlag{
		Name:     "seed-file",
		Usage:    "Path to the faucet's master seed file",
		Category: flags.ChainCategory,
	}
	sqliteFileFlag = &cli.StringFlag{
		Name:     "sqlite-file",
		Usage:    "Path to the UTXO wallet's persisted state",
		Category: flags.ChainCategory,
	}

	batcherPeriodFlag = &cli.Uint64Flag{
		Name:     "batcher.period-secs",
		Usage:    "Payout batch period in seconds",
		Category: flags.BatcherCategory,
	}
	batcherMaxPerTxFlag = &cli.IntFlag{
		Name:     "batcher.max-per-tx",
		Usage:    "Maximum payout outputs per batch transaction",
		Category: flags.BatcherCategory,
	}
	batcherMaxInFlightFlag = &cli.IntFlag{
		Name:     "batcher.max-in-flight",
		Usage:    "Maximum payout requests held in the queue at once",
		Category: flags.BatcherCategory,
	}

	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log output format: \"text\" or \"json\"",
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Rotate logs to this file instead of stderr",
		Category: flags.LoggingCategory,
	}
	verbosityFlag = &cli.StringFlag{
		Name:     "verbosity",
		Usage:    "Log verbosity: trace, debug, info, warn, error, crit",
		Category: flags.LoggingCategory,
	}
)

var appFlags = []cli.Flag{
	configFileFlag,
	hostFlag, portFlag, ipSrcFlag,
	networkFlag, esploraFlag, l2EndpointFlag, seedFileFlag, sqliteFileFlag,
	batcherPeriodFlag, batcherMaxPerTxFlag, batcherMaxInFlightFlag,
	logFormatFlag, logFileFlag, verbosityFlag,
}
