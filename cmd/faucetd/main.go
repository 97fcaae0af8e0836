// Command faucetd runs the two-chain testnet faucet: HTTP surface,
// proof-of-work challenge engine, and L1 payout batcher, wired together the
// way cmd/geth wires node, backend, and miner from parsed CLI flags.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpenlabs/faucetd/challenge"
	"github.com/alpenlabs/faucetd/config"
	"github.com/alpenlabs/faucetd/faucethttp"
	"github.com/alpenlabs/faucetd/internal/seed"
	"github.com/alpenlabs/faucetd/log"
	"github.com/alpenlabs/faucetd/payout"
	"github.com/alpenlabs/faucetd/wallet/l1"
	"github.com/alpenlabs/faucetd/wallet/l2"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	app := &cli.App{
		Name:  "faucetd",
		Usage: "two-chain testnet faucet",
		Flags: appFlags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if _, err := maxprocs.Set(maxprocs.Logger(func(string, ...any) {})); err != nil {
		fmt.Fprintf(os.Stderr, "faucetd: adjusting GOMAXPROCS: %v\n", err)
	}

	cfg, err := config.Load(ctx.String(configFileFlag.Name))
	if err != nil {
		return err
	}
	applyFlagOverrides(ctx, &cfg)
	initLogging(cfg)

	app, err := buildApp(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx.Context)
}

func applyFlagOverrides(ctx *cli.Context, cfg *config.Config) {
	if ctx.IsSet(hostFlag.Name) {
		cfg.Host = ctx.String(hostFlag.Name)
	}
	if ctx.IsSet(portFlag.Name) {
		cfg.Port = uint16(ctx.Uint(portFlag.Name))
	}
	if ctx.IsSet(ipSrcFlag.Name) {
		cfg.IPSrc = ctx.String(ipSrcFlag.Name)
	}
	if ctx.IsSet(networkFlag.Name) {
		cfg.Network = ctx.String(networkFlag.Name)
	}
	if ctx.IsSet(esploraFlag.Name) {
		cfg.Esplora = ctx.String(esploraFlag.Name)
	}
	if ctx.IsSet(l2EndpointFlag.Name) {
		cfg.L2HTTPEndpoint = ctx.String(l2EndpointFlag.Name)
	}
	if ctx.IsSet(seedFileFlag.Name) {
		cfg.SeedFile = ctx.String(seedFileFlag.Name)
	}
	if ctx.IsSet(sqliteFileFlag.Name) {
		cfg.SQLiteFile = ctx.String(sqliteFileFlag.Name)
	}
	if ctx.IsSet(batcherPeriodFlag.Name) {
		cfg.Batcher.PeriodSeconds = ctx.Uint64(batcherPeriodFlag.Name)
	}
	if ctx.IsSet(batcherMaxPerTxFlag.Name) {
		cfg.Batcher.MaxPerTx = ctx.Int(batcherMaxPerTxFlag.Name)
	}
	if ctx.IsSet(batcherMaxInFlightFlag.Name) {
		cfg.Batcher.MaxInFlight = ctx.Int(batcherMaxInFlightFlag.Name)
	}
	if ctx.IsSet(logFormatFlag.Name) {
		cfg.LogFormat = ctx.String(logFormatFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.LogFile = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Verbosity = ctx.String(verbosityFlag.Name)
	}
}

func initLogging(cfg config.Config) {
	level := parseLevel(cfg.Verbosity)
	var handler slog.Handler
	if cfg.LogFile != "" {
		handler = log.NewRotatingHandler(cfg.LogFormat, cfg.LogFile, level)
	} else {
		handler = log.NewHandler(cfg.LogFormat, level, os.Stderr)
	}
	log.SetRoot(log.NewWithHandler(handler))
}

func parseLevel(verbosity string) slog.Level {
	switch verbosity {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "crit":
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// app bundles every long-lived component started by faucetd, giving main a
// single Run/Close pair instead of scattering goroutine lifecycles across
// the command.
type app struct {
	cfg config.Config

	engine   *challenge.Engine
	server   *faucethttp.Server
	batcher  *payout.Batcher
	feeRates *l1.FeeRatePoller
	l1Wallet *l1.Wallet
	l2Wallet *l2.Wallet

	httpSrv *http.Server
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	masterSeed, err := seed.LoadOrCreate(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	l1Seed := seed.Derive(masterSeed, "alpen labs faucet l1 wallet 2024")
	l2Seed := seed.Derive(masterSeed, "alpen labs faucet l2 wallet 2024")

	l1Wallet, err := l1.LoadOrCreate(cfg.SQLiteFile, l1Seed)
	if err != nil {
		return nil, fmt.Errorf("faucetd: initializing l1 wallet: %w", err)
	}

	l2Wallet, err := l2.Dial(ctx, cfg.L2HTTPEndpoint, l2Seed)
	if err != nil {
		l1Wallet.Close()
		return nil, fmt.Errorf("faucetd: initializing l2 wallet: %w", err)
	}

	feeRates := l1.NewFeeRatePoller(cfg.Esplora, 20*time.Second)
	feeRates.Start()

	balances := challengeBalances{l1: l1Wallet, l2: l2Wallet}
	engine, err := challenge.NewEngine(cfg, balances)
	if err != nil {
		feeRates.Stop()
		l2Wallet.Close()
		l1Wallet.Close()
		return nil, fmt.Errorf("faucetd: initializing challenge engine: %w", err)
	}

	queue := payout.NewQueue(cfg.Batcher.MaxInFlight)
	builder := payout.NewBuilder(l1Wallet, feeRates)
	broadcaster := l1.NewEsploraBroadcaster(cfg.Esplora)
	batcher := payout.NewBatcher(cfg.Batcher, queue, builder, broadcaster)

	server := faucethttp.NewServer(cfg, engine, queue, l2Wallet, l1Wallet, l2Wallet)

	return &app{
		cfg:      cfg,
		engine:   engine,
		server:   server,
		batcher:  batcher,
		feeRates: feeRates,
		l1Wallet: l1Wallet,
		l2Wallet: l2Wallet,
	}, nil
}

func (a *app) Run(ctx context.Context) error {
	a.batcher.Start()

	a.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port),
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("faucetd listening", "addr", a.httpSrv.Addr)
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.httpSrv.Shutdown(shutdownCtx)
}

func (a *app) Close() {
	a.batcher.Stop()
	a.feeRates.Stop()
	a.engine.Close()
	a.l2Wallet.Close()
	a.l1Wallet.Close()
}

// challengeBalances dispatches challenge.Engine's balance reads to whichever
// chain wallet owns the answer.
type challengeBalances struct {
	l1 *l1.Wallet
	l2 *l2.Wallet
}

func (b challengeBalances) Balance(chain config.ChainName) (uint64, error) {
	if chain == config.ChainL1 {
		return b.l1.Balance(chain)
	}
	return b.l2.Balance(chain)
}
