// Package faucethttp is the HTTP boundary of spec §6: the five faucet GET
// routes plus /metrics, IP extraction, and error-to-status mapping. Routing
// follows the gorilla/mux style already present in the pack (the
// go-ethereum lineage this teacher descends from carries it as an indirect
// dependency); CORS is handled by rs/cors, also part of the teacher's own
// dependency graph.
package faucethttp

import (
	"context"
	"net/http"

	"github.com/alpenlabs/faucetd/challenge"
	"github.com/alpenlabs/faucetd/config"
	"github.com/alpenlabs/faucetd/internal/hexutil"
	"github.com/alpenlabs/faucetd/log"
	"github.com/alpenlabs/faucetd/payout"
	"github.com/alpenlabs/faucetd/wallet"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// BalanceReader reads the live faucet balance for a chain, shared by the
// /balance route and the challenge engine's difficulty curve.
type BalanceReader interface {
	Balance(chain config.ChainName) (uint64, error)
}

// L2Sender is the direct-send path for /claim_l2.
type L2Sender interface {
	Send(ctx context.Context, to []byte, amount uint64) (txid [32]byte, err error)
}

// Server wires the challenge engine, L1 payout queue, L2 sender, and
// balance readers behind the HTTP surface of spec §6.
type Server struct {
	engine  *challenge.Engine
	queue   *payout.Queue
	l2      L2Sender
	l1Bal   BalanceReader
	l2Bal   BalanceReader
	cfg     config.Config
	ipExtr  ipExtractor
	log     log.Logger
	handler http.Handler
}

// NewServer builds a Server ready to ListenAndServe via its Handler.
func NewServer(cfg config.Config, engine *challenge.Engine, queue *payout.Queue, l2 L2Sender, l1Bal, l2Bal BalanceReader) *Server {
	s := &Server{
		engine: engine,
		queue:  queue,
		l2:     l2,
		l1Bal:  l1Bal,
		l2Bal:  l2Bal,
		cfg:    cfg,
		ipExtr: ipExtractorFor(cfg.IPSrc),
		log:    log.New("component", "faucethttp"),
	}

	r := mux.NewRouter()
	r.HandleFunc("/pow_challenge/{chain}", s.handlePowChallenge).Methods(http.MethodGet)
	r.HandleFunc("/claim_l1/{solution}/{address}", s.handleClaimL1).Methods(http.MethodGet)
	r.HandleFunc("/claim_l2/{solution}/{address}", s.handleClaimL2).Methods(http.MethodGet)
	r.HandleFunc("/balance/{chain}", s.handleBalance).Methods(http.MethodGet)
	r.HandleFunc("/sats_to_claim/{chain}", s.handleSatsToClaim).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.handler = cors.Default().Handler(r)
	return s
}

// Handler returns the fully wired CORS + routed HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func chainFromVar(vars map[string]string) (config.ChainName, bool) {
	switch vars["chain"] {
	case "l1":
		return config.ChainL1, true
	case "l2":
		return config.ChainL2, true
	default:
		return "", false
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func (s *Server) handlePowChallenge(w http.ResponseWriter, r *http.Request) {
	chain, ok := chainFromVar(mux.Vars(r))
	if !ok {
		writeError(w, challenge.ErrBadChain)
		return
	}
	ip, err := s.ipExtr(r)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := s.engine.Issue(chain, ip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"nonce":      hexutil.Encode(c.Nonce[:]),
		"difficulty": c.Difficulty,
	})
}

func (s *Server) handleClaimL1(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ip, err := s.ipExtr(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sol, err := hexutil.Decode8(vars["solution"])
	if err != nil {
		writeError(w, errBadSolution)
		return
	}
	if err := s.engine.Verify(config.ChainL1, ip, sol); err != nil {
		writeError(w, err)
		return
	}

	script, err := decodeL1Address(vars["address"])
	if err != nil {
		writeError(w, errBadAddress)
		return
	}

	amount := s.cfg.L1.AmountPerClaim
	if !s.queue.Push(wallet.Recipient{Script: script, Amount: amount}) {
		writeError(w, ErrBatcherUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleClaimL2(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ip, err := s.ipExtr(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sol, err := hexutil.Decode8(vars["solution"])
	if err != nil {
		writeError(w, errBadSolution)
		return
	}
	if err := s.engine.Verify(config.ChainL2, ip, sol); err != nil {
		writeError(w, err)
		return
	}

	addr, err := hexutil.Decode(vars["address"], 20)
	if err != nil {
		writeError(w, errBadAddress)
		return
	}

	txid, err := s.l2.Send(r.Context(), addr, s.cfg.L2.AmountPerClaim)
	if err != nil {
		s.log.Error("l2 send failed", "err", err)
		http.Error(w, "send failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"txid_hex": hexutil.Encode(txid[:])})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	chain, ok := chainFromVar(mux.Vars(r))
	if !ok {
		writeError(w, challenge.ErrBadChain)
		return
	}
	reader := s.l1Bal
	if chain == config.ChainL2 {
		reader = s.l2Bal
	}
	bal, err := reader.Balance(chain)
	if err != nil {
		s.log.Error("balance read failed", "chain", chain, "err", err)
		http.Error(w, "balance read failed", http.StatusInternalServerError)
		return
	}
	writePlainDecimal(w, bal)
}

func (s *Server) handleSatsToClaim(w http.ResponseWriter, r *http.Request) {
	chain, ok := chainFromVar(mux.Vars(r))
	if !ok {
		writeError(w, challenge.ErrBadChain)
		return
	}
	writePlainDecimal(w, s.cfg.ForChain(chain).AmountPerClaim)
}

// decodeL1Address decodes a hex-encoded scriptPubKey for the UTXO chain.
// The core treats the destination purely as an opaque locking script (spec
// §3 PayoutRequest), so no chain-specific address format parsing lives
// here.
func decodeL1Address(s string) ([]byte, error) {
	b, err := hexutil.DecodeAny(s)
	if err != nil {
		return nil, errBadAddress
	}
	return b, nil
}
