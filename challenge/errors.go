package challenge

import "errors"

// Verification error kinds, mapped 1:1 to HTTP 400 at the boundary (spec §7).
var (
	ErrNonceNotFound  = errors.New("no active challenge for this address")
	ErrBadProofOfWork = errors.New("proof of work does not meet required difficulty")
	ErrAlreadyClaimed = errors.New("challenge already claimed")
	ErrBadChain       = errors.New("unrecognized chain")
)
