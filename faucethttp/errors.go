package faucethttp

import (
	"errors"
	"net/http"

	"github.com/alpenlabs/faucetd/challenge"
)

// ErrBatcherUnavailable is returned when the payout queue rejects a request
// because it is at capacity (spec §7 BatcherUnavailable).
var ErrBatcherUnavailable = errors.New("payout queue is full, try again later")

// statusFor maps a core error to the HTTP status spec §7's propagation
// policy assigns it: verification errors are 400, IPv6 is 422, queue
// overflow is 503, everything else defaults to 500.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, challenge.ErrIPv6Unsupported):
		return http.StatusUnprocessableEntity
	case errors.Is(err, challenge.ErrBadChain),
		errors.Is(err, challenge.ErrNonceNotFound),
		errors.Is(err, challenge.ErrBadProofOfWork),
		errors.Is(err, challenge.ErrAlreadyClaimed),
		errors.Is(err, errBadSolution),
		errors.Is(err, errBadAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrBatcherUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var (
	errBadSolution = errors.New("solution must be 8 bytes hex-encoded")
	errBadAddress  = errors.New("malformed destination address")
)
