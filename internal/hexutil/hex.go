// Package hexutil provides the lowercase-emitting, case-insensitive-decoding
// hex codec used at the faucet's HTTP boundary for nonces and solutions.
package hexutil

import (
	"encoding/hex"
	"fmt"
)

// Encode returns the lowercase hex encoding of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Decode decodes s, which may use either case, into exactly n bytes.
func Decode(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hexutil: invalid hex string: %w", err)
	}
	if len(b) != n {
		return nil, fmt.Errorf("hexutil: expected %d bytes, got %d", n, len(b))
	}
	return b, nil
}

// Decode16 decodes a 16-byte nonce.
func Decode16(s string) ([16]byte, error) {
	var out [16]byte
	b, err := Decode(s, 16)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// Decode8 decodes an 8-byte solution.
func Decode8(s string) ([8]byte, error) {
	var out [8]byte
	b, err := Decode(s, 8)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// DecodeAny decodes s into a byte slice of whatever length it represents,
// rejecting only malformed hex and the empty string. Used for opaque,
// variable-length payloads like a UTXO-chain locking script.
func DecodeAny(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hexutil: invalid hex string: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("hexutil: empty hex string")
	}
	return b, nil
}
