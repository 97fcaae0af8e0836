// Package seed loads or creates the faucet's master key material (spec §6
// seed_file) and derives independent per-chain subseeds from it via HKDF,
// grounded on seed.rs's SavableSeed::load_or_create but adding a proper KDF
// between the on-disk master seed and each chain wallet's signing key
// instead of the original's direct domain-tag-then-hash.
package seed

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

const size = 32

// LoadOrCreate reads a 32-byte master seed from path, generating and saving
// a fresh one if the file does not exist.
func LoadOrCreate(path string) ([size]byte, error) {
	var s [size]byte

	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != size {
			return s, fmt.Errorf("seed: %s: expected %d bytes, got %d", path, size, len(raw))
		}
		copy(s[:], raw)
		return s, nil
	}
	if !os.IsNotExist(err) {
		return s, fmt.Errorf("seed: reading %s: %w", path, err)
	}

	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("seed: generating seed: %w", err)
	}
	if err := os.WriteFile(path, s[:], 0o600); err != nil {
		return s, fmt.Errorf("seed: saving %s: %w", path, err)
	}
	return s, nil
}

// Derive expands master into an independent subseed for the given purpose
// label (e.g. "alpen labs faucet l1 wallet 2024"), so a leaked L2 signing
// key can never be used to reconstruct the L1 wallet's key or vice versa.
func Derive(master [size]byte, info string) []byte {
	r := hkdf.New(sha256.New, master[:], nil, []byte(info))
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		panic("seed: hkdf expansion cannot fail for a fixed-size read: " + err.Error())
	}
	return out
}
