package challenge

import (
	"errors"
	"net"

	"github.com/alpenlabs/faucetd/config"
)

// ErrIPv6Unsupported is returned when the caller's address cannot be
// represented as an IPv4 address. Spec §1/§9: IPv6 client identity is
// explicitly rejected, never bucketed together.
var ErrIPv6Unsupported = errors.New("ipv6 client identity is not supported")

// Key identifies a (client IPv4 address, chain) pair: spec §3 ChallengeKey.
type Key struct {
	ip    uint32
	Chain config.ChainName
}

// KeyFor builds a Key from a net.IP, rejecting anything that isn't a
// 4-byte IPv4 address.
func KeyFor(ip net.IP, chain config.ChainName) (Key, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Key{}, ErrIPv6Unsupported
	}
	raw := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	return Key{ip: raw, Chain: chain}, nil
}
