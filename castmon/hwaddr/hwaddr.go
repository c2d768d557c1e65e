// Package hwaddr resolves the 48-bit hardware address that identifies the
// receiver on the network.
package hwaddr

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Addr is a MAC-style hardware address.
type Addr [6]byte

const (
	bitMulticast = 1 << 0
	bitLocal     = 1 << 1
)

// DefaultProbes are the files read for the address of a real interface, in
// priority order.
var DefaultProbes = []string{
	"/sys/class/net/eth0/address",
	"/sys/class/net/wlan0/address",
}

// Parse parses the colon-separated form "xx:xx:xx:xx:xx:xx". Any other length
// or separator is rejected.
func Parse(s string) (Addr, error) {
	var addr Addr

	groups := strings.Split(s, ":")
	if len(groups) != len(addr) {
		return Addr{}, errors.Errorf("hardware address %q must have %d groups", s, len(addr))
	}

	for i, group := range groups {
		if len(group) != 2 {
			return Addr{}, errors.Errorf("hardware address group %q is not 2 digits", group)
		}
		if _, err := hex.Decode(addr[i:i+1], []byte(group)); err != nil {
			return Addr{}, errors.Wrapf(err, "invalid hardware address group %q", group)
		}
	}

	return addr, nil
}

// String formats the address as lowercase colon-separated hex.
func (a Addr) String() string {
	var b strings.Builder
	b.Grow(17)

	for i, octet := range a {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex.EncodeToString([]byte{octet}))
	}

	return b.String()
}

// IsLocal returns true if the locally administered bit is set.
func (a Addr) IsLocal() bool { return a[0]&bitLocal != 0 }

// IsMulticast returns true if the multicast bit is set.
func (a Addr) IsMulticast() bool { return a[0]&bitMulticast != 0 }

// Random synthesizes a locally administered unicast address from r.
func Random(r io.Reader) (Addr, error) {
	var addr Addr
	if _, err := io.ReadFull(r, addr[:]); err != nil {
		return Addr{}, errors.Wrap(err, "failed to read random bytes")
	}

	addr[0] = addr[0]&^bitMulticast | bitLocal
	return addr, nil
}

// Resolver finds the hardware address to register the service with.
type Resolver struct {
	Probes []string
	Rand   io.Reader
}

// NewResolver creates a resolver reading DefaultProbes and crypto/rand.
func NewResolver() Resolver {
	return Resolver{
		Probes: DefaultProbes,
		Rand:   rand.Reader,
	}
}

// Resolve returns the address of the first readable probe, unless
// forceRandom is true or no probe yields an address, in which case a random
// address is returned with random set to true.
func (r Resolver) Resolve(forceRandom bool) (addr Addr, random bool, err error) {
	if !forceRandom {
		for _, path := range r.Probes {
			a, err := readProbe(path)
			if err == nil {
				return a, false, nil
			}
		}
	}

	addr, err = Random(r.Rand)
	if err != nil {
		return Addr{}, true, err
	}

	return addr, true, nil
}

func readProbe(path string) (Addr, error) {
	f, err := os.Open(path)
	if err != nil {
		return Addr{}, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return Addr{}, errors.Wrap(err, "failed to read probe")
		}
		return Addr{}, errors.New("empty probe")
	}

	return Parse(strings.TrimSpace(s.Text()))
}
