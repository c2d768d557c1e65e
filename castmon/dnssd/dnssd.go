// Package dnssd advertises the receiver over multicast DNS-SD using
// github.com/grandcat/zeroconf.
package dnssd

import (
	"fmt"
	"net"
	"strings"
	"sync"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/hwaddr"
	"github.com/grandcat/zeroconf"
	"github.com/pkg/errors"
)

const (
	RAOPService    = "_raop._tcp"
	AirPlayService = "_airplay._tcp"
	Domain         = "local."
)

// Advertised capabilities, shared by both records.
const (
	features = "0x5A7FFFF7,0x1E"
	model    = "AppleTV3,2"
	srcvers  = "220.68"
)

// RAOPInstance returns the RAOP instance name, which is the hardware address
// in hexadecimal followed by the server name.
func RAOPInstance(name string, addr hwaddr.Addr) string {
	return fmt.Sprintf("%X@%s", addr[:], name)
}

// RAOPText returns the TXT record of the RAOP service.
func RAOPText() []string {
	return []string{
		"txtvers=1",
		"ch=2",
		"cn=0,1,2,3",
		"da=true",
		"et=0,3,5",
		"vv=2",
		"ft=" + features,
		"am=" + model,
		"md=0,1,2",
		"rhd=5.1.0",
		"pw=false",
		"sr=44100",
		"ss=16",
		"sv=false",
		"tp=UDP",
		"sf=0x4",
		"vs=" + srcvers,
		"vn=65537",
	}
}

// AirPlayText returns the TXT record of the AirPlay service.
func AirPlayText(addr hwaddr.Addr) []string {
	return []string{
		"deviceid=" + strings.ToUpper(addr.String()),
		"features=" + features,
		"flags=0x4",
		"model=" + model,
		"pw=false",
		"rhd=5.1.0",
		"srcvers=" + srcvers,
		"vv=2",
	}
}

type service interface {
	Shutdown()
}

type registerFunc func(instance, svc, domain string, port int, txt []string, ifaces []net.Interface) (service, error)

func zeroconfRegister(
	instance, svc, domain string, port int, txt []string, ifaces []net.Interface) (service, error) {

	s, err := zeroconf.Register(instance, svc, domain, port, txt, ifaces)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Registrar registers the RAOP and AirPlay records of one server.
type Registrar struct {
	name string
	addr hwaddr.Addr

	// Interfaces restricts the interfaces the records are announced on. All
	// multicast interfaces are used if it is nil.
	Interfaces []net.Interface

	register registerFunc

	mu      sync.Mutex
	raop    service
	airplay service
}

var _ castmon.Registrar = (*Registrar)(nil)

// New creates a registrar for the given server name and hardware address.
// Nothing is announced until a Register method is called.
func New(name string, addr hwaddr.Addr) (*Registrar, error) {
	if name == "" {
		return nil, errors.New("empty server name")
	}

	return &Registrar{
		name:     name,
		addr:     addr,
		register: zeroconfRegister,
	}, nil
}

// RegisterRAOP announces the RAOP service on port, replacing an earlier
// announcement.
func (r *Registrar) RegisterRAOP(port uint16) error {
	s, err := r.register(RAOPInstance(r.name, r.addr), RAOPService, Domain, int(port), RAOPText(), r.Interfaces)
	if err != nil {
		return errors.Wrap(err, "failed to register raop service")
	}

	r.mu.Lock()
	old := r.raop
	r.raop = s
	r.mu.Unlock()

	if old != nil {
		old.Shutdown()
	}
	return nil
}

// RegisterAirPlay announces the AirPlay service on port, replacing an earlier
// announcement.
func (r *Registrar) RegisterAirPlay(port uint16) error {
	s, err := r.register(r.name, AirPlayService, Domain, int(port), AirPlayText(r.addr), r.Interfaces)
	if err != nil {
		return errors.Wrap(err, "failed to register airplay service")
	}

	r.mu.Lock()
	old := r.airplay
	r.airplay = s
	r.mu.Unlock()

	if old != nil {
		old.Shutdown()
	}
	return nil
}

// UnregisterRAOP withdraws the RAOP announcement, if any.
func (r *Registrar) UnregisterRAOP() {
	r.mu.Lock()
	s := r.raop
	r.raop = nil
	r.mu.Unlock()

	if s != nil {
		s.Shutdown()
	}
}

// UnregisterAirPlay withdraws the AirPlay announcement, if any.
func (r *Registrar) UnregisterAirPlay() {
	r.mu.Lock()
	s := r.airplay
	r.airplay = nil
	r.mu.Unlock()

	if s != nil {
		s.Shutdown()
	}
}

// Destroy withdraws every announcement.
func (r *Registrar) Destroy() {
	r.UnregisterRAOP()
	r.UnregisterAirPlay()
}
