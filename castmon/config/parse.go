package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrHelp is returned by Parse when -h or -v is given.
var ErrHelp = errors.New("help requested")

// ArgumentError is returned for a malformed, out-of-range, unknown or missing
// command-line value.
type ArgumentError struct {
	Flag   string
	Value  string
	Reason string
}

func (err *ArgumentError) Error() string {
	if err.Value == "" {
		return fmt.Sprintf("invalid %q: %s", err.Flag, err.Reason)
	}
	return fmt.Sprintf("invalid \"%s %s\": %s", err.Flag, err.Value, err.Reason)
}

// Parser parses command-line tokens into a Config.
type Parser struct {
	// Hostname returns the name appended to the server name. A failing
	// Hostname leaves the server name untouched.
	Hostname func() (string, error)
}

// Parse parses the arguments (excluding the program name) using the system
// hostname.
func Parse(args []string) (*Config, error) {
	return Parser{Hostname: Hostname}.Parse(args)
}

// Hostname returns the node name reported by uname.
func Hostname() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", errors.Wrap(err, "uname failed")
	}
	return unix.ByteSliceToString(uts.Nodename[:]), nil
}

// Parse parses the arguments (excluding the program name). It stops at the
// first invalid argument; no partially parsed Config is ever returned.
func (p Parser) Parse(args []string) (*Config, error) {
	cfg := Default()
	s := scanner{args: args}

	for s.next() {
		flag := s.arg()

		switch flag {
		case "-n":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			cfg.Name = v

		case "-s":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			w, h, r, err := ParseDisplay(v)
			if err != nil {
				return nil, invalid(flag, v, "%v; -s wxh: max w,h=9999; -s wxh@r: max r=255", err)
			}
			cfg.Display.Width = w
			cfg.Display.Height = h
			if r > 0 {
				cfg.Display.RefreshRate = r
			}

		case "-fps":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			n, err := ParseValue(v, 255)
			if err != nil {
				return nil, invalid(flag, v, "%v; -fps n: max n=255, default n=%d", err, DefaultMaxFPS)
			}
			cfg.Display.MaxFPS = uint8(n)

		case "-o":
			cfg.Display.Overscan = true

		case "-f":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			f, err := ParseFlip(v)
			if err != nil {
				return nil, invalid(flag, v, "%v", err)
			}
			cfg.Flip = f

		case "-r":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			r, err := ParseRotate(v)
			if err != nil {
				return nil, invalid(flag, v, "%v", err)
			}
			cfg.Rotate = r

		case "-p":
			if err := s.ports(&cfg); err != nil {
				return nil, err
			}

		case "-m":
			cfg.RandomHardwareAddress = true

		case "-a":
			cfg.UseAudio = false

		case "-d":
			cfg.Debug = !cfg.Debug

		case "-h", "-v":
			return nil, ErrHelp

		case "-vs":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			cfg.VideoSink = v

		case "-as":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			cfg.AudioSink = v

		case "-t":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			if v == "0" {
				cfg.IdleTimeout = 0
				continue
			}
			n, err := ParseValue(v, 0)
			if err != nil {
				return nil, invalid(flag, v, "%v; -t n: seconds without connections, 0 disables", err)
			}
			cfg.IdleTimeout = n

		case "-j":
			v, err := s.value(flag)
			if err != nil {
				return nil, err
			}
			cfg.JournalFile = v

		default:
			return nil, &ArgumentError{Flag: flag, Reason: "unknown option"}
		}
	}

	if p.Hostname != nil {
		if host, err := p.Hostname(); err == nil && host != "" {
			cfg.Name += "@" + host
		}
	}

	return &cfg, nil
}

func invalid(flag, value, f string, v ...interface{}) *ArgumentError {
	return &ArgumentError{
		Flag:   flag,
		Value:  value,
		Reason: fmt.Sprintf(f, v...),
	}
}

// scanner walks the argument list.
type scanner struct {
	args []string
	i    int
	cur  string
}

func (s *scanner) next() bool {
	if s.i >= len(s.args) {
		return false
	}
	s.cur = s.args[s.i]
	s.i++
	return true
}

func (s *scanner) arg() string { return s.cur }

// hasValue returns true if the following token exists and does not look like
// another flag.
func (s *scanner) hasValue() bool {
	return s.i < len(s.args) && !strings.HasPrefix(s.args[s.i], "-")
}

// value consumes the value of the given flag.
func (s *scanner) value(flag string) (string, error) {
	if !s.hasValue() {
		return "", &ArgumentError{Flag: flag, Reason: "had no argument"}
	}
	s.next()
	return s.cur, nil
}

// ports consumes the arguments of -p: nothing, "tcp v", "udp v" or "v".
func (s *scanner) ports(cfg *Config) error {
	if !s.hasValue() {
		cfg.TCP = LegacyTCP
		cfg.UDP = LegacyUDP
		return nil
	}

	s.next()

	switch family := s.cur; family {
	case "tcp", "udp":
		flag := "-p " + family
		v, err := s.value(flag)
		if err != nil {
			return err
		}
		p, err := ParsePorts(v)
		if err != nil {
			return portsInvalid(flag, v, err)
		}
		if family == "tcp" {
			cfg.TCP = p
		} else {
			cfg.UDP = p
		}

	default:
		p, err := ParsePorts(family)
		if err != nil {
			return portsInvalid("-p", family, err)
		}
		cfg.TCP = p
		cfg.UDP = p
	}

	return nil
}

func portsInvalid(flag, value string, err error) *ArgumentError {
	return invalid(flag, value,
		"%v; all 3 ports must be distinct and in range [%d,%d]", err, LowestPort, HighestPort)
}
