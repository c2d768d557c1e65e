package config

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// isDigits returns true if s is non-empty, at most max bytes long and made of
// decimal digits only. Signs and whitespace are rejected.
func isDigits(s string, max int) bool {
	if len(s) == 0 || len(s) > max {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseDisplay parses "wxh" or "wxh@r". Width and height are 1 to 4 digits and
// nonzero; the refresh rate is 1 to 3 digits in [1, 255].
func ParseDisplay(value string) (w, h uint16, r uint8, err error) {
	wStr, rest, ok := strings.Cut(value, "x")
	if !ok {
		return 0, 0, 0, errors.New("missing 'x' separator")
	}

	if !isDigits(wStr, 4) {
		return 0, 0, 0, errors.New("width must be 1 to 4 digits")
	}
	wv, _ := strconv.ParseUint(wStr, 10, 16)
	if wv == 0 {
		return 0, 0, 0, errors.New("width must be nonzero")
	}

	hStr, rStr, hasRate := strings.Cut(rest, "@")
	if hasRate {
		if !isDigits(rStr, 3) {
			return 0, 0, 0, errors.New("refresh rate must be 1 to 3 digits")
		}
		rv, _ := strconv.ParseUint(rStr, 10, 16)
		if rv == 0 || rv > math.MaxUint8 {
			return 0, 0, 0, errors.New("refresh rate must be in [1, 255]")
		}
		r = uint8(rv)
	}

	if !isDigits(hStr, 4) {
		return 0, 0, 0, errors.New("height must be 1 to 4 digits")
	}
	hv, _ := strconv.ParseUint(hStr, 10, 16)
	if hv == 0 {
		return 0, 0, 0, errors.New("height must be nonzero")
	}

	return uint16(wv), uint16(hv), r, nil
}

// ParseValue parses a positive decimal integer of at most 10 digits. If max is
// nonzero, the value must not exceed it.
func ParseValue(value string, max uint32) (uint32, error) {
	if !isDigits(value, 10) {
		return 0, errors.New("value must be 1 to 10 digits")
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil || n > math.MaxUint32 {
		return 0, errors.New("value out of range")
	}
	if n == 0 {
		return 0, errors.New("value must be nonzero")
	}
	if max > 0 && n > uint64(max) {
		return 0, errors.Errorf("value must not exceed %d", max)
	}

	return uint32(n), nil
}

// ParsePorts parses up to three comma-separated ports. Every given port must
// be in [LowestPort, HighestPort]. Missing trailing ports continue from the
// last given one, so "7000" yields 7000,7001,7002. All three ports must be
// distinct.
func ParsePorts(value string) (Ports, error) {
	var ports Ports
	rest := value

	for i := 0; i < len(ports); i++ {
		tok, tail, more := strings.Cut(rest, ",")
		if !isDigits(tok, 5) {
			return Ports{}, errors.Errorf("port %q is not a number", tok)
		}

		n, _ := strconv.ParseUint(tok, 10, 32)
		if n < LowestPort || n > HighestPort {
			return Ports{}, errors.Errorf("port %d out of range", n)
		}

		for j := 0; j < i; j++ {
			if uint64(ports[j]) == n {
				return Ports{}, errors.Errorf("port %d given twice", n)
			}
		}

		ports[i] = uint16(n)

		if !more {
			// The filled ports must stay at or below the highest port.
			if len(ports)+int(n) > i+1+HighestPort {
				return Ports{}, errors.Errorf("ports after %d exceed %d", n, HighestPort)
			}

			for j := i + 1; j < len(ports); j++ {
				ports[j] = ports[j-1] + 1
				for k := 0; k < j; k++ {
					if ports[k] == ports[j] {
						return Ports{}, errors.Errorf("filled port %d collides", ports[j])
					}
				}
			}

			return ports, nil
		}

		rest = tail
	}

	return Ports{}, errors.Errorf("at most %d ports are allowed", len(ports))
}

// ParseFlip parses one of H, V or I.
func ParseFlip(value string) (Flip, error) {
	switch value {
	case "H":
		return FlipHorizontal, nil
	case "V":
		return FlipVertical, nil
	case "I":
		return FlipInvert, nil
	default:
		return FlipNone, errors.New("unknown flip type, choices are H, V, I")
	}
}

// ParseRotate parses one of L or R.
func ParseRotate(value string) (Rotate, error) {
	switch value {
	case "L":
		return RotateLeft, nil
	case "R":
		return RotateRight, nil
	default:
		return RotateNone, errors.New("unknown rotation type, choices are R, L")
	}
}
