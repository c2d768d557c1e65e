// Package config contains the validated runtime configuration of castmon and
// the command-line parser that produces it.
package config

import (
	"fmt"

	"git.unix.lgbt/diamondburned/castmon/castmon/hwaddr"
)

// Version is the version printed by -h and -v.
const Version = "1.38"

const (
	// DefaultName is the advertised server name before the hostname is
	// appended.
	DefaultName = "CastMon"
	// DefaultVideoSink and DefaultAudioSink are the sink elements used when
	// -vs and -as are not given.
	DefaultVideoSink = "autovideosink"
	DefaultAudioSink = "autoaudiosink"
	// DefaultMaxFPS is the streaming framerate cap without -fps.
	DefaultMaxFPS = 30

	// Disabled is the sink name that turns a media type off.
	Disabled = "0"

	// LowestPort and HighestPort bound every explicitly given port.
	LowestPort  = 1024
	HighestPort = 65535
)

// Display describes the screen geometry negotiated with clients.
type Display struct {
	Width       uint16
	Height      uint16
	RefreshRate uint8
	MaxFPS      uint8
	Overscan    bool
}

// Ports is one family of network ports. A zero entry is assigned dynamically.
type Ports [3]uint16

// LegacyTCP and LegacyUDP are the fixed ports selected by a bare -p.
var (
	LegacyTCP = Ports{7100, 7000, 7001}
	LegacyUDP = Ports{7011, 6001, 6000}
)

// Flip is the mirroring applied to video frames.
type Flip uint8

const (
	FlipNone Flip = iota
	FlipHorizontal
	FlipVertical
	FlipInvert
)

func (f Flip) String() string {
	switch f {
	case FlipNone:
		return "none"
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	case FlipInvert:
		return "invert"
	default:
		return fmt.Sprintf("Flip(%d)", uint8(f))
	}
}

// Rotate is the quarter turn applied to video frames. It combines freely with
// Flip.
type Rotate uint8

const (
	RotateNone Rotate = iota
	RotateLeft
	RotateRight
)

func (r Rotate) String() string {
	switch r {
	case RotateNone:
		return "none"
	case RotateLeft:
		return "left"
	case RotateRight:
		return "right"
	default:
		return fmt.Sprintf("Rotate(%d)", uint8(r))
	}
}

// Config is the validated configuration of one castmon process. It is built
// once and reused verbatim for every relaunch of the server.
type Config struct {
	Name                  string
	HardwareAddress       hwaddr.Addr
	RandomHardwareAddress bool

	Display Display
	TCP     Ports
	UDP     Ports
	Flip    Flip
	Rotate  Rotate

	VideoSink string
	AudioSink string
	UseAudio  bool

	Debug       bool
	IdleTimeout uint32 // seconds, 0 disables the watchdog

	JournalFile string
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Name: DefaultName,
		Display: Display{
			Width:       1920,
			Height:      1080,
			RefreshRate: 60,
			MaxFPS:      DefaultMaxFPS,
		},
		VideoSink: DefaultVideoSink,
		AudioSink: DefaultAudioSink,
		UseAudio:  true,
	}
}

// UseVideo returns false if the video sink is the disable sentinel.
func (c Config) UseVideo() bool {
	return c.VideoSink != Disabled
}

// AudioEnabled returns false if audio is turned off by -a or by the disable
// sentinel.
func (c Config) AudioEnabled() bool {
	return c.UseAudio && c.AudioSink != Disabled
}

// EffectiveDisplay returns the display settings pushed to the protocol engine.
// Audio-only mode asks clients for a single frame per second.
func (c Config) EffectiveDisplay() Display {
	d := c.Display
	if !c.UseVideo() {
		d.MaxFPS = 1
	}
	return d
}
