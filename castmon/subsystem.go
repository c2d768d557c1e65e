package castmon

import (
	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/hwaddr"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
)

// FrameKind describes a video frame as reported by the protocol engine.
type FrameKind uint8

const (
	FrameUnknown FrameKind = iota
	FrameKey
	FrameDelta
)

// MediaType selects the audio or the video stream.
type MediaType uint8

const (
	MediaAudio MediaType = iota
	MediaVideo
)

func (m MediaType) String() string {
	if m == MediaVideo {
		return "video"
	}
	return "audio"
}

// RenderEvent is posted by a renderer when its pipeline stops on its own, for
// example on an error or at the end of the stream.
type RenderEvent struct {
	Renderer string
	Err      error
}

// Listener receives the asynchronous notifications of the protocol engine. It
// is called from the engine's goroutines.
type Listener interface {
	ConnectionOpened()
	ConnectionClosed()
	AudioFrame(ts uint64, payload []byte)
	VideoFrame(ts uint64, payload []byte, kind FrameKind)
	Flush(media MediaType)
	VolumeChanged(volume float32)
	FormatNegotiated(code uint32)
	Log(level logging.Level, msg string)
}

// Engine is the streaming protocol engine.
type Engine interface {
	SetDisplay(config.Display)
	SetPorts(tcp, udp config.Ports)
	SetDebug(bool)
	// Start binds the listening port and returns the bound port, which
	// differs from the configured one if that was 0.
	Start() (uint16, error)
	Destroy()
}

// Registrar advertises the running service on the local network.
type Registrar interface {
	RegisterRAOP(port uint16) error
	RegisterAirPlay(port uint16) error
	UnregisterRAOP()
	UnregisterAirPlay()
	Destroy()
}

// Logger is the render-subsystem logger.
type Logger interface {
	Log(level logging.Level, msg string)
	Close() error
}

// VideoRenderer consumes decoded video frames.
type VideoRenderer interface {
	Start() error
	Render(ts uint64, payload []byte, kind FrameKind)
	Flush()
	// SetForeground is called with true when a client connects and false when
	// one disconnects.
	SetForeground(bool)
	// Events returns the renderer's event source, which is watched by the
	// event loop. A nil channel is never ready.
	Events() <-chan RenderEvent
	Destroy()
}

// AudioRenderer consumes decoded audio frames.
type AudioRenderer interface {
	Start() error
	Render(ts uint64, payload []byte)
	Flush()
	SetVolume(volume float32)
	Destroy()
}

// VideoOptions configures a video renderer.
type VideoOptions struct {
	Name   string
	Flip   config.Flip
	Rotate config.Rotate
	Sink   string
}

// AudioOptions configures an audio renderer.
type AudioOptions struct {
	Sink string
}

// Subsystems holds the constructors of every subsystem started by the Server.
type Subsystems struct {
	NewEngine        func(Listener) (Engine, error)
	NewRegistrar     func(name string, addr hwaddr.Addr) (Registrar, error)
	NewLogger        func(debug bool) (Logger, error)
	NewVideoRenderer func(Logger, VideoOptions) (VideoRenderer, error)
	NewAudioRenderer func(Logger, AudioOptions) (AudioRenderer, error)
}
