package castmon

import (
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
)

// AudioFormatName returns the label of a negotiated audio format code.
func AudioFormatName(code uint32) string {
	switch code {
	case 0x1000000:
		return "AAC_ELD"
	case 0x40000:
		return "ALAC"
	case 0x400000:
		return "AAC"
	case 0x0:
		return "PCM"
	default:
		return "UNKNOWN"
	}
}

// bridge is the Listener handed to the protocol engine. It is bound to the
// runtime of a single run.
type bridge struct {
	rt  *runtime
	j   Journaler
	log *logging.Logger
}

var _ Listener = (*bridge)(nil)

func (b *bridge) ConnectionOpened() {
	n := b.rt.connOpened()
	b.log.Infof("open connections: %d", n)
	b.j.Write(EventConnectionOpened{Open: n})

	if v := b.rt.videoRenderer(); v != nil {
		v.SetForeground(true)
	}
}

func (b *bridge) ConnectionClosed() {
	if v := b.rt.videoRenderer(); v != nil {
		v.SetForeground(false)
	}

	n := b.rt.connClosed()
	b.log.Infof("open connections: %d", n)
	b.j.Write(EventConnectionClosed{Open: n})
}

func (b *bridge) AudioFrame(ts uint64, payload []byte) {
	if a := b.rt.audioRenderer(); a != nil {
		a.Render(ts, payload)
	}
}

func (b *bridge) VideoFrame(ts uint64, payload []byte, kind FrameKind) {
	if v := b.rt.videoRenderer(); v != nil {
		v.Render(ts, payload, kind)
	}
}

func (b *bridge) Flush(media MediaType) {
	switch media {
	case MediaAudio:
		if a := b.rt.audioRenderer(); a != nil {
			a.Flush()
		}
	case MediaVideo:
		if v := b.rt.videoRenderer(); v != nil {
			v.Flush()
		}
	}
}

func (b *bridge) VolumeChanged(volume float32) {
	if a := b.rt.audioRenderer(); a != nil {
		a.SetVolume(volume)
	}
}

func (b *bridge) FormatNegotiated(code uint32) {
	name := AudioFormatName(code)
	b.log.Infof("new audio connection with audio format 0x%X %s", code, name)
	b.j.Write(EventAudioFormat{Code: code, Format: name})
}

func (b *bridge) Log(level logging.Level, msg string) {
	b.log.Log(level, msg)
}
