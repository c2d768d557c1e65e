// Package render implements castmon's video and audio renderers as GStreamer
// pipelines. Each pipeline runs as a gst-launch child process that reads the
// frames from its standard input.
package render

import (
	"fmt"
	"math"
	"strings"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/config"
)

// Launcher is the executable that runs the pipelines.
const Launcher = "gst-launch-1.0"

// link joins pipeline elements with gst-launch's link token. Each element is
// a list of arguments, the first being the element name.
func link(elements ...[]string) []string {
	var argv []string
	for i, elem := range elements {
		if i > 0 {
			argv = append(argv, "!")
		}
		argv = append(argv, elem...)
	}
	return argv
}

func element(name string, props ...string) []string {
	return append([]string{name}, props...)
}

// flipMethod returns the videoflip method of the given flip, or an empty
// string if the frames are not flipped.
func flipMethod(f config.Flip) string {
	switch f {
	case config.FlipHorizontal:
		return "horizontal-flip"
	case config.FlipVertical:
		return "vertical-flip"
	case config.FlipInvert:
		return "rotate-180"
	default:
		return ""
	}
}

func rotateMethod(r config.Rotate) string {
	switch r {
	case config.RotateLeft:
		return "counterclockwise"
	case config.RotateRight:
		return "clockwise"
	default:
		return ""
	}
}

// sinkElement splits a sink description such as "ximagesink display=:1" into
// its element and properties. An empty description selects fallback.
func sinkElement(sink, fallback string) []string {
	if fields := strings.Fields(sink); len(fields) > 0 {
		return fields
	}
	return []string{fallback}
}

// videoPipeline returns the gst-launch arguments, without the launcher, of
// the pipeline decoding H.264 frames into the configured sink. The flip is
// applied before the rotation.
func videoPipeline(opts castmon.VideoOptions) []string {
	elements := [][]string{
		element("fdsrc", "fd=0"),
		element("queue"),
		element("h264parse"),
		element("avdec_h264"),
		element("videoconvert"),
	}

	if m := flipMethod(opts.Flip); m != "" {
		elements = append(elements, element("videoflip", "method="+m))
	}
	if m := rotateMethod(opts.Rotate); m != "" {
		elements = append(elements, element("videoflip", "method="+m))
	}

	sink := append(sinkElement(opts.Sink, config.DefaultVideoSink), "sync=false")
	elements = append(elements, sink)

	return append([]string{"-q"}, link(elements...)...)
}

// audioPipeline returns the gst-launch arguments of the audio pipeline with
// the given linear volume.
func audioPipeline(opts castmon.AudioOptions, volume float64) []string {
	return append([]string{"-q"}, link(
		element("fdsrc", "fd=0"),
		element("queue"),
		element("decodebin"),
		element("audioconvert"),
		element("audioresample"),
		element("volume", fmt.Sprintf("volume=%.3f", volume)),
		sinkElement(opts.Sink, config.DefaultAudioSink),
	)...)
}

// MuteVolume is the lowest volume a client reports; anything at or below it
// is silent.
const MuteVolume = -30

// LinearVolume converts a client volume in decibels into the linear factor of
// GStreamer's volume element.
func LinearVolume(db float32) float64 {
	if db <= MuteVolume {
		return 0
	}
	if db >= 0 {
		return 1
	}
	return math.Pow(10, float64(db)/20)
}
