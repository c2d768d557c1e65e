package config

import (
	"fmt"
	"io"
)

// Usage writes the version banner and the option list.
func Usage(w io.Writer, prog string) {
	f := func(f string, v ...interface{}) {
		fmt.Fprintf(w, f, v...)
	}

	f("castmon %s: a supervised AirPlay mirroring receiver\n", Version)
	f("Usage: %s [-n name] [-s wxh] [-p [n]]\n", prog)
	f("Options:\n")
	f("-n name   Specify the network name of the AirPlay server\n")
	f("-s wxh[@r]Set display resolution [refresh_rate] default 1920x1080[@60]\n")
	f("-o        Set mirror \"overscanned\" mode on (not usually needed)\n")
	f("-fps n    Set maximum allowed streaming framerate, default %d\n", DefaultMaxFPS)
	f("-f {H|V|I}Horizontal|Vertical flip, or both=Inversion=rotate 180 deg\n")
	f("-r {R|L}  Rotate 90 degrees Right (cw) or Left (ccw)\n")
	f("-p        Use legacy ports UDP 6000:6001:7011 TCP 7000:7001:7100\n")
	f("-p n      Use TCP and UDP ports n,n+1,n+2. range %d-%d\n", LowestPort, HighestPort)
	f("          use \"-p n1,n2,n3\" to set each port, \"n1,n2\" for n3 = n2+1\n")
	f("          \"-p tcp n\" or \"-p udp n\" sets TCP or UDP ports only\n")
	f("-m        Use random MAC address (use for concurrent receivers)\n")
	f("-t n      Relaunch server if no connection existed in last n seconds\n")
	f("-vs sink  Choose the GStreamer videosink; default %q\n", DefaultVideoSink)
	f("-vs 0     Streamed audio only, with no video display window\n")
	f("-as sink  Choose the GStreamer audiosink; default %q\n", DefaultAudioSink)
	f("-as 0     (or -a)  Turn audio off, video output only\n")
	f("-j file   Append a JSON event journal to file\n")
	f("-d        Enable debug logging\n")
	f("-v or -h  Displays this help and version information\n")
}
