package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func testParser(host string) Parser {
	return Parser{Hostname: func() (string, error) {
		if host == "" {
			return "", errors.New("no hostname")
		}
		return host, nil
	}}
}

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := testParser("box").Parse(nil)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}

		expect := Default()
		expect.Name = DefaultName + "@box"

		if *cfg != expect {
			t.Fatalf("expected %+v, got %+v", expect, *cfg)
		}
	})

	t.Run("end to end", func(t *testing.T) {
		args := strings.Fields("-s 1280x720@30 -fps 24 -p 7000 -t 5")

		cfg, err := testParser("box").Parse(args)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}

		if expect := (Display{1280, 720, 30, 24, false}); cfg.Display != expect {
			t.Errorf("expected display %+v, got %+v", expect, cfg.Display)
		}
		if expect := (Ports{7000, 7001, 7002}); cfg.TCP != expect || cfg.UDP != expect {
			t.Errorf("expected ports %v, got tcp %v udp %v", expect, cfg.TCP, cfg.UDP)
		}
		if cfg.IdleTimeout != 5 {
			t.Errorf("expected idle timeout 5, got %d", cfg.IdleTimeout)
		}
	})

	t.Run("every flag", func(t *testing.T) {
		args := []string{
			"-n", "Living Room", "-s", "800x600", "-fps", "60", "-o",
			"-f", "I", "-r", "L", "-p", "udp", "6000,6001", "-p", "tcp", "7100",
			"-m", "-a", "-d", "-vs", "ximagesink", "-as", "pulsesink",
			"-t", "30", "-j", "/tmp/journal.json",
		}

		cfg, err := testParser("").Parse(args)
		if err != nil {
			t.Fatal("unexpected error:", err)
		}

		expect := Config{
			Name:                  "Living Room",
			RandomHardwareAddress: true,
			Display:               Display{800, 600, 60, 60, true},
			TCP:                   Ports{7100, 7101, 7102},
			UDP:                   Ports{6000, 6001, 6002},
			Flip:                  FlipInvert,
			Rotate:                RotateLeft,
			VideoSink:             "ximagesink",
			AudioSink:             "pulsesink",
			UseAudio:              false,
			Debug:                 true,
			IdleTimeout:           30,
			JournalFile:           "/tmp/journal.json",
		}

		if *cfg != expect {
			t.Fatalf("expected %+v, got %+v", expect, *cfg)
		}
	})

	t.Run("legacy ports", func(t *testing.T) {
		for _, args := range [][]string{{"-p"}, {"-p", "-d"}} {
			cfg, err := testParser("").Parse(args)
			if err != nil {
				t.Fatalf("%q: unexpected error: %v", args, err)
			}
			if cfg.TCP != LegacyTCP || cfg.UDP != LegacyUDP {
				t.Errorf("%q: got tcp %v udp %v", args, cfg.TCP, cfg.UDP)
			}
		}
	})

	t.Run("debug toggles", func(t *testing.T) {
		cfg, err := testParser("").Parse([]string{"-d", "-d"})
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if cfg.Debug {
			t.Error("expected debug to be toggled off again")
		}
	})

	t.Run("disable sinks", func(t *testing.T) {
		cfg, err := testParser("").Parse([]string{"-vs", "0", "-as", "0", "-fps", "60"})
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if cfg.UseVideo() || cfg.AudioEnabled() {
			t.Error("expected video and audio to be disabled")
		}
		if d := cfg.EffectiveDisplay(); d.MaxFPS != 1 {
			t.Errorf("expected max fps pinned to 1, got %d", d.MaxFPS)
		}
		if cfg.Display.MaxFPS != 60 {
			t.Errorf("expected configured max fps to stay 60, got %d", cfg.Display.MaxFPS)
		}
	})

	t.Run("timeout zero disables", func(t *testing.T) {
		cfg, err := testParser("").Parse([]string{"-t", "5", "-t", "0"})
		if err != nil {
			t.Fatal("unexpected error:", err)
		}
		if cfg.IdleTimeout != 0 {
			t.Errorf("expected disabled timeout, got %d", cfg.IdleTimeout)
		}
	})

	t.Run("help", func(t *testing.T) {
		for _, flag := range []string{"-h", "-v"} {
			_, err := testParser("").Parse([]string{"-d", flag, "-bogus"})
			if !errors.Is(err, ErrHelp) {
				t.Errorf("%s: expected ErrHelp, got %v", flag, err)
			}
		}
	})
}

func TestParseInvalid(t *testing.T) {
	type test struct {
		args []string
		flag string
	}

	var tests = []test{
		{[]string{"-x"}, "-x"},
		{[]string{"--name", "foo"}, "--name"},
		{[]string{"-n"}, "-n"},
		{[]string{"-n", "-d"}, "-n"},
		{[]string{"-s", "0x1080"}, "-s"},
		{[]string{"-s", "1920x1080@256"}, "-s"},
		{[]string{"-fps", "256"}, "-fps"},
		{[]string{"-fps", "0"}, "-fps"},
		{[]string{"-fps"}, "-fps"},
		{[]string{"-f", "X"}, "-f"},
		{[]string{"-f", "HV"}, "-f"},
		{[]string{"-r", "H"}, "-r"},
		{[]string{"-p", "80"}, "-p"},
		{[]string{"-p", "7000,7000"}, "-p"},
		{[]string{"-p", "tcp"}, "-p tcp"},
		{[]string{"-p", "udp", "-d"}, "-p udp"},
		{[]string{"-p", "tcp", "65535"}, "-p tcp"},
		{[]string{"-vs"}, "-vs"},
		{[]string{"-as", "-a"}, "-as"},
		{[]string{"-t", "x"}, "-t"},
		{[]string{"-t", "-5"}, "-t"},
		{[]string{"-j"}, "-j"},
		{[]string{"-s", "1280x720", "bogus"}, "bogus"},
	}

	for _, test := range tests {
		_, err := testParser("").Parse(test.args)

		var argErr *ArgumentError
		if !errors.As(err, &argErr) {
			t.Errorf("%q: expected ArgumentError, got %v", test.args, err)
			continue
		}
		if argErr.Flag != test.flag {
			t.Errorf("%q: expected flag %q, got %q", test.args, test.flag, argErr.Flag)
		}
		if !strings.Contains(err.Error(), test.flag) {
			t.Errorf("%q: diagnostic %q does not name the flag", test.args, err)
		}
	}
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf, "castmon")

	out := buf.String()
	for _, flag := range []string{"-n", "-s", "-fps", "-p", "-vs", "-as", "-t", "-j", Version} {
		if !strings.Contains(out, flag) {
			t.Errorf("usage does not mention %q", flag)
		}
	}
}
