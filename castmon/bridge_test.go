package castmon

import (
	"sync"
	"testing"

	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
)

func newTestBridge(video VideoRenderer, audio AudioRenderer) (*bridge, *mockJournal) {
	j := &mockJournal{}
	rt := newRuntime()
	rt.video = video
	rt.audio = audio
	return &bridge{rt: rt, j: j, log: logging.Discard()}, j
}

func TestAudioFormatName(t *testing.T) {
	var tests = map[uint32]string{
		0x1000000: "AAC_ELD",
		0x40000:   "ALAC",
		0x400000:  "AAC",
		0x0:       "PCM",
		0x1:       "UNKNOWN",
		0xFFFFFFF: "UNKNOWN",
	}

	for code, expect := range tests {
		if got := AudioFormatName(code); got != expect {
			t.Errorf("AudioFormatName(0x%X) = %q, expected %q", code, got, expect)
		}
	}
}

func TestBridgeConnections(t *testing.T) {
	stack := newFakeStack(7000)
	video := &fakeVideo{stack: stack}
	b, j := newTestBridge(video, nil)

	b.ConnectionOpened()
	b.ConnectionOpened()
	b.ConnectionClosed()
	b.ConnectionClosed()
	// Spurious close from the engine.
	b.ConnectionClosed()

	if n := b.rt.openConnections(); n != 0 {
		t.Fatalf("expected 0 open connections, got %d", n)
	}

	j.Verify(t, true, []Event{
		EventConnectionOpened{Open: 1},
		EventConnectionOpened{Open: 2},
		EventConnectionClosed{Open: 1},
		EventConnectionClosed{Open: 0},
		EventConnectionClosed{Open: 0},
	})

	expect := []bool{true, true, false, false, false}
	if len(video.foreground) != len(expect) {
		t.Fatalf("expected %d foreground calls, got %v", len(expect), video.foreground)
	}
	for i, fg := range expect {
		if video.foreground[i] != fg {
			t.Errorf("foreground call %d = %v, expected %v", i, video.foreground[i], fg)
		}
	}
}

func TestBridgeConcurrentConnections(t *testing.T) {
	b, _ := newTestBridge(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.ConnectionOpened()
			b.ConnectionClosed()
		}()
	}
	wg.Wait()

	if n := b.rt.openConnections(); n != 0 {
		t.Fatalf("expected 0 open connections, got %d", n)
	}
}

func TestRuntimeTickWhileConnecting(t *testing.T) {
	rt := newRuntime()

	stop := make(chan struct{})
	ticked := make(chan struct{})

	go func() {
		defer close(ticked)
		for {
			select {
			case <-stop:
				return
			default:
				rt.tick(1 << 30)
			}
		}
	}()

	for i := 0; i < 10000; i++ {
		rt.connOpened()
		if n := rt.idleSeconds(); n != 0 {
			close(stop)
			<-ticked
			t.Fatalf("idle for %d seconds with a connection open", n)
		}
		rt.connClosed()
	}

	close(stop)
	<-ticked
}

func TestBridgeMedia(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		stack := newFakeStack(7000)
		video := &fakeVideo{stack: stack}
		audio := &fakeAudio{stack: stack}
		b, _ := newTestBridge(video, audio)

		b.VideoFrame(1, []byte("video"), FrameKey)
		b.AudioFrame(2, []byte("audio"))
		b.Flush(MediaVideo)
		b.Flush(MediaVideo)
		b.Flush(MediaAudio)
		b.VolumeChanged(-12.5)

		if len(video.frames) != 1 || string(video.frames[0]) != "video" {
			t.Errorf("unexpected video frames %q", video.frames)
		}
		if len(audio.frames) != 1 || string(audio.frames[0]) != "audio" {
			t.Errorf("unexpected audio frames %q", audio.frames)
		}
		if video.flushes != 2 {
			t.Errorf("expected 2 video flushes, got %d", video.flushes)
		}
		if audio.flushes != 1 {
			t.Errorf("expected 1 audio flush, got %d", audio.flushes)
		}
		if audio.volume != -12.5 {
			t.Errorf("expected volume -12.5, got %v", audio.volume)
		}
	})

	t.Run("no renderers", func(t *testing.T) {
		b, j := newTestBridge(nil, nil)

		b.VideoFrame(1, []byte("video"), FrameDelta)
		b.AudioFrame(2, []byte("audio"))
		b.Flush(MediaVideo)
		b.Flush(MediaAudio)
		b.VolumeChanged(0)
		b.ConnectionOpened()
		b.ConnectionClosed()

		j.Verify(t, true, []Event{
			EventConnectionOpened{Open: 1},
			EventConnectionClosed{Open: 0},
		})
	})
}

func TestBridgeFormat(t *testing.T) {
	b, j := newTestBridge(nil, nil)

	b.FormatNegotiated(0x40000)
	b.FormatNegotiated(0x12)

	j.Verify(t, true, []Event{
		EventAudioFormat{Code: 0x40000, Format: "ALAC"},
		EventAudioFormat{Code: 0x12, Format: "UNKNOWN"},
	})
}
