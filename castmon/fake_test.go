package castmon

import (
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/hwaddr"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// callLog records subsystem calls in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(f string, v ...interface{}) {
	c.mu.Lock()
	c.calls = append(c.calls, fmt.Sprintf(f, v...))
	c.mu.Unlock()
}

// take returns the recorded calls and clears the log.
func (c *callLog) take() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	calls := c.calls
	c.calls = nil
	return calls
}

// fakeStack creates fake subsystems that record into one call log. Errors in
// fail are returned by the call of the same name.
type fakeStack struct {
	log  callLog
	port uint16
	fail map[string]error

	mu      sync.Mutex
	engines []*fakeEngine
	videos  []*fakeVideo
	audios  []*fakeAudio
}

func newFakeStack(port uint16) *fakeStack {
	return &fakeStack{port: port, fail: map[string]error{}}
}

func (s *fakeStack) subsystems() Subsystems {
	return Subsystems{
		NewEngine: func(l Listener) (Engine, error) {
			s.log.add("engine.new")
			if err := s.fail["engine.new"]; err != nil {
				return nil, err
			}
			e := &fakeEngine{stack: s, listener: l}
			s.mu.Lock()
			s.engines = append(s.engines, e)
			s.mu.Unlock()
			return e, nil
		},
		NewRegistrar: func(name string, addr hwaddr.Addr) (Registrar, error) {
			s.log.add("dnssd.new %s %s", name, addr)
			if err := s.fail["dnssd.new"]; err != nil {
				return nil, err
			}
			return &fakeRegistrar{stack: s}, nil
		},
		NewLogger: func(debug bool) (Logger, error) {
			s.log.add("logger.new %v", debug)
			if err := s.fail["logger.new"]; err != nil {
				return nil, err
			}
			return &fakeLogger{stack: s}, nil
		},
		NewVideoRenderer: func(l Logger, opts VideoOptions) (VideoRenderer, error) {
			s.log.add("video.new %s", opts.Sink)
			if err := s.fail["video.new"]; err != nil {
				return nil, err
			}
			v := &fakeVideo{stack: s, events: make(chan RenderEvent, 1)}
			s.mu.Lock()
			s.videos = append(s.videos, v)
			s.mu.Unlock()
			return v, nil
		},
		NewAudioRenderer: func(l Logger, opts AudioOptions) (AudioRenderer, error) {
			s.log.add("audio.new %s", opts.Sink)
			if err := s.fail["audio.new"]; err != nil {
				return nil, err
			}
			a := &fakeAudio{stack: s}
			s.mu.Lock()
			s.audios = append(s.audios, a)
			s.mu.Unlock()
			return a, nil
		},
	}
}

func (s *fakeStack) engine(i int) *fakeEngine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engines[i]
}

func (s *fakeStack) video(i int) *fakeVideo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videos[i]
}

func (s *fakeStack) audio(i int) *fakeAudio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audios[i]
}

type fakeEngine struct {
	stack    *fakeStack
	listener Listener

	display config.Display
	tcp     config.Ports
	udp     config.Ports
	debug   bool
}

func (e *fakeEngine) SetDisplay(d config.Display) {
	e.stack.log.add("engine.SetDisplay")
	e.display = d
}

func (e *fakeEngine) SetPorts(tcp, udp config.Ports) {
	e.stack.log.add("engine.SetPorts")
	e.tcp = tcp
	e.udp = udp
}

func (e *fakeEngine) SetDebug(debug bool) {
	e.stack.log.add("engine.SetDebug")
	e.debug = debug
}

func (e *fakeEngine) Start() (uint16, error) {
	e.stack.log.add("engine.Start")
	if err := e.stack.fail["engine.Start"]; err != nil {
		return 0, err
	}
	return e.stack.port, nil
}

func (e *fakeEngine) Destroy() { e.stack.log.add("engine.Destroy") }

type fakeRegistrar struct{ stack *fakeStack }

func (r *fakeRegistrar) RegisterRAOP(port uint16) error {
	r.stack.log.add("dnssd.RegisterRAOP %d", port)
	return r.stack.fail["dnssd.RegisterRAOP"]
}

func (r *fakeRegistrar) RegisterAirPlay(port uint16) error {
	r.stack.log.add("dnssd.RegisterAirPlay %d", port)
	return r.stack.fail["dnssd.RegisterAirPlay"]
}

func (r *fakeRegistrar) UnregisterRAOP()    { r.stack.log.add("dnssd.UnregisterRAOP") }
func (r *fakeRegistrar) UnregisterAirPlay() { r.stack.log.add("dnssd.UnregisterAirPlay") }
func (r *fakeRegistrar) Destroy()           { r.stack.log.add("dnssd.Destroy") }

type fakeLogger struct{ stack *fakeStack }

func (l *fakeLogger) Log(level logging.Level, msg string) {}

func (l *fakeLogger) Close() error {
	l.stack.log.add("logger.Close")
	return nil
}

type fakeVideo struct {
	stack  *fakeStack
	events chan RenderEvent

	mu         sync.Mutex
	foreground []bool
	frames     [][]byte
	flushes    int
}

func (v *fakeVideo) Start() error {
	v.stack.log.add("video.Start")
	return v.stack.fail["video.Start"]
}

func (v *fakeVideo) Render(ts uint64, payload []byte, kind FrameKind) {
	v.mu.Lock()
	v.frames = append(v.frames, payload)
	v.mu.Unlock()
}

func (v *fakeVideo) Flush() {
	v.mu.Lock()
	v.flushes++
	v.mu.Unlock()
}

func (v *fakeVideo) SetForeground(fg bool) {
	v.mu.Lock()
	v.foreground = append(v.foreground, fg)
	v.mu.Unlock()
}

func (v *fakeVideo) Events() <-chan RenderEvent { return v.events }
func (v *fakeVideo) Destroy()                   { v.stack.log.add("video.Destroy") }

type fakeAudio struct {
	stack *fakeStack

	mu      sync.Mutex
	frames  [][]byte
	flushes int
	volume  float32
}

func (a *fakeAudio) Start() error {
	a.stack.log.add("audio.Start")
	return a.stack.fail["audio.Start"]
}

func (a *fakeAudio) Render(ts uint64, payload []byte) {
	a.mu.Lock()
	a.frames = append(a.frames, payload)
	a.mu.Unlock()
}

func (a *fakeAudio) Flush() {
	a.mu.Lock()
	a.flushes++
	a.mu.Unlock()
}

func (a *fakeAudio) SetVolume(volume float32) {
	a.mu.Lock()
	a.volume = volume
	a.mu.Unlock()
}

func (a *fakeAudio) Destroy() { a.stack.log.add("audio.Destroy") }

// fakeSources hands out manually driven sources. The channels are unbuffered,
// so a send only completes once the event loop is listening.
type fakeSources struct {
	tick      chan time.Time
	interrupt chan os.Signal
	terminate chan os.Signal

	mu      sync.Mutex
	opened  int
	stopped int
	tickers int
}

func newFakeSources() *fakeSources {
	return &fakeSources{
		tick:      make(chan time.Time),
		interrupt: make(chan os.Signal),
		terminate: make(chan os.Signal),
	}
}

func (s *fakeSources) Ticker() (<-chan time.Time, func()) {
	s.mu.Lock()
	s.opened++
	s.tickers++
	s.mu.Unlock()
	return s.tick, s.stop
}

func (s *fakeSources) Notify(sig os.Signal) (<-chan os.Signal, func()) {
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()

	switch sig {
	case unix.SIGINT:
		return s.interrupt, s.stop
	case unix.SIGTERM:
		return s.terminate, s.stop
	default:
		panic("unexpected signal " + sig.String())
	}
}

func (s *fakeSources) stop() {
	s.mu.Lock()
	s.stopped++
	s.mu.Unlock()
}

// balanced returns true if every opened source has been stopped.
func (s *fakeSources) balanced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened == s.stopped
}

func sendTick(t *testing.T, src *fakeSources) {
	t.Helper()

	select {
	case src.tick <- time.Time{}:
	case <-time.After(2 * time.Second):
		t.Fatal("event loop is not listening to ticks")
	}
}

func sendSignal(t *testing.T, ch chan os.Signal, sig os.Signal) {
	t.Helper()

	select {
	case ch <- sig:
	case <-time.After(2 * time.Second):
		t.Fatalf("event loop is not listening to %v", sig)
	}
}

var errFake = errors.New("fake failure")

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Name = "test@box"
	cfg.HardwareAddress = hwaddr.Addr{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	cfg.TCP = config.Ports{7000, 7001, 7002}
	cfg.UDP = config.Ports{7000, 7001, 7002}
	return cfg
}
