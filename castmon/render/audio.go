package render

import (
	"math"
	"sync"
	"sync/atomic"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/internal/exec"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
)

// Audio renders audio frames into an audio sink.
//
// gst-launch pipelines cannot be changed once they run, so a volume change
// replaces the running pipeline with one built for the new volume.
type Audio struct {
	log   castmon.Logger
	start exec.Starter
	opts  castmon.AudioOptions

	volume uint64 // float64 bits, linear

	mu      sync.Mutex
	sink    *sink
	started bool
	closed  bool
}

var _ castmon.AudioRenderer = (*Audio)(nil)

// NewAudio creates an audio renderer. It fails if the launcher cannot be
// found. The pipeline is not started until Start is called.
func NewAudio(log castmon.Logger, opts castmon.AudioOptions) (*Audio, error) {
	start, err := lookupStarter()
	if err != nil {
		return nil, err
	}
	return newAudio(log, opts, start), nil
}

func newAudio(log castmon.Logger, opts castmon.AudioOptions, start exec.Starter) *Audio {
	return &Audio{
		log:    log,
		start:  start,
		opts:   opts,
		volume: math.Float64bits(1),
		sink:   newSink("audio", log, start),
	}
}

func (a *Audio) current() *sink {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sink
}

// Start starts the pipeline at the current volume.
func (a *Audio) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return errors.New("renderer destroyed")
	}
	if a.started {
		return errors.New("renderer already started")
	}

	if err := a.sink.run(audioPipeline(a.opts, a.Volume())); err != nil {
		return err
	}

	a.started = true
	return nil
}

// Render queues a frame.
func (a *Audio) Render(ts uint64, payload []byte) {
	a.current().push(payload)
}

// Flush drops the queued frames.
func (a *Audio) Flush() {
	a.current().flush()
}

// SetVolume sets the volume from a client volume in decibels. A running
// pipeline is restarted if the linear volume changed.
func (a *Audio) SetVolume(db float32) {
	linear := LinearVolume(db)
	bits := math.Float64bits(linear)

	if atomic.SwapUint64(&a.volume, bits) == bits {
		return
	}

	a.current().logf(logging.LevelDebug, "volume %.2f dB (%.3f)", db, linear)

	a.mu.Lock()
	if !a.started || a.closed {
		a.mu.Unlock()
		return
	}

	old := a.sink
	a.sink = newSink("audio", a.log, a.start)
	a.sink.stopTimeout = old.stopTimeout
	next := a.sink
	a.mu.Unlock()

	old.destroy()

	// Another SetVolume or Destroy may have replaced next meanwhile, in which
	// case run fails and the newer sink wins.
	if err := next.run(audioPipeline(a.opts, a.Volume())); err != nil {
		next.logf(logging.LevelDebug, "pipeline not restarted: %v", err)
	}
}

// Volume returns the current linear volume.
func (a *Audio) Volume() float64 {
	return math.Float64frombits(atomic.LoadUint64(&a.volume))
}

// Destroy stops the pipeline.
func (a *Audio) Destroy() {
	a.mu.Lock()
	a.closed = true
	s := a.sink
	a.mu.Unlock()

	s.destroy()
}
