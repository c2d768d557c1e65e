package render

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/internal/exec"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
)

// QueueSize is the number of frames buffered ahead of a pipeline. Frames
// arriving while the queue is full are dropped.
var QueueSize = 64

// StopTimeout is the time to wait for a pipeline to gracefully exit until
// forcefully killing it.
var StopTimeout = 5 * time.Second

// sink feeds frames into a pipeline process and reports when that process
// exits on its own.
type sink struct {
	name        string
	log         castmon.Logger
	start       exec.Starter
	stopTimeout time.Duration

	frames chan []byte
	events chan castmon.RenderEvent
	quit   chan struct{}
	dead   chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	proc     exec.Process
	stopping bool

	dropped uint64
}

func newSink(name string, log castmon.Logger, start exec.Starter) *sink {
	return &sink{
		name:        name,
		log:         log,
		start:       start,
		stopTimeout: StopTimeout,

		frames: make(chan []byte, QueueSize),
		events: make(chan castmon.RenderEvent, 1),
		quit:   make(chan struct{}),
		dead:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *sink) logf(level logging.Level, f string, v ...interface{}) {
	s.log.Log(level, fmt.Sprintf("%s renderer: ", s.name)+fmt.Sprintf(f, v...))
}

// run starts the pipeline process with the given argv.
func (s *sink) run(argv []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return errors.New("renderer destroyed")
	}
	if s.proc != nil {
		return errors.New("renderer already started")
	}

	proc, err := s.start(argv)
	if err != nil {
		return errors.Wrapf(err, "failed to start %s pipeline", s.name)
	}

	s.proc = proc
	s.logf(logging.LevelDebug, "pipeline started with PID %d", proc.PID())

	go s.write(proc)
	go s.wait(proc)

	return nil
}

// push queues a frame without blocking.
func (s *sink) push(frame []byte) {
	select {
	case s.frames <- frame:
	default:
		if n := atomic.AddUint64(&s.dropped, 1); n%100 == 1 {
			s.logf(logging.LevelDebug, "queue full, %d frames dropped so far", n)
		}
	}
}

// flush drops every queued frame.
func (s *sink) flush() {
	for {
		select {
		case <-s.frames:
		default:
			return
		}
	}
}

func (s *sink) write(proc exec.Process) {
	defer close(s.done)

	stdin := proc.Stdin()

	for {
		select {
		case <-s.quit:
			return
		case <-s.dead:
			return
		case frame := <-s.frames:
			if _, err := stdin.Write(frame); err != nil {
				// The pipeline is gone; wait reports why.
				s.logf(logging.LevelDebug, "failed to write frame: %v", err)
				return
			}
		}
	}
}

func (s *sink) wait(proc exec.Process) {
	status := proc.Wait()
	close(s.dead)

	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()

	if stopping {
		return
	}

	ev := castmon.RenderEvent{Renderer: s.name + " renderer"}

	switch {
	case status.Error != nil:
		ev.Err = status.Error
	case status.Code != 0:
		ev.Err = errors.Errorf("pipeline exited with code %d", status.Code)
	}

	select {
	case s.events <- ev:
	default:
	}
}

// destroy stops the pipeline. It interrupts the process and kills it if it
// has not exited after the stop timeout.
func (s *sink) destroy() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	proc := s.proc
	s.mu.Unlock()

	close(s.quit)

	if proc == nil {
		return
	}

	if err := proc.Signal(os.Interrupt); err != nil {
		proc.Kill()
	}

	after := time.NewTimer(s.stopTimeout)
	defer after.Stop()

	select {
	case <-s.dead:
	case <-after.C:
		s.logf(logging.LevelWarning, "timed out waiting for pipeline to exit, killing")
		proc.Kill()
		<-s.dead
	}

	<-s.done
	s.logf(logging.LevelDebug, "pipeline stopped")
}
