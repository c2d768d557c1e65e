package exec

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// BufferProcess is a process that stores everything written to its standard
// input. It is used for testing. It exits with code 0 when its input is
// closed or when it is interrupted, and with -1 when killed.
type BufferProcess struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	writes int

	once  sync.Once
	stop  chan struct{}
	delay time.Duration

	pid  int
	exit int32
}

var _ Process = (*BufferProcess)(nil)

// NewBufferProcess creates a new buffer process. If delay is larger than 0,
// then the process waits for that delay before exiting on an interrupt,
// unless it is killed in the meantime.
func NewBufferProcess(delay time.Duration, pid int) *BufferProcess {
	return &BufferProcess{
		stop:  make(chan struct{}),
		delay: delay,
		pid:   pid,
		exit:  -2,
	}
}

func (mock *BufferProcess) PID() int { return mock.pid }

// Stdin returns a writer into the process' buffer.
func (mock *BufferProcess) Stdin() io.WriteCloser { return bufferStdin{mock} }

// Bytes returns a copy of everything written so far.
func (mock *BufferProcess) Bytes() []byte {
	mock.mu.Lock()
	defer mock.mu.Unlock()

	return append([]byte(nil), mock.buf.Bytes()...)
}

// Writes returns the number of Write calls that reached the buffer.
func (mock *BufferProcess) Writes() int {
	mock.mu.Lock()
	defer mock.mu.Unlock()

	return mock.writes
}

// Exit makes the process exit on its own with the given code.
func (mock *BufferProcess) Exit(code int) {
	mock.exitWith(int32(code))
}

func (mock *BufferProcess) Signal(sig os.Signal) error {
	var status int32

	switch sig {
	case os.Interrupt, unix.SIGTERM: // catchable
		status = 0
	case os.Kill:
		status = -1
	default:
		return errors.New("unknown signal")
	}

	go func() {
		if mock.delay > 0 && sig != os.Kill {
			select {
			case <-time.After(mock.delay):

			case <-mock.stop:
				return
			}
		}

		mock.exitWith(status)
	}()

	return nil
}

func (mock *BufferProcess) Kill() error {
	return mock.Signal(os.Kill)
}

func (mock *BufferProcess) Wait() ExitStatus {
	<-mock.stop

	return ExitStatus{
		PID:  mock.pid,
		Code: int(atomic.LoadInt32(&mock.exit)),
	}
}

// Exited returns true once the process has exited.
func (mock *BufferProcess) Exited() bool {
	select {
	case <-mock.stop:
		return true
	default:
		return false
	}
}

func (mock *BufferProcess) exitWith(status int32) {
	// Ensure exit is still unset (-2), otherwise bail.
	if !atomic.CompareAndSwapInt32(&mock.exit, -2, status) {
		return
	}

	mock.once.Do(func() { close(mock.stop) })
}

type bufferStdin struct{ mock *BufferProcess }

func (in bufferStdin) Write(b []byte) (int, error) {
	if in.mock.Exited() {
		return 0, io.ErrClosedPipe
	}

	in.mock.mu.Lock()
	defer in.mock.mu.Unlock()

	in.mock.writes++
	return in.mock.buf.Write(b)
}

// Close closes the input, which makes the process reach its end of stream.
func (in bufferStdin) Close() error {
	in.mock.exitWith(0)
	return nil
}
