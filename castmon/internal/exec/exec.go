// Package exec provides an abstraction around package os' Process
// implementation for easier testing. Processes started here are fed through
// a pipe on their standard input.
package exec

import (
	"io"
	"os"
	osexec "os/exec"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Process describes a command process.
type Process interface {
	PID() int
	// Stdin returns the write end of the process' standard input. Closing it
	// sends EOF to the process.
	Stdin() io.WriteCloser
	Signal(os.Signal) error
	Kill() error
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	PID   int
	Code  int // -1 for killed
	Error error
}

// Starter starts a process from the given argv.
type Starter func(argv []string) (Process, error)

type process struct {
	*os.Process
	stdin *os.File
}

var _ Process = process{}

// LookPath finds the absolute path of the given executable in $PATH.
func LookPath(file string) (string, error) {
	return osexec.LookPath(file)
}

// StartProcess creates a new command process on the system. argv[0] must be a
// path; see LookPath. The process' output goes to stderr, or is discarded if
// stderr is nil.
func StartProcess(argv []string, stderr *os.File) (Process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty argv")
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create stdin pipe")
	}
	defer r.Close()

	if stderr == nil {
		null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			w.Close()
			return nil, errors.Wrap(err, "failed to open null device")
		}
		defer null.Close()

		stderr = null
	}

	p, err := os.StartProcess(argv[0], argv, &os.ProcAttr{
		Files: []*os.File{r, stderr, stderr},
		// Linux-only: the child dies with us.
		Sys: &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM},
	})
	if err != nil {
		w.Close()
		return nil, err
	}

	return process{p, w}, nil
}

func (proc process) PID() int {
	return proc.Pid
}

func (proc process) Stdin() io.WriteCloser {
	return proc.stdin
}

// Wait waits for the process to exit and closes its standard input.
func (proc process) Wait() ExitStatus {
	s, err := proc.Process.Wait()
	proc.stdin.Close()

	status := ExitStatus{
		PID:   proc.Pid,
		Code:  -1,
		Error: err,
	}
	if s != nil {
		status.Code = s.ExitCode()
	}

	return status
}
