// Package engine provides the protocol engine boundary of castmon: it owns the
// listening socket and reports every client connection to a castmon.Listener.
// Streaming protocol handling is not part of this engine; bytes received from
// clients are read and discarded.
package engine

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
)

// Engine accepts TCP connections on the first TCP port.
type Engine struct {
	// Host is the address to listen on. An empty host listens on every
	// interface.
	Host string

	l castmon.Listener

	display config.Display
	tcp     config.Ports
	udp     config.Ports
	debug   bool

	mu     sync.Mutex
	ln     net.Listener
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

var _ castmon.Engine = (*Engine)(nil)

// New creates a stopped engine reporting to l.
func New(l castmon.Listener) *Engine {
	return &Engine{
		l:     l,
		conns: make(map[net.Conn]struct{}),
	}
}

func (e *Engine) SetDisplay(d config.Display) { e.display = d }

func (e *Engine) SetPorts(tcp, udp config.Ports) {
	e.tcp = tcp
	e.udp = udp
}

func (e *Engine) SetDebug(debug bool) { e.debug = debug }

func (e *Engine) debugf(f string, v ...interface{}) {
	if e.debug {
		e.l.Log(logging.LevelDebug, fmt.Sprintf(f, v...))
	}
}

// Start binds the first TCP port, or a dynamic port if it is 0, and returns
// the bound port.
func (e *Engine) Start() (uint16, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, errors.New("engine destroyed")
	}
	if e.ln != nil {
		return 0, errors.New("engine already started")
	}

	addr := net.JoinHostPort(e.Host, strconv.Itoa(int(e.tcp[0])))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to listen on %s", addr)
	}

	port := uint16(ln.Addr().(*net.TCPAddr).Port)
	e.ln = ln

	e.debugf("listening on port %d for %dx%d@%d, max %d fps",
		port, e.display.Width, e.display.Height, e.display.RefreshRate, e.display.MaxFPS)

	e.wg.Add(1)
	go e.accept(ln)

	return port, nil
}

func (e *Engine) accept(ln net.Listener) {
	defer e.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			e.mu.Lock()
			closed := e.closed
			e.mu.Unlock()

			if !closed {
				e.l.Log(logging.LevelError, fmt.Sprintf("accept failed: %v", err))
			}
			return
		}

		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			conn.Close()
			return
		}
		e.conns[conn] = struct{}{}
		e.wg.Add(1)
		e.mu.Unlock()

		go e.serve(conn)
	}
}

func (e *Engine) serve(conn net.Conn) {
	defer e.wg.Done()

	e.debugf("connection from %s", conn.RemoteAddr())
	e.l.ConnectionOpened()

	io.Copy(io.Discard, conn)
	conn.Close()

	e.mu.Lock()
	delete(e.conns, conn)
	e.mu.Unlock()

	e.l.ConnectionClosed()
	e.debugf("connection from %s closed", conn.RemoteAddr())
}

// Destroy closes the listener and every connection, then waits for all
// connection callbacks to return.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true

	if e.ln != nil {
		e.ln.Close()
	}
	for conn := range e.conns {
		conn.Close()
	}
	e.mu.Unlock()

	e.wg.Wait()
}
