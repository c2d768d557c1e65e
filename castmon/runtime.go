package castmon

import "sync"

// runtime is the state of one run of the server. A new runtime is created by
// every Start and dropped by Stop.
type runtime struct {
	// mu guards the subsystem handles. The Server is the only writer; the
	// bridge only reads them to forward data.
	mu        sync.RWMutex
	engine    Engine
	registrar Registrar
	video     VideoRenderer
	audio     AudioRenderer
	logger    Logger

	// cmu guards the connection accounting, which is shared between the
	// bridge and the watchdog.
	cmu       sync.Mutex
	open      int
	idle      uint32
	idleWatch bool

	// relaunch is only touched by the event loop goroutine.
	relaunch bool
}

func newRuntime() *runtime {
	return &runtime{idleWatch: true}
}

func (rt *runtime) videoRenderer() VideoRenderer {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.video
}

func (rt *runtime) audioRenderer() AudioRenderer {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.audio
}

// openConnections returns the number of connected clients.
func (rt *runtime) openConnections() int {
	rt.cmu.Lock()
	defer rt.cmu.Unlock()
	return rt.open
}

// idleSeconds returns the number of ticks seen without a connection.
func (rt *runtime) idleSeconds() uint32 {
	rt.cmu.Lock()
	defer rt.cmu.Unlock()
	return rt.idle
}

// connOpened records a new connection and returns the open count.
func (rt *runtime) connOpened() int {
	rt.cmu.Lock()
	defer rt.cmu.Unlock()

	rt.open++
	rt.idle = 0
	rt.idleWatch = false
	return rt.open
}

// connClosed records a closed connection and returns the open count. The
// count never goes below zero.
func (rt *runtime) connClosed() int {
	rt.cmu.Lock()
	defer rt.cmu.Unlock()

	if rt.open > 0 {
		rt.open--
	}
	if rt.open == 0 {
		rt.idleWatch = true
	}
	return rt.open
}

// tick advances the idle watchdog by one second. It returns true once the
// number of seconds without any connection reaches timeout.
func (rt *runtime) tick(timeout uint32) bool {
	rt.cmu.Lock()
	defer rt.cmu.Unlock()

	if rt.open > 0 || !rt.idleWatch {
		rt.idle = 0
		return false
	}

	rt.idle++
	return timeout > 0 && rt.idle >= timeout
}
