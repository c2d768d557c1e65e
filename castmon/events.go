package castmon

// eventType describes an event type.
type eventType = string

const (
	eventWarning            eventType = "warning"
	eventRandomHardwareAddr eventType = "random hardware address"
	eventServerStarting     eventType = "server starting"
	eventServerStarted      eventType = "server started"
	eventSubsystemInitError eventType = "subsystem init error"
	eventServerStopped      eventType = "server stopped"
	eventServerRelaunch     eventType = "server relaunch"
	eventConnectionOpened   eventType = "connection opened"
	eventConnectionClosed   eventType = "connection closed"
	eventAudioFormat        eventType = "audio format"
	eventLoopExited         eventType = "loop exited"
	eventPreviousRun        eventType = "previous run"
	eventSubsystemsTornDown eventType = "subsystems torn down"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used primarily
// for decoding events from its type. Nil is returned if the event type is
// unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventRandomHardwareAddr:
		return &EventRandomHardwareAddress{}
	case eventServerStarting:
		return &EventServerStarting{}
	case eventServerStarted:
		return &EventServerStarted{}
	case eventSubsystemInitError:
		return &EventSubsystemInitError{}
	case eventServerStopped:
		return &EventServerStopped{}
	case eventServerRelaunch:
		return &EventServerRelaunch{}
	case eventConnectionOpened:
		return &EventConnectionOpened{}
	case eventConnectionClosed:
		return &EventConnectionClosed{}
	case eventAudioFormat:
		return &EventAudioFormat{}
	case eventLoopExited:
		return &EventLoopExited{}
	case eventPreviousRun:
		return &EventPreviousRun{}
	case eventSubsystemsTornDown:
		return &EventSubsystemsTornDown{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev EventWarning) Type() string { return eventWarning }
func (ev EventWarning) event()       {}

// EventRandomHardwareAddress is emitted when no interface address could be
// probed, or -m was given, and a random address is used instead.
type EventRandomHardwareAddress struct {
	Address string `json:"address"`
	Forced  bool   `json:"forced"`
}

func (ev EventRandomHardwareAddress) Type() string { return eventRandomHardwareAddr }
func (ev EventRandomHardwareAddress) event()       {}

// EventServerStarting is emitted before the subsystems are initialized.
type EventServerStarting struct {
	Name            string    `json:"name"`
	HardwareAddress string    `json:"hardware_address"`
	TCP             [3]uint16 `json:"tcp"`
	UDP             [3]uint16 `json:"udp"`
}

func (ev EventServerStarting) Type() string { return eventServerStarting }
func (ev EventServerStarting) event()       {}

// EventServerStarted is emitted once every subsystem is running and the
// service is registered.
type EventServerStarted struct {
	Port          uint16 `json:"port"`
	CompanionPort uint16 `json:"companion_port"`
	Video         bool   `json:"video"`
	Audio         bool   `json:"audio"`
}

func (ev EventServerStarted) Type() string { return eventServerStarted }
func (ev EventServerStarted) event()       {}

// EventSubsystemInitError is emitted when a subsystem fails to initialize. The
// server does not start and is not relaunched.
type EventSubsystemInitError struct {
	Subsystem string `json:"subsystem"`
	Error     string `json:"error"`
}

func (ev EventSubsystemInitError) Type() string { return eventSubsystemInitError }
func (ev EventSubsystemInitError) event()       {}

// EventServerStopped is emitted when the process is about to exit.
type EventServerStopped struct {
	Reason string `json:"reason"`
}

func (ev EventServerStopped) Type() string { return eventServerStopped }
func (ev EventServerStopped) event()       {}

// EventServerRelaunch is emitted when the stack is torn down to be started
// again with the same configuration.
type EventServerRelaunch struct {
	Attempt int    `json:"attempt"`
	Reason  string `json:"reason"`
}

func (ev EventServerRelaunch) Type() string { return eventServerRelaunch }
func (ev EventServerRelaunch) event()       {}

// EventConnectionOpened is emitted when a client connects.
type EventConnectionOpened struct {
	Open int `json:"open"`
}

func (ev EventConnectionOpened) Type() string { return eventConnectionOpened }
func (ev EventConnectionOpened) event()       {}

// EventConnectionClosed is emitted when a client disconnects.
type EventConnectionClosed struct {
	Open int `json:"open"`
}

func (ev EventConnectionClosed) Type() string { return eventConnectionClosed }
func (ev EventConnectionClosed) event()       {}

// EventAudioFormat is emitted when a client negotiates its audio format.
type EventAudioFormat struct {
	Code   uint32 `json:"code"`
	Format string `json:"format"`
}

func (ev EventAudioFormat) Type() string { return eventAudioFormat }
func (ev EventAudioFormat) event()       {}

// EventLoopExited is emitted when the event loop of a run stops.
type EventLoopExited struct {
	Reason   string `json:"reason"`
	Relaunch bool   `json:"relaunch"`
}

func (ev EventLoopExited) Type() string { return eventLoopExited }
func (ev EventLoopExited) event()       {}

// EventPreviousRun is emitted on startup with the last event journaled by the
// previous process, if any.
type EventPreviousRun struct {
	LastType string `json:"last_type"`
	LastTime string `json:"last_time"`
}

func (ev EventPreviousRun) Type() string { return eventPreviousRun }
func (ev EventPreviousRun) event()       {}

// EventSubsystemsTornDown is emitted after Stop destroyed a running stack.
type EventSubsystemsTornDown struct{}

func (ev EventSubsystemsTornDown) Type() string { return eventSubsystemsTornDown }
func (ev EventSubsystemsTornDown) event()       {}
