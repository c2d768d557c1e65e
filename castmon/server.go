package castmon

import (
	"fmt"

	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"github.com/pkg/errors"
)

// SubsystemInitError is returned by Start when a subsystem fails to
// initialize. Everything created before the failure has been torn down.
type SubsystemInitError struct {
	Subsystem string
	Err       error
}

func (err *SubsystemInitError) Error() string {
	return fmt.Sprintf("could not init %s: %v", err.Subsystem, err.Err)
}

// Cause returns the underlying error for github.com/pkg/errors.
func (err *SubsystemInitError) Cause() error { return err.Err }

// Unwrap returns the underlying error.
func (err *SubsystemInitError) Unwrap() error { return err.Err }

// Subsystem names used in SubsystemInitError.
const (
	SubsystemEngine    = "protocol engine"
	SubsystemLogger    = "render logger"
	SubsystemVideo     = "video renderer"
	SubsystemAudio     = "audio renderer"
	SubsystemRegistrar = "dnssd"
)

// CompanionPort returns the port of the AirPlay record registered next to the
// RAOP record on bound. An explicit third TCP port wins; otherwise the port
// after bound is used, or the one before it if bound is the highest port.
func CompanionPort(bound, explicit uint16) uint16 {
	if explicit != 0 {
		return explicit
	}
	if bound == config.HighestPort {
		return bound - 1
	}
	return bound + 1
}

// Server owns the subsystems of one receiver. It is not safe for concurrent
// use: Start, Run and Stop must be called from the same goroutine.
type Server struct {
	subs Subsystems
	j    Journaler
	log  *logging.Logger

	cfg config.Config
	rt  *runtime
}

// NewServer creates a stopped server.
func NewServer(subs Subsystems, j Journaler, log *logging.Logger) *Server {
	return &Server{
		subs: subs,
		j:    j,
		log:  log,
	}
}

// Running returns true if the server has been started and not stopped yet.
func (srv *Server) Running() bool {
	return srv.rt != nil
}

// Start initializes every subsystem in order. On the first failure, the
// subsystems created so far are destroyed and a *SubsystemInitError is
// returned.
func (srv *Server) Start(cfg config.Config) error {
	if srv.rt != nil {
		return errors.New("server already started")
	}

	rt := newRuntime()
	srv.rt = rt
	srv.cfg = cfg

	srv.j.Write(EventServerStarting{
		Name:            cfg.Name,
		HardwareAddress: cfg.HardwareAddress.String(),
		TCP:             cfg.TCP,
		UDP:             cfg.UDP,
	})

	fail := func(subsystem string, err error) error {
		srv.log.Errorf("could not init %s: %v", subsystem, err)
		srv.j.Write(EventSubsystemInitError{
			Subsystem: subsystem,
			Error:     err.Error(),
		})

		srv.Stop()
		return &SubsystemInitError{subsystem, err}
	}

	engine, err := srv.subs.NewEngine(&bridge{
		rt:  rt,
		j:   srv.j,
		log: srv.log.With("engine"),
	})
	if err != nil {
		return fail(SubsystemEngine, err)
	}
	rt.mu.Lock()
	rt.engine = engine
	rt.mu.Unlock()

	// Ports listed as 0 are assigned dynamically by the engine.
	engine.SetDisplay(cfg.EffectiveDisplay())
	engine.SetPorts(cfg.TCP, cfg.UDP)
	engine.SetDebug(cfg.Debug)

	logger, err := srv.subs.NewLogger(cfg.Debug)
	if err != nil {
		return fail(SubsystemLogger, err)
	}
	rt.mu.Lock()
	rt.logger = logger
	rt.mu.Unlock()

	if cfg.UseVideo() {
		video, err := srv.subs.NewVideoRenderer(logger, VideoOptions{
			Name:   cfg.Name,
			Flip:   cfg.Flip,
			Rotate: cfg.Rotate,
			Sink:   cfg.VideoSink,
		})
		if err != nil {
			return fail(SubsystemVideo, err)
		}
		rt.mu.Lock()
		rt.video = video
		rt.mu.Unlock()
	} else {
		srv.log.Infof("Video disabled")
	}

	if cfg.AudioEnabled() {
		audio, err := srv.subs.NewAudioRenderer(logger, AudioOptions{
			Sink: cfg.AudioSink,
		})
		if err != nil {
			return fail(SubsystemAudio, err)
		}
		rt.mu.Lock()
		rt.audio = audio
		rt.mu.Unlock()
	} else {
		srv.log.Infof("Audio disabled")
	}

	if rt.video != nil {
		if err := rt.video.Start(); err != nil {
			return fail(SubsystemVideo, errors.Wrap(err, "failed to start"))
		}
	}
	if rt.audio != nil {
		if err := rt.audio.Start(); err != nil {
			return fail(SubsystemAudio, errors.Wrap(err, "failed to start"))
		}
	}

	port, err := engine.Start()
	if err != nil {
		return fail(SubsystemEngine, errors.Wrap(err, "failed to bind"))
	}

	registrar, err := srv.subs.NewRegistrar(cfg.Name, cfg.HardwareAddress)
	if err != nil {
		return fail(SubsystemRegistrar, err)
	}
	rt.mu.Lock()
	rt.registrar = registrar
	rt.mu.Unlock()

	if err := registrar.RegisterRAOP(port); err != nil {
		return fail(SubsystemRegistrar, errors.Wrap(err, "failed to register raop"))
	}

	companion := CompanionPort(port, cfg.TCP[2])
	if err := registrar.RegisterAirPlay(companion); err != nil {
		return fail(SubsystemRegistrar, errors.Wrap(err, "failed to register airplay"))
	}

	srv.log.Infof("server %q started on port %d (airplay %d)", cfg.Name, port, companion)
	srv.j.Write(EventServerStarted{
		Port:          port,
		CompanionPort: companion,
		Video:         rt.video != nil,
		Audio:         rt.audio != nil,
	})

	return nil
}

// Stop destroys every subsystem that exists. It is a no-op on a stopped
// server, so it is safe to call any number of times.
func (srv *Server) Stop() {
	rt := srv.rt
	if rt == nil {
		return
	}
	srv.rt = nil

	// The engine goes first so that no callback races the teardown of the
	// renderers. The lock is not held while it is destroyed, since its
	// in-flight callbacks may still need to read the handles.
	rt.mu.RLock()
	engine := rt.engine
	rt.mu.RUnlock()

	if engine != nil {
		engine.Destroy()
	}

	rt.mu.Lock()
	registrar := rt.registrar
	audio := rt.audio
	video := rt.video
	logger := rt.logger
	rt.engine = nil
	rt.registrar = nil
	rt.audio = nil
	rt.video = nil
	rt.logger = nil
	rt.mu.Unlock()

	if registrar != nil {
		registrar.UnregisterRAOP()
		registrar.UnregisterAirPlay()
		registrar.Destroy()
	}
	if audio != nil {
		audio.Destroy()
	}
	if video != nil {
		video.Destroy()
	}
	if logger != nil {
		if err := logger.Close(); err != nil {
			srv.j.Write(EventWarning{
				Component: SubsystemLogger,
				Error:     err.Error(),
			})
		}
	}

	srv.j.Write(EventSubsystemsTornDown{})
}
