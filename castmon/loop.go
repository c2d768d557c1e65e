package castmon

import (
	"context"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
)

// ExitReason describes why the event loop of a run stopped.
type ExitReason uint8

const (
	ExitIdleTimeout ExitReason = iota + 1
	ExitInterrupt
	ExitTerminate
	ExitRenderer
	ExitCanceled
)

func (r ExitReason) String() string {
	switch r {
	case ExitIdleTimeout:
		return "idle timeout"
	case ExitInterrupt:
		return "interrupt"
	case ExitTerminate:
		return "terminate"
	case ExitRenderer:
		return "renderer stopped"
	case ExitCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sources opens the event sources listened to by one run of the event loop.
// Every returned stop function deregisters its source.
type Sources interface {
	// Ticker returns a channel that fires once per second.
	Ticker() (<-chan time.Time, func())
	// Notify returns a channel that receives the given signal.
	Notify(sig os.Signal) (<-chan os.Signal, func())
}

type osSources struct{}

// OSSources returns the sources backed by a real ticker and real signals.
func OSSources() Sources { return osSources{} }

func (osSources) Ticker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

func (osSources) Notify(sig os.Signal) (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sig)
	return ch, func() { signal.Stop(ch) }
}

// Run runs the event loop of the started server until the idle timeout
// passes, a signal arrives, the video renderer stops or ctx is canceled. It
// returns why the loop stopped and whether the server should be relaunched.
func (srv *Server) Run(ctx context.Context, src Sources) (ExitReason, bool) {
	rt := srv.rt
	if rt == nil {
		return ExitCanceled, false
	}

	var tick <-chan time.Time
	if srv.cfg.IdleTimeout > 0 {
		t, stop := src.Ticker()
		defer stop()
		tick = t
	}

	var renderEvents <-chan RenderEvent
	if v := rt.videoRenderer(); v != nil {
		renderEvents = v.Events()
	}

	// SIGINT and SIGTERM currently do the same thing, but they are kept as
	// separate sources so that they can diverge.
	interrupt, stopInterrupt := src.Notify(unix.SIGINT)
	defer stopInterrupt()

	terminate, stopTerminate := src.Notify(unix.SIGTERM)
	defer stopTerminate()

	rt.relaunch = true
	reason := srv.loop(ctx, rt, tick, interrupt, terminate, renderEvents)

	srv.j.Write(EventLoopExited{
		Reason:   reason.String(),
		Relaunch: rt.relaunch,
	})

	return reason, rt.relaunch
}

func (srv *Server) loop(
	ctx context.Context, rt *runtime,
	tick <-chan time.Time, interrupt, terminate <-chan os.Signal, render <-chan RenderEvent) ExitReason {

	timeout := srv.cfg.IdleTimeout

	for {
		select {
		case <-ctx.Done():
			rt.relaunch = false
			return ExitCanceled

		case <-tick:
			if rt.tick(timeout) {
				srv.log.Infof("no connections for %d seconds: relaunch server", timeout)
				rt.relaunch = true
				return ExitIdleTimeout
			}

		case <-interrupt:
			rt.relaunch = false
			return ExitInterrupt

		case <-terminate:
			rt.relaunch = false
			return ExitTerminate

		case ev := <-render:
			if ev.Err != nil {
				srv.log.Errorf("%s stopped: %v", ev.Renderer, ev.Err)
			} else {
				srv.log.Infof("%s reached end of stream", ev.Renderer)
			}
			return ExitRenderer
		}
	}
}
