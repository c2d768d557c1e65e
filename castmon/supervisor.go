package castmon

import (
	"context"

	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
)

// Supervisor runs a Server for the lifetime of the process, relaunching the
// whole stack with the same configuration whenever the event loop asks for
// it.
type Supervisor struct {
	Config     config.Config
	Subsystems Subsystems
	Journal    Journaler
	Log        *logging.Logger
	Sources    Sources
}

// Run starts the server and blocks until it stops without asking for a
// relaunch. A failing start is returned as a *SubsystemInitError and is never
// retried.
func (s *Supervisor) Run(ctx context.Context) error {
	j := s.Journal
	if j == nil {
		j = DiscardJournaler
	}
	log := s.Log
	if log == nil {
		log = logging.Discard()
	}
	src := s.Sources
	if src == nil {
		src = OSSources()
	}

	srv := NewServer(s.Subsystems, j, log)

	for attempt := 1; ; attempt++ {
		if err := srv.Start(s.Config); err != nil {
			j.Write(EventServerStopped{Reason: err.Error()})
			return err
		}

		reason, relaunch := srv.Run(ctx, src)
		srv.Stop()

		if !relaunch {
			log.Infof("Stopping...")
			j.Write(EventServerStopped{Reason: reason.String()})
			return nil
		}

		log.Infof("Re-launching server...")
		j.Write(EventServerRelaunch{
			Attempt: attempt + 1,
			Reason:  reason.String(),
		})
	}
}
