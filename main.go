package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/config"
	"git.unix.lgbt/diamondburned/castmon/castmon/dnssd"
	"git.unix.lgbt/diamondburned/castmon/castmon/engine"
	"git.unix.lgbt/diamondburned/castmon/castmon/hwaddr"
	"git.unix.lgbt/diamondburned/castmon/castmon/journal"
	"git.unix.lgbt/diamondburned/castmon/castmon/logging"
	"git.unix.lgbt/diamondburned/castmon/castmon/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// journalLockWait is how long to wait for another castmon to release the
// journal file.
const journalLockWait = 2 * time.Second

func main() {
	// Silence the Avahi compatibility layer warning, unless the user asked
	// for something else.
	if _, ok := os.LookupEnv("AVAHI_COMPAT_NOWARN"); !ok {
		os.Setenv("AVAHI_COMPAT_NOWARN", "1")
	}

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			config.Usage(os.Stdout, filepath.Base(os.Args[0]))
			return
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := start(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func humanJournal(w io.Writer, debug bool) castmon.Journaler {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return journal.NewHumanLogger(zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Str("component", "journal").
		Logger())
}

func start(cfg *config.Config) error {
	log := logging.New(os.Stderr, "castmon", cfg.Debug)
	defer log.Close()

	journalers := []castmon.Journaler{humanJournal(os.Stderr, cfg.Debug)}
	var prev *castmon.EventPreviousRun

	if cfg.JournalFile != "" {
		// A castmon that is being replaced may still hold the lock while it
		// tears down.
		ctx, cancel := context.WithTimeout(context.Background(), journalLockWait)
		fj, err := journal.NewFileLockJournalerWait(ctx, cfg.JournalFile)
		cancel()

		switch {
		case errors.Is(err, journal.ErrLockedElsewhere):
			// Non-fatal error.
			log.Warnf("journal %s is used by another castmon, not writing to it", cfg.JournalFile)
		case err != nil:
			return errors.Wrap(err, "failed to open journal")
		default:
			defer fj.Close()

			// Read before anything is written by this process.
			prev = previousRun(fj.Reader, cfg.JournalFile, log)
			journalers = append(journalers, fj)
		}
	}

	j := journal.MultiWriter(journalers...)
	if prev != nil {
		j.Write(*prev)
	}

	addr, random, err := hwaddr.NewResolver().Resolve(cfg.RandomHardwareAddress)
	if err != nil {
		return errors.Wrap(err, "failed to get a hardware address")
	}
	cfg.HardwareAddress = addr

	if random {
		log.Infof("using randomly-generated MAC address %s", addr)
		j.Write(castmon.EventRandomHardwareAddress{
			Address: addr.String(),
			Forced:  cfg.RandomHardwareAddress,
		})
	}

	sv := castmon.Supervisor{
		Config:     *cfg,
		Subsystems: subsystems(),
		Journal:    j,
		Log:        log,
		Sources:    castmon.OSSources(),
	}

	// Signals are watched by the event loop of each run, so the context is
	// never canceled.
	if err := sv.Run(context.Background()); err != nil {
		return errors.Wrap(err, "server failed")
	}

	return nil
}

// previousRun returns the last event of the journal, or nil if there is none.
// An unreadable journal tail is logged and skipped.
func previousRun(r *journal.Reader, path string, log *logging.Logger) *castmon.EventPreviousRun {
	prev, err := r.PreviousRun()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Warnf("failed to read the previous run from %s: %v", path, err)
		}
		return nil
	}
	return prev
}

func subsystems() castmon.Subsystems {
	return castmon.Subsystems{
		NewEngine: func(l castmon.Listener) (castmon.Engine, error) {
			return engine.New(l), nil
		},
		NewRegistrar: func(name string, addr hwaddr.Addr) (castmon.Registrar, error) {
			r, err := dnssd.New(name, addr)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		NewLogger: func(debug bool) (castmon.Logger, error) {
			return logging.New(os.Stderr, "render", debug), nil
		},
		NewVideoRenderer: func(l castmon.Logger, opts castmon.VideoOptions) (castmon.VideoRenderer, error) {
			v, err := render.NewVideo(l, opts)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		NewAudioRenderer: func(l castmon.Logger, opts castmon.AudioOptions) (castmon.AudioRenderer, error) {
			a, err := render.NewAudio(l, opts)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
	}
}
