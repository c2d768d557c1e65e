package journal

import (
	"encoding/json"
	"io"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// HumanWriter is a journaler that writes events as human-readable log lines,
// one per event, with the event data as key-value fields.
type HumanWriter struct {
	log zerolog.Logger
}

var _ castmon.Journaler = (*HumanWriter)(nil)

// NewHumanWriter creates a journaler that prints to w without colors.
func NewHumanWriter(w io.Writer) *HumanWriter {
	return NewHumanLogger(zerolog.New(zerolog.ConsoleWriter{
		Out:     w,
		NoColor: true,
	}).With().Timestamp().Logger())
}

// NewHumanLogger creates a journaler that writes into the given logger.
func NewHumanLogger(log zerolog.Logger) *HumanWriter {
	return &HumanWriter{log}
}

// Write logs the event. Warnings and failures are logged at a higher level
// than the rest.
func (w *HumanWriter) Write(ev castmon.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return errors.Wrap(err, "failed to decode event fields")
	}

	w.log.WithLevel(eventLevel(ev)).Fields(fields).Msg(ev.Type())
	return nil
}

func eventLevel(ev castmon.Event) zerolog.Level {
	switch ev.(type) {
	case castmon.EventSubsystemInitError, *castmon.EventSubsystemInitError:
		return zerolog.ErrorLevel
	case castmon.EventWarning, *castmon.EventWarning,
		castmon.EventRandomHardwareAddress, *castmon.EventRandomHardwareAddress:
		return zerolog.WarnLevel
	case castmon.EventConnectionOpened, *castmon.EventConnectionOpened,
		castmon.EventConnectionClosed, *castmon.EventConnectionClosed:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
