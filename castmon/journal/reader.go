package journal

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"git.unix.lgbt/diamondburned/castmon/castmon"
	"git.unix.lgbt/diamondburned/castmon/castmon/journal/backwardio"
	"github.com/pkg/errors"
)

// Reader implements a primitive reader that parses journals written by Writer
// from the bottom to the top, so the newest event is read first.
type Reader struct {
	s *backwardio.Scanner
}

// NewReader creates a new journal reader.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{backwardio.NewScanner(r)}
}

// Read reads a single entry, starting from the bottom of the file. Blank lines
// are skipped. An EOF error is returned if the file has been fully consumed.
func (r *Reader) Read() (castmon.Event, time.Time, error) {
	var line []byte
	var err error

	for {
		line, err = r.s.ReadUntil('\n')
		if err != nil {
			return nil, time.Time{}, err
		}
		if len(line) > 0 {
			break
		}
	}

	var rawEvent struct {
		Time time.Time       `json:"time"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(line, &rawEvent); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode JSON")
	}

	event := castmon.NewEvent(rawEvent.Type)
	if event == nil {
		return nil, time.Time{}, errors.Errorf("unknown event %q", rawEvent.Type)
	}

	if err := json.Unmarshal(rawEvent.Data, event); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode event data")
	}

	return event, rawEvent.Time, nil
}

// PreviousRun reads the last event of the journal and describes it as an
// EventPreviousRun. An empty journal results in io.EOF.
func (r *Reader) PreviousRun() (*castmon.EventPreviousRun, error) {
	ev, t, err := r.Read()
	if err != nil {
		return nil, err
	}

	return &castmon.EventPreviousRun{
		LastType: ev.Type(),
		LastTime: t.Format(time.RFC3339),
	}, nil
}

// ReadPreviousRunFromFile reads the last event journaled into the file at the
// given path.
func ReadPreviousRunFromFile(path string) (*castmon.EventPreviousRun, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewReader(f).PreviousRun()
}
