// Package backwardio implements a scanner that reads delimited tokens from the
// end of a seekable stream towards its start.
package backwardio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// maxTok is the longest token the scanner will buffer.
var maxTok = bufio.MaxScanTokenSize

// Scanner reads tokens backwards. The zero value is not usable; use
// NewScanner.
type Scanner struct {
	r   io.ReadSeeker
	buf []byte // unconsumed bytes in [off, off+len(buf))
	off int64

	init bool
	done bool
}

// NewScanner creates a new backwards scanner. The reader is not touched until
// the first ReadUntil call.
func NewScanner(r io.ReadSeeker) *Scanner {
	return &Scanner{r: r}
}

// ReadUntil returns the token between the last unconsumed delimiter and the
// end of the unconsumed data. The delimiter is not included. Once the start of
// the stream is reached, io.EOF is returned. A token longer than the internal
// buffer results in bufio.ErrTooLong.
//
// The returned slice stays valid after further calls.
func (s *Scanner) ReadUntil(delim byte) ([]byte, error) {
	if !s.init {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	for {
		if i := bytes.LastIndexByte(s.buf, delim); i >= 0 {
			tok := s.buf[i+1:]
			s.buf = s.buf[:i]
			return tok, nil
		}

		if s.off == 0 {
			if s.done {
				return nil, io.EOF
			}
			// Whatever is left is the first token of the stream.
			s.done = true
			tok := s.buf
			s.buf = nil
			return tok, nil
		}

		if len(s.buf) >= maxTok {
			return nil, bufio.ErrTooLong
		}

		if err := s.fill(); err != nil {
			return nil, err
		}
	}
}

func (s *Scanner) start() error {
	end, err := s.r.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.Wrap(err, "failed to find end of file")
	}

	s.init = true
	s.off = end
	s.done = end == 0
	return nil
}

// fill prepends the chunk before the unconsumed data. A new array is always
// allocated so that earlier tokens are never overwritten.
func (s *Scanner) fill() error {
	n := int64(maxTok - len(s.buf))
	if n > s.off {
		n = s.off
	}

	if _, err := s.r.Seek(s.off-n, io.SeekStart); err != nil {
		return errors.Wrap(err, "failed to seek backwards")
	}

	buf := make([]byte, int(n)+len(s.buf))
	if _, err := io.ReadFull(s.r, buf[:n]); err != nil {
		return errors.Wrap(err, "failed to read seeked chunk")
	}
	copy(buf[n:], s.buf)

	s.buf = buf
	s.off -= n
	return nil
}
