// Package sink owns the durable output destination and its format
// envelope. A sink moves through Unopened -> EnvelopeOpen -> Closed and is
// never reformatted or reopened in place.
package sink

import (
	"fmt"
	"os"

	"github.com/tracewire-systems/wsrecorder/internal/format"
)

// State tracks the envelope lifecycle of a sink.
type State int

const (
	Unopened State = iota
	EnvelopeOpen
	Closed
)

const (
	xmlHeader = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<wsmessages>\n"
	xmlFooter = "</wsmessages>\n"

	jsonHeader = "[\n"
	jsonFooter = "]\n"
)

// Sink is one open output file plus its envelope state. All methods are
// unexported: only the Manager touches a sink, under its own lock.
type Sink struct {
	path   string
	format format.Format
	file   *os.File
	state  State
}

func envelope(f format.Format) (header, footer string, err error) {
	switch f {
	case format.XML:
		return xmlHeader, xmlFooter, nil
	case format.CSV:
		return "", "", nil
	case format.JSON:
		return jsonHeader, jsonFooter, nil
	default:
		return "", "", format.ErrRawNotImplemented
	}
}

// openSink creates the destination file and writes the envelope header.
// On any failure the partially created file is removed; the caller's
// current sink is never involved.
func openSink(path string, f format.Format) (*Sink, error) {
	header, _, err := envelope(f)
	if err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file %s: %w", path, err)
	}

	if header != "" {
		if _, err := file.WriteString(header); err != nil {
			file.Close()
			os.Remove(path)
			return nil, fmt.Errorf("write envelope header to %s: %w", path, err)
		}
	}

	return &Sink{
		path:   path,
		format: f,
		file:   file,
		state:  EnvelopeOpen,
	}, nil
}

// appendRecord writes one record followed by its line terminator and forces
// a durability flush, so an abrupt termination loses at most the record in
// flight.
func (s *Sink) appendRecord(record string) error {
	if s.state != EnvelopeOpen {
		return fmt.Errorf("append to %s: sink not open", s.path)
	}
	if _, err := s.file.WriteString(record + "\n"); err != nil {
		return fmt.Errorf("write record to %s: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.path, err)
	}
	return nil
}

// closeSink writes the envelope footer, releases the file handle and makes
// the sink terminal. On error the sink stays EnvelopeOpen so that an
// aborted swap can keep it as the current append target; subsequent appends
// on a broken handle surface through the normal append-failure path.
func (s *Sink) closeSink() error {
	if s.state != EnvelopeOpen {
		return nil
	}
	_, footer, _ := envelope(s.format)

	if footer != "" {
		if _, err := s.file.WriteString(footer); err != nil {
			return fmt.Errorf("write envelope footer to %s: %w", s.path, err)
		}
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	s.state = Closed
	return nil
}

// discard tears down a sink that never became current: close the handle and
// remove the file, ignoring errors.
func (s *Sink) discard() {
	s.file.Close()
	os.Remove(s.path)
	s.state = Closed
}
