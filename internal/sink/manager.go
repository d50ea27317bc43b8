package sink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tracewire-systems/wsrecorder/internal/format"
)

// ErrNoSink is returned by Append when no sink is currently open. The
// record is lost; the caller reports the condition instead of crashing the
// drain loop.
var ErrNoSink = errors.New("no output sink is open")

// Manager mediates every access to the current sink. The mutex is the sole
// serialization point for "which sink is current": appends and the
// close-then-publish step of a swap share it, so at every instant exactly
// one sink is the append target.
type Manager struct {
	mu      sync.Mutex
	current *Sink
}

// NewManager returns a manager with no sink open.
func NewManager() *Manager {
	return &Manager{}
}

// Open creates the initial sink. It fails if a sink is already current;
// runtime replacement goes through Swap.
func (m *Manager) Open(path string, f format.Format) error {
	s, err := openSink(path, f)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		s.discard()
		return fmt.Errorf("open %s: a sink is already open, use Swap", path)
	}
	m.current = s
	return nil
}

// Append commits one record to the current sink, including the durability
// flush. With no open sink it returns ErrNoSink and the record is dropped.
func (m *Manager) Append(record string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNoSink
	}
	return m.current.appendRecord(record)
}

// Swap replaces the current sink with a freshly opened one.
//
// The new sink is fully constructed (header written) outside the lock, so
// concurrent appends keep flowing to the old sink. Only then does the
// critical section close the old sink and publish the new one. If the open
// step fails the old sink is never touched; if the close step fails the
// swap is aborted, the new sink is torn down and the old sink remains
// current.
func (m *Manager) Swap(newPath string, newFormat format.Format) error {
	s, err := openSink(newPath, newFormat)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		if err := m.current.closeSink(); err != nil {
			s.discard()
			return fmt.Errorf("swap aborted, keeping current sink: %w", err)
		}
	}
	m.current = s
	return nil
}

// Close terminates the current sink, writing the envelope footer. No-op
// when nothing is open. On error the sink stays current so the failure can
// be retried or surfaced as the final shutdown error.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	if err := m.current.closeSink(); err != nil {
		return err
	}
	m.current = nil
	return nil
}

// Current reports the path and format of the open sink, if any.
func (m *Manager) Current() (path string, f format.Format, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", 0, false
	}
	return m.current.path, m.current.format, true
}
