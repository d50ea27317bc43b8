// Package recorder wires the capture pipeline together: producers hand
// intercepted messages to the recorder, which serializes them, pushes the
// records onto the hand-off queue and drains them to the current sink from
// a single background worker.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tracewire-systems/wsrecorder/internal/diag"
	"github.com/tracewire-systems/wsrecorder/internal/format"
	"github.com/tracewire-systems/wsrecorder/internal/logging"
	"github.com/tracewire-systems/wsrecorder/internal/metrics"
	"github.com/tracewire-systems/wsrecorder/internal/models"
	"github.com/tracewire-systems/wsrecorder/internal/queue"
	"github.com/tracewire-systems/wsrecorder/internal/sink"
)

// Recorder is the event aggregation pipeline. Producers call the On*
// methods from any goroutine; exactly one drain worker commits records to
// the sink manager.
type Recorder struct {
	logger   *logging.Logger
	reporter *diag.Reporter
	registry *Registry
	queue    *queue.Queue
	sinks    *sink.Manager

	// opts holds the current formatting snapshot. Producers load it once
	// per message, so a concurrent Reconfigure never interleaves mid-record.
	opts      atomic.Pointer[format.Options]
	recording atomic.Bool

	statsMu sync.RWMutex
	stats   models.RecorderStats

	done chan struct{}
}

// New creates a recorder draining into the given sink manager and starts
// the drain worker. The initial options snapshot applies until Reconfigure.
func New(logger *logging.Logger, reporter *diag.Reporter, sinks *sink.Manager, opts format.Options) *Recorder {
	r := &Recorder{
		logger:   logger,
		reporter: reporter,
		registry: NewRegistry(),
		queue:    queue.New(),
		sinks:    sinks,
		done:     make(chan struct{}),
	}
	r.opts.Store(&opts)
	r.recording.Store(true)

	go r.drainLoop()

	return r
}

// OnConnected registers a new connection and returns its recorder-assigned
// ID. The ID is stable for the connection's lifetime and never reused.
func (r *Recorder) OnConnected(url string) int64 {
	id := r.registry.Register(url)
	metrics.ConnectionsTotal.Inc()

	r.statsMu.Lock()
	r.stats.Connections++
	r.statsMu.Unlock()

	r.logger.Debug("connection registered",
		logging.ConnectionID(id),
		logging.URL(url),
	)
	return id
}

// OnTextMessage records one text frame. It returns promptly and never
// panics outward; failures are reported and the single record dropped.
func (r *Recorder) OnTextMessage(connID int64, text string, dir models.Direction) {
	r.record(models.Event{
		ConnectionID:  connID,
		ConnectionURL: r.registry.URL(connID),
		Direction:     dir,
		Timestamp:     time.Now(),
		Kind:          models.PayloadText,
		Text:          text,
	})
}

// OnBinaryMessage records one binary frame.
func (r *Recorder) OnBinaryMessage(connID int64, data []byte, dir models.Direction) {
	r.record(models.Event{
		ConnectionID:  connID,
		ConnectionURL: r.registry.URL(connID),
		Direction:     dir,
		Timestamp:     time.Now(),
		Kind:          models.PayloadBinary,
		Data:          data,
	})
}

func (r *Recorder) record(ev models.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.reporter.Report("panic while recording message", fmt.Errorf("%v", rec),
				logging.ConnectionID(ev.ConnectionID))
		}
	}()

	if !r.recording.Load() {
		return
	}

	opts := *r.opts.Load()
	record, err := format.Serialize(ev, opts)
	if err != nil {
		metrics.SerializeErrors.Inc()
		metrics.EventsTotal.WithLabelValues(ev.Direction.String(), "dropped").Inc()
		r.reporter.Report("failed to serialize message", err,
			logging.ConnectionID(ev.ConnectionID),
			logging.Format(opts.Format.String()),
		)
		r.countDropped()
		return
	}

	r.queue.Push(record)
	metrics.EventsTotal.WithLabelValues(ev.Direction.String(), "recorded").Inc()
	metrics.RecordBytesTotal.Add(float64(len(record)))
	metrics.QueueDepth.Set(float64(r.queue.Len()))

	r.statsMu.Lock()
	r.stats.RecordedEvents++
	r.stats.RecordedBytes += int64(len(record))
	r.stats.LastEvent = time.Now()
	if ev.Direction == models.ClientToServer {
		r.stats.ClientToServer++
	} else {
		r.stats.ServerToClient++
	}
	r.statsMu.Unlock()
}

// drainLoop is the single consumer. One failed append never stops it; the
// queue keeps absorbing producer pushes while the sink is unhealthy.
func (r *Recorder) drainLoop() {
	defer close(r.done)

	ctx := context.Background()
	for {
		record, err := r.queue.Pop(ctx)
		if err != nil {
			if err != queue.ErrClosed {
				// Only a failure of the queue primitive itself lands here.
				r.reporter.Report("hand-off queue failed, drain worker exiting", err)
			}
			return
		}
		metrics.QueueDepth.Set(float64(r.queue.Len()))

		if err := r.sinks.Append(record); err != nil {
			metrics.AppendErrors.Inc()
			r.reporter.Report("failed to write record to output file", err)
			r.countDropped()
		}
	}
}

func (r *Recorder) countDropped() {
	r.statsMu.Lock()
	r.stats.DroppedEvents++
	r.statsMu.Unlock()
}

// Options returns the current formatting snapshot.
func (r *Recorder) Options() format.Options {
	return *r.opts.Load()
}

// Reconfigure atomically replaces the formatting snapshot. In-flight
// serializations finish with the snapshot they loaded.
func (r *Recorder) Reconfigure(opts format.Options) {
	r.opts.Store(&opts)
	r.logger.Info("recording options updated", logging.Format(opts.Format.String()))
}

// ApplyOptions applies a new options snapshot, swapping the output file
// first when one is requested. A sink is never reformatted in place: a
// format change requires a new output path. On any failure the previous
// options and the previous sink both stay in effect, so the caller can
// roll back its pending change.
func (r *Recorder) ApplyOptions(opts format.Options, newPath string) error {
	if newPath != "" {
		if err := r.swap(newPath, opts.Format); err != nil {
			return err
		}
	} else if _, cur, open := r.sinks.Current(); open && cur != opts.Format {
		return fmt.Errorf("changing output format from %s to %s requires a new output file", cur, opts.Format)
	}
	r.Reconfigure(opts)
	return nil
}

// ChangeOutput hot-swaps the output file, keeping the current format.
func (r *Recorder) ChangeOutput(newPath string) error {
	return r.swap(newPath, r.Options().Format)
}

func (r *Recorder) swap(newPath string, f format.Format) error {
	if err := r.sinks.Swap(newPath, f); err != nil {
		metrics.SinkSwapsTotal.WithLabelValues("error").Inc()
		r.reporter.Report("failed to swap output file", err, logging.Path(newPath))
		return err
	}
	metrics.SinkSwapsTotal.WithLabelValues("ok").Inc()
	r.logger.Info("output file swapped",
		logging.Path(newPath),
		logging.Format(f.String()),
	)
	return nil
}

// SetRecording toggles message intake. When off, messages are observed but
// not queued.
func (r *Recorder) SetRecording(on bool) {
	r.recording.Store(on)
}

// Recording reports whether intake is enabled.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Stats returns a copy of the ingestion counters.
func (r *Recorder) Stats() models.RecorderStats {
	r.statsMu.RLock()
	defer r.statsMu.RUnlock()
	return r.stats
}

// QueueDepth reports the current hand-off queue depth.
func (r *Recorder) QueueDepth() int {
	return r.queue.Len()
}

// CurrentOutput reports the open sink's path and format.
func (r *Recorder) CurrentOutput() (path string, f format.Format, open bool) {
	return r.sinks.Current()
}

// Close performs a clean shutdown: stop intake, drain the queue, then close
// the sink so the envelope footer lands on disk. The sink close error, if
// any, is the final reported error.
func (r *Recorder) Close() error {
	r.recording.Store(false)
	r.queue.Close()
	<-r.done

	if err := r.sinks.Close(); err != nil {
		r.reporter.Report("failed to close output file", err)
		return err
	}
	return nil
}
