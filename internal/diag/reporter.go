// Package diag collects operator-visible error events. Every recoverable
// failure in the recording pipeline is both logged and retained in a
// bounded ring served by the control API, so a dropped record is never
// silent.
package diag

import (
	"log/slog"
	"sync"
	"time"
)

// ErrorEvent is one operator-visible failure report.
type ErrorEvent struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

// Reporter logs failures and keeps the most recent ones for inspection.
// Safe for concurrent use from producers, the drain worker and handlers.
type Reporter struct {
	logger *slog.Logger

	mu     sync.Mutex
	events []ErrorEvent
	limit  int
}

// NewReporter creates a reporter retaining at most limit recent events.
func NewReporter(logger *slog.Logger, limit int) *Reporter {
	if limit <= 0 {
		limit = 100
	}
	return &Reporter{
		logger: logger,
		limit:  limit,
	}
}

// Report records an operator-visible error event and logs it.
func (r *Reporter) Report(message string, err error, attrs ...slog.Attr) {
	ev := ErrorEvent{
		Time:    time.Now().UTC(),
		Message: message,
	}
	if err != nil {
		ev.Detail = err.Error()
	}

	args := make([]any, 0, len(attrs)+1)
	for _, a := range attrs {
		args = append(args, a)
	}
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	r.logger.Error(message, args...)

	r.mu.Lock()
	r.events = append(r.events, ev)
	if len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
	r.mu.Unlock()
}

// Recent returns the retained error events, newest first.
func (r *Reporter) Recent() []ErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ErrorEvent, len(r.events))
	for i, ev := range r.events {
		out[len(r.events)-1-i] = ev
	}
	return out
}
