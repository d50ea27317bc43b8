package logging

import "log/slog"

// Common field names for consistent logging across the recorder.
const (
	FieldService      = "service"
	FieldError        = "error"
	FieldConnectionID = "connection_id"
	FieldURL          = "url"
	FieldDirection    = "direction"
	FieldPath         = "path"
	FieldFormat       = "format"
	FieldQueueDepth   = "queue_depth"
	FieldSubject      = "subject"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// ConnectionID returns a slog attribute for a websocket connection ID.
func ConnectionID(id int64) slog.Attr {
	return slog.Int64(FieldConnectionID, id)
}

// URL returns a slog attribute for a connection URL.
func URL(url string) slog.Attr {
	return slog.String(FieldURL, url)
}

// Direction returns a slog attribute for a message direction.
func Direction(dir string) slog.Attr {
	return slog.String(FieldDirection, dir)
}

// Path returns a slog attribute for an output file path.
func Path(path string) slog.Attr {
	return slog.String(FieldPath, path)
}

// Format returns a slog attribute for an output format.
func Format(f string) slog.Attr {
	return slog.String(FieldFormat, f)
}

// QueueDepth returns a slog attribute for the hand-off queue depth.
func QueueDepth(n int) slog.Attr {
	return slog.Int(FieldQueueDepth, n)
}

// Subject returns a slog attribute for a NATS subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}
