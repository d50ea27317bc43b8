// Package format turns intercepted websocket messages into textual records.
// Serialization is pure: no I/O, no shared mutable state, safe to call
// concurrently from every connection handler.
package format

import (
	"errors"

	"github.com/tracewire-systems/wsrecorder/internal/models"
)

// ErrRawNotImplemented is returned when the raw output format is selected.
// Raw exists in the configuration surface but has no defined serialization.
var ErrRawNotImplemented = errors.New("raw output format is not implemented")

// Serialize renders one event according to the options snapshot.
// The returned record carries all format-specific encoding; the caller
// appends the line terminator when committing it to the sink.
func Serialize(ev models.Event, opts Options) (string, error) {
	switch opts.Format {
	case XML:
		return serializeXML(ev, opts), nil
	case CSV:
		return serializeCSV(ev, opts), nil
	case JSON:
		return serializeJSON(ev, opts), nil
	case Raw:
		return "", ErrRawNotImplemented
	default:
		return "", ErrRawNotImplemented
	}
}

// directionLabel picks the operator-configured label for the event direction.
func directionLabel(ev models.Event, opts Options) string {
	if ev.Direction == models.ClientToServer {
		return opts.DirectionLabelCS
	}
	return opts.DirectionLabelSC
}

// payloadText resolves the data field: text payloads verbatim, binary
// payloads either base64-encoded or embedded as their raw string conversion.
func payloadText(ev models.Event, opts Options) (text string, base64Encoded bool) {
	if ev.Kind == models.PayloadText {
		return ev.Text, false
	}
	if opts.BinaryAsBase64 {
		return encodeBase64(ev.Data), true
	}
	return string(ev.Data), false
}
