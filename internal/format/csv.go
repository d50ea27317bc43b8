package format

import (
	"strconv"
	"strings"

	"github.com/tracewire-systems/wsrecorder/internal/models"
)

// quoteCSV wraps a field in double quotes and doubles embedded quotes.
// This is the only escaping applied; separators inside quoted fields are
// covered, anything else is emitted verbatim.
func quoteCSV(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			sb.WriteByte('"')
		}
		sb.WriteByte(s[i])
	}
	sb.WriteByte('"')
	return sb.String()
}

// serializeCSV emits a single comma-joined line. Every included field is
// followed by a comma, the last one included: recorded files have always
// carried the trailing separator and downstream tooling depends on it.
func serializeCSV(ev models.Event, opts Options) string {
	var sb strings.Builder
	if opts.IncludeID {
		sb.WriteString(strconv.FormatInt(ev.ConnectionID, 10))
		sb.WriteByte(',')
	}
	if opts.IncludeDirection {
		sb.WriteString(quoteCSV(directionLabel(ev, opts)))
		sb.WriteByte(',')
	}
	if opts.IncludeURL {
		sb.WriteString(quoteCSV(ev.ConnectionURL))
		sb.WriteByte(',')
	}
	if opts.IncludeTime {
		sb.WriteString(quoteCSV(formatTime(ev.Timestamp, opts)))
		sb.WriteByte(',')
	}
	if opts.IncludeData {
		text, _ := payloadText(ev, opts)
		sb.WriteString(quoteCSV(text))
		sb.WriteByte(',')
	}
	return sb.String()
}
